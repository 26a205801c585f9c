package auth

import (
	"sync"
	"time"
)

// CounterStore tracks failed login attempts. The interface exists so the
// in-memory store can be swapped for a shared backend when running more than
// one replica.
type CounterStore interface {
	// Allow reports whether an attempt may proceed and, when it may not,
	// how long until the lockout expires.
	Allow(ip, email string) (bool, time.Duration)
	// RecordFailure counts a failed attempt and reports whether it
	// triggered a lockout.
	RecordFailure(ip, email string) (bool, time.Duration)
	// RecordSuccess clears the failure record after a successful login.
	RecordSuccess(ip, email string)
	// Stop releases any background resources.
	Stop()
}

// RateLimitConfig contains configuration for the login rate limiter.
type RateLimitConfig struct {
	MaxAttempts     int           // attempts before lockout (default: 5)
	WindowDuration  time.Duration // window for counting attempts (default: 15m)
	LockoutDuration time.Duration // lockout length after max attempts (default: 30m)
	CleanupInterval time.Duration // expired-record sweep interval (default: 5m)
}

// MemoryCounterStore is the in-process CounterStore. It tracks failed
// attempts per IP+email combination using a sliding window.
type MemoryCounterStore struct {
	mu              sync.RWMutex
	attempts        map[string]*attemptRecord
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

var _ CounterStore = (*MemoryCounterStore)(nil)

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// NewMemoryCounterStore creates an in-memory counter store with the given
// configuration.
func NewMemoryCounterStore(cfg RateLimitConfig) *MemoryCounterStore {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = 15 * time.Minute
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	s := &MemoryCounterStore{
		attempts:        make(map[string]*attemptRecord),
		maxAttempts:     cfg.MaxAttempts,
		windowDuration:  cfg.WindowDuration,
		lockoutDuration: cfg.LockoutDuration,
		cleanupInterval: cfg.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// Stop stops the background cleanup goroutine.
func (s *MemoryCounterStore) Stop() {
	close(s.stopCleanup)
}

func makeKey(ip, email string) string {
	return ip + ":" + email
}

// Allow checks if a login attempt should proceed.
func (s *MemoryCounterStore) Allow(ip, email string) (bool, time.Duration) {
	key := makeKey(ip, email)
	now := time.Now()

	s.mu.RLock()
	record, exists := s.attempts[key]
	s.mu.RUnlock()

	if !exists {
		return true, 0
	}

	if !record.lockedUntil.IsZero() && now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}

	if now.Sub(record.firstAttempt) > s.windowDuration {
		return true, 0
	}

	if record.count < s.maxAttempts {
		return true, 0
	}

	return false, s.lockoutDuration
}

// RecordFailure records a failed login attempt.
func (s *MemoryCounterStore) RecordFailure(ip, email string) (bool, time.Duration) {
	key := makeKey(ip, email)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.attempts[key]
	if !exists {
		record = &attemptRecord{firstAttempt: now}
		s.attempts[key] = record
	}

	// Reset if window expired
	if now.Sub(record.firstAttempt) > s.windowDuration {
		record.count = 0
		record.firstAttempt = now
		record.lockedUntil = time.Time{}
	}

	record.count++

	if record.count >= s.maxAttempts {
		record.lockedUntil = now.Add(s.lockoutDuration)
		return true, s.lockoutDuration
	}

	return false, 0
}

// RecordSuccess clears the failure record for a successful login.
func (s *MemoryCounterStore) RecordSuccess(ip, email string) {
	s.mu.Lock()
	delete(s.attempts, makeKey(ip, email))
	s.mu.Unlock()
}

func (s *MemoryCounterStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryCounterStore) cleanup() {
	now := time.Now()
	expiry := s.windowDuration + s.lockoutDuration

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, record := range s.attempts {
		windowExpired := now.Sub(record.firstAttempt) > expiry
		lockoutExpired := record.lockedUntil.IsZero() || now.After(record.lockedUntil)

		if windowExpired && lockoutExpired {
			delete(s.attempts, key)
		}
	}
}
