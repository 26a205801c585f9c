// Package auth implements account management and token-based authentication.
//
// Accounts carry bcrypt-hashed credentials. Signed-in clients hold a JWT
// pair: a short-lived access token presented on every request and a
// long-lived refresh token backed by a session row. Refresh tokens are
// rotated on every use, so each one works exactly once.
//
// The package also provides the Gin middleware that resolves request
// identity, the login rate limiter and CSRF protection for
// cookie-authenticated clients.
package auth
