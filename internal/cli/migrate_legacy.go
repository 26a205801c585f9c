// Package cli implements the maintenance commands that run outside the HTTP
// server.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/searchmate/searchmate/internal/auth"
	"github.com/searchmate/searchmate/internal/config"
	"github.com/searchmate/searchmate/internal/database"
	"github.com/searchmate/searchmate/internal/database/chats"
	"github.com/searchmate/searchmate/internal/database/users"
	"github.com/searchmate/searchmate/internal/entities"
)

// MigrateLegacyCommand adopts data created before accounts existed: it
// ensures a default admin account and assigns ownerless chats and messages
// to it.
type MigrateLegacyCommand struct {
	DatabasePath  string
	AdminEmail    string
	AdminPassword string
	AdminName     string
	DryRun        bool
}

// NewMigrateLegacyCommand creates a new MigrateLegacyCommand.
func NewMigrateLegacyCommand() *MigrateLegacyCommand {
	return &MigrateLegacyCommand{}
}

// ParseFlags parses command line flags.
func (cmd *MigrateLegacyCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate-legacy", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.AdminEmail, "admin-email", os.Getenv("DEFAULT_ADMIN_EMAIL"), "Email for the default admin account")
	fs.StringVar(&cmd.AdminPassword, "admin-password", os.Getenv("DEFAULT_ADMIN_PASSWORD"), "Password for the default admin account")
	fs.StringVar(&cmd.AdminName, "admin-name", "Admin", "Display name for the default admin account")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Report what would change without writing")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate-legacy [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Adopt data created before accounts existed.\n\n")
		fmt.Fprintf(os.Stderr, "This command:\n")
		fmt.Fprintf(os.Stderr, "  1. Creates the default admin account if it does not exist\n")
		fmt.Fprintf(os.Stderr, "  2. Assigns ownerless chats and messages to that account\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nThe admin credentials can also come from the DEFAULT_ADMIN_EMAIL\n")
		fmt.Fprintf(os.Stderr, "and DEFAULT_ADMIN_PASSWORD environment variables.\n")
	}

	return fs.Parse(args)
}

// Run executes the migration.
func (cmd *MigrateLegacyCommand) Run() error {
	if cmd.AdminEmail == "" || cmd.AdminPassword == "" {
		return errors.New("admin email and password are required (flags or DEFAULT_ADMIN_EMAIL/DEFAULT_ADMIN_PASSWORD)")
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	userRepo := users.NewRepository(db.DB)
	chatRepo := chats.NewRepository(db.DB)

	orphanedChats, err := chatRepo.CountOrphanedChats()
	if err != nil {
		return fmt.Errorf("failed to count orphaned chats: %w", err)
	}
	orphanedMessages, err := chatRepo.CountOrphanedMessages()
	if err != nil {
		return fmt.Errorf("failed to count orphaned messages: %w", err)
	}
	fmt.Printf("Found %d ownerless chats and %d ownerless messages\n", orphanedChats, orphanedMessages)

	if cmd.DryRun {
		fmt.Println("Dry run: no changes written")
		return nil
	}

	admin, err := userRepo.GetUserByEmail(cmd.AdminEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if violations := auth.ValidatePasswordPolicy(cmd.AdminPassword); len(violations) > 0 {
			return &auth.PasswordPolicyError{Violations: violations}
		}
		hash, err := auth.HashPassword(cmd.AdminPassword, 12)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		admin, err = userRepo.CreateUser(cmd.AdminEmail, hash, cmd.AdminName, entities.UserRoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to create admin account: %w", err)
		}
		fmt.Printf("Created admin account %s\n", admin.Email)
	} else if err != nil {
		return fmt.Errorf("failed to look up admin account: %w", err)
	} else {
		fmt.Printf("Using existing account %s\n", admin.Email)
	}

	chatCount, messageCount, err := chatRepo.AssignOrphanedToUser(admin.ID)
	if err != nil {
		return fmt.Errorf("failed to assign legacy data: %w", err)
	}

	fmt.Printf("Assigned %d chats and %d messages to %s\n", chatCount, messageCount, admin.Email)
	return nil
}
