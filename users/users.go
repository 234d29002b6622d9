package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RoleType represents a user role
type RoleType string

const (
	RoleAdmin    RoleType = "admin"
	RoleCustomer RoleType = "customer"
)

type User struct {
	ID           uuid.UUID `json:"id,omitempty"`          // Unique identifier for the user
	Email        string    `json:"email,omitempty"`       // User's email address
	Username     string    `json:"username,omitempty"`    // Unique username
	PasswordHash string    `json:"-"`                     // Hashed version of the user's password - never serialize
	FirstName    string    `json:"first_name,omitempty"`  // First name of the user
	LastName     string    `json:"last_name,omitempty"`   // Last name of the user
	Role         string    `json:"role,omitempty"`        // User role (admin, customer, ...)
	DateJoined   time.Time `json:"date_joined,omitempty"` // Date and time when the user registered
	LastLogin    time.Time `json:"last_login,omitempty"`  // Last time the user logged in

	Active          bool       `json:"is_active"`                   // Active, can the user log in
	Deleted         bool       `json:"is_deleted,omitempty"`        // Deleted, soft-delete marker
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`        // When the user was soft-deleted
	EmailVerified   bool       `json:"email_verified"`              // EmailVerified, has the user proved ownership of the address
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"` // When the email was verified

	// Reset fields live on the user record as the canonical "already consumed"
	// guard: clearing them invalidates the outstanding reset token even if the
	// standalone ledger row survives.
	ResetToken       string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains at least one letter
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasLetter bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasLetter {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsBcryptHash reports whether the stored value is in bcrypt format. Legacy
// rows predating the hashing rollout hold plaintext and must be migrated on
// first verification.
func IsBcryptHash(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}
