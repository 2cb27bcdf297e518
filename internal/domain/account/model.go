package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
	MaxNameLength  = 100
	MinNameLength  = 2
	MinPasswordLen = 6
)

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleUser, RoleAdmin}

// Domain errors
var (
	ErrInvalidEmail     = errors.New("indirizzo email non valido")
	ErrEmptyEmail       = errors.New("l'email è obbligatoria")
	ErrNameTooShort     = errors.New("il nome deve contenere almeno 2 caratteri")
	ErrNameTooLong      = errors.New("il nome non può superare 100 caratteri")
	ErrInvalidRole      = errors.New("il ruolo deve essere 'user' o 'admin'")
	ErrEmptyPassword    = errors.New("la password è obbligatoria")
	ErrPasswordTooShort = errors.New("la password deve contenere almeno 6 caratteri")
	ErrPasswordMismatch = errors.New("le password non corrispondono")
	ErrWrongPassword    = errors.New("password errata")
)

// User is a registered site account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, error otherwise
func (u *User) Validate() error {
	if err := ValidateName(u.Name); err != nil {
		return err
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if !IsValidRole(u.Role) {
		return ErrInvalidRole
	}
	return nil
}

// ValidateName checks the display name length.
func ValidateName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < MinNameLength {
		return ErrNameTooShort
	}
	if n > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// ValidateEmail checks presence, length and shape of an email address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmptyEmail
	}
	if len(email) > MaxEmailLength {
		return ErrInvalidEmail
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return ErrInvalidEmail
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext has at least MinPasswordLen characters
// POST: PasswordHash is set to bcrypt hash
func (u *User) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: User fields are not mutated
func (u *User) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the user is currently locked out.
func (u *User) IsLocked(now time.Time) bool {
	return !u.LockedUntil.IsZero() && now.Before(u.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the user after 5 failures.
// POST: FailedLogins incremented; LockedUntil set if >= 5 failures
func (u *User) RecordFailedLogin(now time.Time) {
	u.FailedLogins++
	if u.FailedLogins >= 5 {
		u.LockedUntil = now.Add(15 * time.Minute)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
func (u *User) ResetFailedLogins() {
	u.FailedLogins = 0
	u.LockedUntil = time.Time{}
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsValidRole reports whether role is one of ValidRoles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
