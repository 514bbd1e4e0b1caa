package user

import (
	"errors"

	"github.com/speoper/dispatch/internal/auth"
	"github.com/speoper/dispatch/internal/transport"
)

var (
	// ErrNotFound is returned when no user record matches.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the registration email already exists.
	ErrEmailTaken = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTooManyAttempts is returned when the login throttle kicks in.
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// Role aliases the claim-level type from the auth package; the values
// are re-exported here so domain code keeps reading user.RoleDispatcher.
type Role = auth.Role

const (
	RoleDispatcher = auth.RoleDispatcher
	RoleWorker     = auth.RoleWorker
)

// User is the identity record behind every token subject.
type User struct {
	ID           int64           `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Role         Role            `json:"role"`
	ServiceType  *transport.Type `json:"serviceType,omitempty"`
}

// TokenResult is the payload returned by login and registration.
type TokenResult struct {
	AccessToken  string `json:"accessToken"`
	IsDispatcher bool   `json:"isDispatcher"`
}
