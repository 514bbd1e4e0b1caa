package auth

import "errors"

// Role is the closed set of access levels carried in token claims. It lives
// here so token middleware can depend on it without importing the domain
// packages it guards.
type Role string

const (
	RoleDispatcher Role = "DISPATCHER"
	RoleWorker     Role = "WORKER"
)

// ParseRole validates a role value coming from a token claim or a stored row.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleDispatcher, RoleWorker:
		return Role(value), nil
	}
	return "", errors.New("unknown role: " + value)
}
