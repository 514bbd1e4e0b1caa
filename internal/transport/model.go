package transport

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no transport record matches.
var ErrNotFound = errors.New("transport not found")

// Type categorizes transports; it doubles as the worker service-type scope.
type Type string

const (
	TypeFire    Type = "FIRE"
	TypeMedical Type = "MEDICAL"
	TypeRescue  Type = "RESCUE"
)

// Types lists every valid transport type.
func Types() []Type {
	return []Type{TypeFire, TypeMedical, TypeRescue}
}

// ParseType validates an incoming type value.
func ParseType(value string) (Type, error) {
	switch Type(value) {
	case TypeFire, TypeMedical, TypeRescue:
		return Type(value), nil
	}
	return "", fmt.Errorf("unknown transport type: %s", value)
}

// Transport is a vehicle resource available for operations.
type Transport struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	PeopleCapacity int     `json:"peopleCapacity"`
	Type           Type    `json:"type"`
	PhotoURL       *string `json:"photoUrl,omitempty"`
}

// CreateInput carries fields for a new transport.
type CreateInput struct {
	Name           string
	Description    string
	PeopleCapacity int
	Type           Type
	PhotoURL       *string
}

// UpdateInput carries optional fields for a partial update.
type UpdateInput struct {
	Name           *string
	Description    *string
	PeopleCapacity *int
	Type           *Type
	PhotoURL       *string
}
