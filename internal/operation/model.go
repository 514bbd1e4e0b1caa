package operation

import (
	"errors"
	"fmt"
	"time"

	"github.com/speoper/dispatch/internal/transport"
)

var (
	// ErrNotFound is returned when no operation record matches.
	ErrNotFound = errors.New("operation not found")
	// ErrExtractionDisabled is returned when no AI key is configured.
	ErrExtractionDisabled = errors.New("ai extraction is not configured")
)

// Type categorizes operations.
type Type string

const (
	TypeFire    Type = "FIRE"
	TypeMedical Type = "MEDICAL"
	TypeRescue  Type = "RESCUE"
)

// Types lists every valid operation type.
func Types() []Type {
	return []Type{TypeFire, TypeMedical, TypeRescue}
}

// ParseType validates an incoming type value.
func ParseType(value string) (Type, error) {
	switch Type(value) {
	case TypeFire, TypeMedical, TypeRescue:
		return Type(value), nil
	}
	return "", fmt.Errorf("unknown operation type: %s", value)
}

// Status tracks the lifecycle of an operation.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus validates an incoming status value.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusActive, StatusCompleted, StatusCancelled:
		return Status(value), nil
	}
	return "", fmt.Errorf("unknown operation status: %s", value)
}

// Operation is an incident record requiring a coordinated response.
type Operation struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Date        time.Time             `json:"date"`
	Latitude    *float64              `json:"latitude,omitempty"`
	Longitude   *float64              `json:"longitude,omitempty"`
	Type        Type                  `json:"type"`
	Status      Status                `json:"status"`
	PhotoURL    *string               `json:"photoUrl,omitempty"`
	Transports  []transport.Transport `json:"transports"`
}

// CreateInput carries fields for a new operation.
type CreateInput struct {
	Name         string
	Description  string
	Date         time.Time
	Latitude     *float64
	Longitude    *float64
	Type         Type
	PhotoURL     *string
	TransportIDs []int64
}

// UpdateInput carries optional fields for a partial update. A non-nil
// TransportIDs replaces the whole linkage.
type UpdateInput struct {
	Name         *string
	Description  *string
	Date         *time.Time
	Latitude     *float64
	Longitude    *float64
	Type         *Type
	Status       *Status
	PhotoURL     *string
	TransportIDs []int64
}
