package operation

import (
	"context"

	"github.com/speoper/dispatch/internal/extract"
	"github.com/speoper/dispatch/internal/transport"
	"github.com/speoper/dispatch/internal/user"
)

type repository interface {
	ListWithTransports(ctx context.Context) ([]Operation, error)
	GetByID(ctx context.Context, id int64) (Operation, error)
	Create(ctx context.Context, input CreateInput) (Operation, error)
	Update(ctx context.Context, op Operation, replaceTransports bool, transportIDs []int64) (Operation, error)
	Delete(ctx context.Context, id int64) error
}

type userGetter interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type transportLister interface {
	List(ctx context.Context) ([]transport.Transport, error)
}

type extractor interface {
	ExtractOperation(ctx context.Context, prompt string, transports []extract.TransportOption, types []string) (*extract.Result, error)
}

// Service holds business rules for operations, including row visibility.
type Service struct {
	repo       repository
	users      userGetter
	transports transportLister
	extractor  extractor
}

// NewService builds an operation service. extractor may be nil when AI
// extraction is not configured.
func NewService(repo repository, users userGetter, transports transportLister, ex extractor) *Service {
	return &Service{repo: repo, users: users, transports: transports, extractor: ex}
}

// List returns the operations visible to the caller. The visibility rule
// lives here, in the domain layer, so every entry point goes through it.
func (s *Service) List(ctx context.Context, subject int64, role user.Role) ([]Operation, error) {
	ops, err := s.repo.ListWithTransports(ctx)
	if err != nil {
		return nil, err
	}

	if role == user.RoleDispatcher {
		return ops, nil
	}

	// The token only carries id and role; the service-type scope comes from
	// the stored record. A subject whose record is gone is a stale token.
	u, err := s.users.GetByID(ctx, subject)
	if err != nil {
		return nil, err
	}

	return VisibleTo(u.Role, u.ServiceType, ops), nil
}

// Get returns a single operation with its transports.
func (s *Service) Get(ctx context.Context, id int64) (Operation, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registers a new operation.
func (s *Service) Create(ctx context.Context, input CreateInput) (Operation, error) {
	return s.repo.Create(ctx, input)
}

// Update merges the provided fields into an existing operation. A provided
// transport list replaces the linkage; an omitted one leaves it untouched.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Operation, error) {
	op, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Operation{}, err
	}

	if input.Name != nil {
		op.Name = *input.Name
	}
	if input.Description != nil {
		op.Description = *input.Description
	}
	if input.Date != nil {
		op.Date = *input.Date
	}
	if input.Latitude != nil {
		op.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		op.Longitude = input.Longitude
	}
	if input.Type != nil {
		op.Type = *input.Type
	}
	if input.Status != nil {
		op.Status = *input.Status
	}
	if input.PhotoURL != nil {
		op.PhotoURL = input.PhotoURL
	}

	return s.repo.Update(ctx, op, input.TransportIDs != nil, input.TransportIDs)
}

// Delete removes an operation.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// FillWithAI extracts operation fields from a free-text description using
// the configured model and the current transport catalog.
func (s *Service) FillWithAI(ctx context.Context, prompt string) (*extract.Result, error) {
	if s.extractor == nil {
		return nil, ErrExtractionDisabled
	}

	transports, err := s.transports.List(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]extract.TransportOption, 0, len(transports))
	for _, t := range transports {
		options = append(options, extract.TransportOption{ID: t.ID, Name: t.Name})
	}

	types := make([]string, 0, len(Types()))
	for _, t := range Types() {
		types = append(types, string(t))
	}

	return s.extractor.ExtractOperation(ctx, prompt, options, types)
}
