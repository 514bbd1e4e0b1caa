package transport

import (
	"context"
)

type repository interface {
	List(ctx context.Context) ([]Transport, error)
	GetByID(ctx context.Context, id int64) (Transport, error)
	Create(ctx context.Context, input CreateInput) (Transport, error)
	Update(ctx context.Context, t Transport) (Transport, error)
	Delete(ctx context.Context, id int64) error
}

// Service holds business rules for the transport fleet.
type Service struct {
	repo repository
}

// NewService builds a transport service.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// List returns all transports.
func (s *Service) List(ctx context.Context) ([]Transport, error) {
	return s.repo.List(ctx)
}

// Get returns a single transport.
func (s *Service) Get(ctx context.Context, id int64) (Transport, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registers a new transport.
func (s *Service) Create(ctx context.Context, input CreateInput) (Transport, error) {
	return s.repo.Create(ctx, input)
}

// Update merges the provided fields into an existing transport.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Transport, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Transport{}, err
	}

	if input.Name != nil {
		t.Name = *input.Name
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.PeopleCapacity != nil {
		t.PeopleCapacity = *input.PeopleCapacity
	}
	if input.Type != nil {
		t.Type = *input.Type
	}
	if input.PhotoURL != nil {
		t.PhotoURL = input.PhotoURL
	}

	return s.repo.Update(ctx, t)
}

// Delete removes a transport.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
