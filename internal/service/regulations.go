package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ipanov/UrbanAI-sub002/internal/domain"
)

// RegulationStore is the catalog persistence surface.
type RegulationStore interface {
	Insert(ctx context.Context, reg *domain.Regulation) error
	GetByID(ctx context.Context, id string) (*domain.Regulation, error)
	Update(ctx context.Context, reg *domain.Regulation) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	GetByLocation(ctx context.Context, location string) ([]domain.Regulation, error)
	GetByKeywords(ctx context.Context, keywords []string) ([]domain.Regulation, error)
	Search(ctx context.Context, q string) ([]domain.Regulation, error)
	List(ctx context.Context) ([]domain.Regulation, error)
}

// RegulationService exposes the regulation catalog. Reads are open to any
// authenticated user; writes require an Authority account.
type RegulationService struct {
	store RegulationStore
}

func NewRegulationService(store RegulationStore) *RegulationService {
	return &RegulationService{store: store}
}

func (s *RegulationService) Create(ctx context.Context, actor AuthUser, reg *domain.Regulation) error {
	if actor.UserType != domain.Authority {
		return ErrForbidden
	}
	if strings.TrimSpace(reg.Title) == "" || strings.TrimSpace(reg.Content) == "" {
		return fmt.Errorf("%w: title, content", ErrMissingFields)
	}
	return s.store.Insert(ctx, reg)
}

func (s *RegulationService) Get(ctx context.Context, id string) (*domain.Regulation, error) {
	reg, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, fmt.Errorf("%w: regulation %s", ErrNotFound, id)
	}
	return reg, nil
}

func (s *RegulationService) Update(ctx context.Context, actor AuthUser, reg *domain.Regulation) error {
	if actor.UserType != domain.Authority {
		return ErrForbidden
	}
	ok, err := s.store.Update(ctx, reg)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: regulation %s", ErrNotFound, reg.ID)
	}
	return nil
}

func (s *RegulationService) Delete(ctx context.Context, actor AuthUser, id string) error {
	if actor.UserType != domain.Authority {
		return ErrForbidden
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: regulation %s", ErrNotFound, id)
	}
	return nil
}

// Query dispatches on whichever filter is present: free-text search wins,
// then location, then keywords, else the full list.
func (s *RegulationService) Query(ctx context.Context, location, q string, keywords []string) ([]domain.Regulation, error) {
	switch {
	case strings.TrimSpace(q) != "":
		return s.store.Search(ctx, strings.TrimSpace(q))
	case strings.TrimSpace(location) != "":
		return s.store.GetByLocation(ctx, strings.TrimSpace(location))
	case len(keywords) > 0:
		return s.store.GetByKeywords(ctx, keywords)
	}
	return s.store.List(ctx)
}
