package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ipanov/UrbanAI-sub002/internal/domain"
	"github.com/ipanov/UrbanAI-sub002/internal/log"
	"github.com/ipanov/UrbanAI-sub002/internal/queue"
	"github.com/ipanov/UrbanAI-sub002/internal/requestid"
)

// IssueStore is the persistence surface the issue use cases need.
type IssueStore interface {
	Create(ctx context.Context, is *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	Update(ctx context.Context, is *domain.Issue) error
	Delete(ctx context.Context, id string) (bool, error)
	ListAll(ctx context.Context) ([]domain.Issue, error)
	ListByReporter(ctx context.Context, reporterID string) ([]domain.Issue, error)
}

// AuthUser is the caller identity extracted from the session JWT.
type AuthUser struct {
	ID       string
	Role     string
	UserType domain.UserType
}

// IssueService owns the issue lifecycle and its access rules: reporters
// manage their own issues, Authority users manage any.
type IssueService struct {
	store  IssueStore
	events queue.Publisher
}

func NewIssueService(store IssueStore, events queue.Publisher) *IssueService {
	return &IssueService{store: store, events: events}
}

// CreateIssueInput carries the fields a reporter submits.
type CreateIssueInput struct {
	Title       string
	Description string
	PhotoURL    *string
	Latitude    float64
	Longitude   float64
	Address     *string
}

func (in CreateIssueInput) validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: title, description", ErrMissingFields)
	}
	if len(title) > domain.MaxIssueTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, domain.MaxIssueTitleLen)
	}
	return nil
}

// Create records a new issue with status Open, reported by the actor.
func (s *IssueService) Create(ctx context.Context, actor AuthUser, in CreateIssueInput) (*domain.Issue, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	is := &domain.Issue{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		PhotoURL:    in.PhotoURL,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		Status:      domain.StatusOpen,
		ReporterID:  actor.ID,
	}
	if err := s.store.Create(ctx, is); err != nil {
		return nil, err
	}

	evt := queue.IssueCreated{IssueID: is.ID, Title: is.Title, ReporterID: is.ReporterID}
	if err := s.events.Publish(ctx, queue.KeyIssueCreated, evt, requestid.From(ctx)); err != nil {
		log.From(ctx).Warn("issue.created publish failed", zap.Error(err))
	}
	return is, nil
}

// Get returns one issue by id for any authenticated caller; only listing
// is scoped by user type.
func (s *IssueService) Get(ctx context.Context, actor AuthUser, id string) (*domain.Issue, error) {
	is, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if is == nil {
		return nil, fmt.Errorf("%w: issue %s", ErrNotFound, id)
	}
	return is, nil
}

// UpdateIssueInput carries the mutable fields. Nil pointers leave the
// current value untouched.
type UpdateIssueInput struct {
	Title       *string
	Description *string
	PhotoURL    *string
	Latitude    *float64
	Longitude   *float64
	Address     *string
	Status      *string
	Resolution  *string
}

// Update applies a partial update. Any status from the lifecycle set is
// accepted; there is no forced ordering between states.
func (s *IssueService) Update(ctx context.Context, actor AuthUser, id string, in UpdateIssueInput) (*domain.Issue, error) {
	is, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if is == nil {
		return nil, fmt.Errorf("%w: issue %s", ErrNotFound, id)
	}
	if !s.canModify(actor, is) {
		return nil, ErrForbidden
	}

	oldStatus := is.Status
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, fmt.Errorf("%w: title", ErrMissingFields)
		}
		if len(t) > domain.MaxIssueTitleLen {
			return nil, fmt.Errorf("%w: title exceeds %d characters", ErrValidation, domain.MaxIssueTitleLen)
		}
		is.Title = t
	}
	if in.Description != nil {
		if strings.TrimSpace(*in.Description) == "" {
			return nil, fmt.Errorf("%w: description", ErrMissingFields)
		}
		is.Description = *in.Description
	}
	if in.PhotoURL != nil {
		is.PhotoURL = in.PhotoURL
	}
	if in.Latitude != nil {
		is.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		is.Longitude = *in.Longitude
	}
	if in.Address != nil {
		is.Address = in.Address
	}
	if in.Resolution != nil {
		is.Resolution = in.Resolution
	}
	if in.Status != nil {
		st, ok := domain.ParseIssueStatus(*in.Status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *in.Status)
		}
		is.Status = st
	}

	if err := s.store.Update(ctx, is); err != nil {
		return nil, err
	}

	if is.Status != oldStatus {
		evt := queue.IssueStatusChanged{
			IssueID:   is.ID,
			OldStatus: string(oldStatus),
			NewStatus: string(is.Status),
			ChangedBy: actor.ID,
		}
		if err := s.events.Publish(ctx, queue.KeyIssueStatusChanged, evt, requestid.From(ctx)); err != nil {
			log.From(ctx).Warn("issue.status_changed publish failed", zap.Error(err))
		}
	}
	return is, nil
}

// Delete removes an issue the actor is allowed to manage.
func (s *IssueService) Delete(ctx context.Context, actor AuthUser, id string) error {
	is, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if is == nil {
		return fmt.Errorf("%w: issue %s", ErrNotFound, id)
	}
	if !s.canModify(actor, is) {
		return ErrForbidden
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: issue %s", ErrNotFound, id)
	}
	return nil
}

// List returns all issues for Authority and Investor users, and only the
// actor's own reports otherwise.
func (s *IssueService) List(ctx context.Context, actor AuthUser) ([]domain.Issue, error) {
	if actor.UserType.CanViewAllIssues() {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByReporter(ctx, actor.ID)
}

func (s *IssueService) canModify(actor AuthUser, is *domain.Issue) bool {
	return actor.UserType == domain.Authority || is.ReporterID == actor.ID
}
