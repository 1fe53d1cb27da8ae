package service_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ipanov/UrbanAI-sub002/internal/domain"
	"github.com/ipanov/UrbanAI-sub002/internal/repo"
)

type memUsers struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	logins map[string]string // provider|externalID -> userID

	// hideLoginOnce makes the first lookup miss, to reproduce the window
	// where two registrations race for the same external identity.
	hideLoginOnce bool
	createCalls   int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*domain.User{}, logins: map[string]string{}}
}

func loginKey(provider, externalID string) string { return provider + "|" + externalID }

func (m *memUsers) Create(_ context.Context, u *domain.User, login *domain.ExternalLogin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	key := loginKey(login.Provider, login.ExternalID)
	if _, exists := m.logins[key]; exists {
		return repo.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.logins[key] = u.ID
	return nil
}

func (m *memUsers) GetByExternalLogin(_ context.Context, provider, externalID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideLoginOnce {
		m.hideLoginOnce = false
		return nil, nil
	}
	id, ok := m.logins[loginKey(provider, externalID)]
	if !ok {
		return nil, nil
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memTerms struct {
	mu          sync.Mutex
	current     *domain.TermsOfService
	versions    map[string]*domain.TermsOfService
	acceptances []domain.UserTermsOfService
}

func (m *memTerms) Current(context.Context) (*domain.TermsOfService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

func (m *memTerms) GetByVersion(_ context.Context, version string) (*domain.TermsOfService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.Version == version {
		return m.current, nil
	}
	if t, ok := m.versions[version]; ok {
		return t, nil
	}
	return nil, nil
}

func (m *memTerms) RecordAcceptance(_ context.Context, a *domain.UserTermsOfService) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acceptances = append(m.acceptances, *a)
	return nil
}

type memStates struct {
	mu     sync.Mutex
	states map[string]repo.AuthState
}

func newMemStates() *memStates { return &memStates{states: map[string]repo.AuthState{}} }

func (m *memStates) SaveState(_ context.Context, state string, st repo.AuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = st
	return nil
}

func (m *memStates) ConsumeState(_ context.Context, state string) (*repo.AuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[state]
	if !ok {
		return nil, nil
	}
	delete(m.states, state)
	return &st, nil
}

type publishedEvent struct {
	Key   string
	Event any
}

type memEvents struct {
	mu        sync.Mutex
	published []publishedEvent
}

func (m *memEvents) Publish(_ context.Context, key string, event any, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedEvent{Key: key, Event: event})
	return nil
}

func (m *memEvents) Close() error { return nil }

func (m *memEvents) byKey(key string) []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []publishedEvent
	for _, e := range m.published {
		if e.Key == key {
			out = append(out, e)
		}
	}
	return out
}

type memIssues struct {
	mu   sync.Mutex
	byID map[string]*domain.Issue
}

func newMemIssues() *memIssues { return &memIssues{byID: map[string]*domain.Issue{}} }

func (m *memIssues) Create(_ context.Context, is *domain.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if is.ID == "" {
		is.ID = uuid.NewString()
	}
	cp := *is
	m.byID[is.ID] = &cp
	return nil
}

func (m *memIssues) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	is, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *is
	return &cp, nil
}

func (m *memIssues) Update(_ context.Context, is *domain.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *is
	m.byID[is.ID] = &cp
	return nil
}

func (m *memIssues) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

func (m *memIssues) ListAll(context.Context) ([]domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Issue, 0, len(m.byID))
	for _, is := range m.byID {
		out = append(out, *is)
	}
	return out, nil
}

func (m *memIssues) ListByReporter(_ context.Context, reporterID string) ([]domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Issue
	for _, is := range m.byID {
		if is.ReporterID == reporterID {
			out = append(out, *is)
		}
	}
	return out, nil
}
