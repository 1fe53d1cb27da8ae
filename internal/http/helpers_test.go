package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ipanov/UrbanAI-sub002/internal/config"
	"github.com/ipanov/UrbanAI-sub002/internal/domain"
	api "github.com/ipanov/UrbanAI-sub002/internal/http"
	"github.com/ipanov/UrbanAI-sub002/internal/oauth"
	"github.com/ipanov/UrbanAI-sub002/internal/queue"
	"github.com/ipanov/UrbanAI-sub002/internal/repo"
	"github.com/ipanov/UrbanAI-sub002/internal/service"
)

type memUsers struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	logins map[string]string
}

func (m *memUsers) Create(_ context.Context, u *domain.User, login *domain.ExternalLogin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := login.Provider + "|" + login.ExternalID
	if _, ok := m.logins[key]; ok {
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
	id, ok := m.logins[provider+"|"+externalID]
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

type memTerms struct {
	mu      sync.Mutex
	current *domain.TermsOfService
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
	return nil, nil
}

func (m *memTerms) RecordAcceptance(context.Context, *domain.UserTermsOfService) error { return nil }

type memStates struct {
	mu     sync.Mutex
	states map[string]repo.AuthState
}

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

type memIssues struct {
	mu   sync.Mutex
	byID map[string]*domain.Issue
}

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
	out := []domain.Issue{}
	for _, is := range m.byID {
		if is.ReporterID == reporterID {
			out = append(out, *is)
		}
	}
	return out, nil
}

type memRegs struct {
	mu   sync.Mutex
	byID map[string]*domain.Regulation
}

func (m *memRegs) Insert(_ context.Context, reg *domain.Regulation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	cp := *reg
	m.byID[reg.ID] = &cp
	return nil
}

func (m *memRegs) GetByID(_ context.Context, id string) (*domain.Regulation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *reg
	return &cp, nil
}

func (m *memRegs) Update(_ context.Context, reg *domain.Regulation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[reg.ID]; !ok {
		return false, nil
	}
	cp := *reg
	m.byID[reg.ID] = &cp
	return true, nil
}

func (m *memRegs) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

func (m *memRegs) GetByLocation(_ context.Context, location string) ([]domain.Regulation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Regulation{}
	for _, reg := range m.byID {
		if reg.Location == location {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (m *memRegs) GetByKeywords(_ context.Context, keywords []string) ([]domain.Regulation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Regulation{}
	for _, reg := range m.byID {
		for _, want := range keywords {
			for _, k := range reg.Keywords {
				if k == want {
					out = append(out, *reg)
				}
			}
		}
	}
	return out, nil
}

func (m *memRegs) Search(_ context.Context, q string) ([]domain.Regulation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q = strings.ToLower(q)
	out := []domain.Regulation{}
	for _, reg := range m.byID {
		if strings.Contains(strings.ToLower(reg.Title), q) ||
			strings.Contains(strings.ToLower(reg.Content), q) {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (m *memRegs) List(context.Context) ([]domain.Regulation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Regulation, 0, len(m.byID))
	for _, reg := range m.byID {
		out = append(out, *reg)
	}
	return out, nil
}

type testEnv struct {
	Router *gin.Engine
	Terms  *memTerms
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		JWTSecret:       "test-secret",
		JWTIssuer:       "UrbanAI",
		JWTAudience:     "UrbanAI",
		AccessTTL:       time.Hour,
		StateTTL:        10 * time.Minute,
		RateLimitPerMin: 1000,
		AllowMockTokens: true,
	}

	users := &memUsers{byID: map[string]*domain.User{}, logins: map[string]string{}}
	terms := &memTerms{}
	states := &memStates{states: map[string]repo.AuthState{}}
	events := queue.NewNoop()

	authSvc := service.NewAuthService(users, terms, states, oauth.NewRegistry(&cfg), events, &cfg)
	issueSvc := service.NewIssueService(&memIssues{byID: map[string]*domain.Issue{}}, events)
	regSvc := service.NewRegulationService(&memRegs{byID: map[string]*domain.Regulation{}})

	h := api.NewHandler(authSvc, issueSvc, regSvc, cfg, nil)
	return &testEnv{Router: api.NewRouter(h), Terms: terms}
}

func (e *testEnv) do(t *testing.T, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

// register returns a session token for a mock identity.
func (e *testEnv) register(t *testing.T, externalID, userType string) string {
	t.Helper()
	body := `{"provider":"google","accessToken":"mock:` + externalID + `","userType":"` + userType + `"}`
	w := e.do(t, "POST", "/api/auth/register-external", body, "")
	if w.Code != 200 {
		t.Fatalf("register-external: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("register resp: %v %s", err, w.Body.String())
	}
	return resp.Token
}
