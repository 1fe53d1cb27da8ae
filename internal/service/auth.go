package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ipanov/UrbanAI-sub002/internal/config"
	"github.com/ipanov/UrbanAI-sub002/internal/domain"
	"github.com/ipanov/UrbanAI-sub002/internal/log"
	"github.com/ipanov/UrbanAI-sub002/internal/oauth"
	"github.com/ipanov/UrbanAI-sub002/internal/queue"
	"github.com/ipanov/UrbanAI-sub002/internal/repo"
	"github.com/ipanov/UrbanAI-sub002/internal/requestid"
	"github.com/ipanov/UrbanAI-sub002/internal/security"
)

// UserStore is the identity persistence the auth flow needs.
type UserStore interface {
	Create(ctx context.Context, u *domain.User, login *domain.ExternalLogin) error
	GetByExternalLogin(ctx context.Context, provider, externalID string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// TermsStore serves and records terms-of-service agreements.
type TermsStore interface {
	Current(ctx context.Context) (*domain.TermsOfService, error)
	GetByVersion(ctx context.Context, version string) (*domain.TermsOfService, error)
	RecordAcceptance(ctx context.Context, a *domain.UserTermsOfService) error
}

// AuthStateStore holds one-shot OAuth flow state.
type AuthStateStore interface {
	SaveState(ctx context.Context, state string, st repo.AuthState) error
	ConsumeState(ctx context.Context, state string) (*repo.AuthState, error)
}

// AuthService runs the OAuth login and registration flows. It never stores
// provider tokens or profile data; only the stable external id survives the
// exchange.
type AuthService struct {
	users     UserStore
	terms     TermsStore
	states    AuthStateStore
	providers *oauth.Registry
	events    queue.Publisher
	cfg       *config.Config
}

func NewAuthService(users UserStore, terms TermsStore, states AuthStateStore,
	providers *oauth.Registry, events queue.Publisher, cfg *config.Config) *AuthService {
	return &AuthService{
		users: users, terms: terms, states: states,
		providers: providers, events: events, cfg: cfg,
	}
}

// ExchangeResult is the outcome of redeeming a provider token. Either Token
// is set, or RequiresRegistration is true and Profile carries the one-time
// display data for the consent screen.
type ExchangeResult struct {
	Token                string
	RequiresRegistration bool
	Provider             string
	Profile              *oauth.UserInfo
}

// ExchangeToken validates a provider access token and, when the external
// identity is already registered, issues a session JWT. Unknown identities
// get a RequiresRegistration result and no database write.
func (s *AuthService) ExchangeToken(ctx context.Context, providerName, accessToken string) (*ExchangeResult, error) {
	p, err := oauth.ParseProvider(providerName)
	if err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, fmt.Errorf("%w: accessToken", ErrMissingFields)
	}

	info, err := s.resolveUserInfo(ctx, p, accessToken)
	if err != nil {
		return nil, err
	}
	return s.resultFor(ctx, p, info)
}

// RegisterInput is the payload for first-time registration. ExternalID is
// the id returned by a prior token exchange; AccessToken is an alternative
// for clients that skip that step, resolved against the provider.
type RegisterInput struct {
	Provider     string
	ExternalID   string
	AccessToken  string
	UserType     string
	TermsVersion string
	IPAddress    string
	UserAgent    string
}

// RegisterExternal creates the anonymous account for an external identity
// and returns a session JWT. The operation is idempotent: if the identity
// is already registered, including losing a concurrent registration race,
// the existing account is used.
func (s *AuthService) RegisterExternal(ctx context.Context, in RegisterInput) (string, *domain.User, error) {
	p, err := oauth.ParseProvider(in.Provider)
	if err != nil {
		return "", nil, err
	}
	userType := domain.Citizen
	if in.UserType != "" {
		ut, ok := domain.ParseUserType(in.UserType)
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown user type %q", ErrValidation, in.UserType)
		}
		userType = ut
	}

	var info *oauth.UserInfo
	switch {
	case in.ExternalID != "":
		info = &oauth.UserInfo{ExternalID: in.ExternalID}
	case in.AccessToken != "":
		info, err = s.resolveUserInfo(ctx, p, in.AccessToken)
		if err != nil {
			return "", nil, err
		}
	default:
		return "", nil, fmt.Errorf("%w: externalId", ErrMissingFields)
	}

	termsVersion, err := s.resolveTermsVersion(ctx, in.TermsVersion)
	if err != nil {
		return "", nil, err
	}

	if u, err := s.users.GetByExternalLogin(ctx, p.String(), info.ExternalID); err != nil {
		return "", nil, err
	} else if u != nil {
		tok, err := s.makeToken(u)
		return tok, u, err
	}

	u := &domain.User{
		Username:              domain.Username(p.String(), info.ExternalID),
		Role:                  "User",
		UserType:              userType,
		RegistrationCompleted: true,
	}
	login := &domain.ExternalLogin{Provider: p.String(), ExternalID: info.ExternalID}

	err = s.users.Create(ctx, u, login)
	if errors.Is(err, repo.ErrDuplicate) {
		// Lost the race: the unique (provider, external_id) index is the
		// single source of truth, so re-read the winner's row.
		u, err = s.users.GetByExternalLogin(ctx, p.String(), info.ExternalID)
		if err != nil {
			return "", nil, err
		}
		if u == nil {
			return "", nil, fmt.Errorf("external login vanished after duplicate insert")
		}
		tok, err := s.makeToken(u)
		return tok, u, err
	}
	if err != nil {
		return "", nil, err
	}

	s.recordTermsAcceptance(ctx, u.ID, termsVersion, in)

	evt := queue.UserRegistered{UserID: u.ID, Username: u.Username, UserType: u.UserType.String()}
	if err := s.events.Publish(ctx, queue.KeyUserRegistered, evt, requestid.From(ctx)); err != nil {
		log.From(ctx).Warn("user.registered publish failed", zap.Error(err))
	}

	tok, err := s.makeToken(u)
	return tok, u, err
}

// BeginAuthorization starts the redirect flow: it mints state and PKCE
// material, parks them in the state store and returns the consent URL.
func (s *AuthService) BeginAuthorization(ctx context.Context, providerName string) (string, error) {
	p, err := oauth.ParseProvider(providerName)
	if err != nil {
		return "", err
	}
	client, err := s.providers.Client(p)
	if err != nil {
		return "", err
	}

	state, err := security.GenerateState()
	if err != nil {
		return "", err
	}
	verifier, err := security.GenerateCodeVerifier()
	if err != nil {
		return "", err
	}
	if err := s.states.SaveState(ctx, state, repo.AuthState{
		Provider: p.String(),
		Verifier: verifier,
	}); err != nil {
		return "", err
	}
	return client.AuthorizationURL(state, security.CodeChallengeS256(verifier)), nil
}

// CompleteAuthorization redeems the callback. The state is consumed before
// anything else, so a replayed callback fails closed.
func (s *AuthService) CompleteAuthorization(ctx context.Context, code, state string) (*ExchangeResult, error) {
	if code == "" || state == "" {
		return nil, fmt.Errorf("%w: code, state", ErrMissingFields)
	}
	st, err := s.states.ConsumeState(ctx, state)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("%w: unknown or expired state", ErrValidation)
	}

	p, err := oauth.ParseProvider(st.Provider)
	if err != nil {
		return nil, err
	}
	client, err := s.providers.Client(p)
	if err != nil {
		return nil, err
	}
	tok, err := client.Exchange(ctx, code, st.Verifier)
	if err != nil {
		return nil, err
	}
	info, err := client.FetchUserInfo(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	return s.resultFor(ctx, p, info)
}

// CurrentTerms returns the active terms version, or ErrNotFound.
func (s *AuthService) CurrentTerms(ctx context.Context) (*domain.TermsOfService, error) {
	t, err := s.terms.Current(ctx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: no active terms of service", ErrNotFound)
	}
	return t, nil
}

func (s *AuthService) resolveUserInfo(ctx context.Context, p oauth.Provider, accessToken string) (*oauth.UserInfo, error) {
	if s.cfg.AllowMockTokens && oauth.IsMockToken(accessToken) {
		return oauth.ResolveMockToken(accessToken), nil
	}
	client, err := s.providers.Client(p)
	if err != nil {
		return nil, err
	}
	return client.FetchUserInfo(ctx, accessToken)
}

func (s *AuthService) resultFor(ctx context.Context, p oauth.Provider, info *oauth.UserInfo) (*ExchangeResult, error) {
	u, err := s.users.GetByExternalLogin(ctx, p.String(), info.ExternalID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return &ExchangeResult{
			RequiresRegistration: true,
			Provider:             p.String(),
			Profile:              info,
		}, nil
	}
	tok, err := s.makeToken(u)
	if err != nil {
		return nil, err
	}
	return &ExchangeResult{Token: tok, Provider: p.String()}, nil
}

func (s *AuthService) makeToken(u *domain.User) (string, error) {
	return security.MakeAccess([]byte(s.cfg.JWTSecret), s.cfg.JWTIssuer, s.cfg.JWTAudience, u, s.cfg.AccessTTL)
}

// resolveTermsVersion checks an explicitly accepted version before any
// account write. Empty means "whatever is current", resolved at record time.
func (s *AuthService) resolveTermsVersion(ctx context.Context, version string) (string, error) {
	if version == "" {
		return "", nil
	}
	t, err := s.terms.GetByVersion(ctx, version)
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", fmt.Errorf("%w: unknown terms version %q", ErrValidation, version)
	}
	return t.Version, nil
}

func (s *AuthService) recordTermsAcceptance(ctx context.Context, userID, version string, in RegisterInput) {
	if version == "" {
		t, err := s.terms.Current(ctx)
		if err != nil || t == nil {
			return
		}
		version = t.Version
	}
	a := &domain.UserTermsOfService{UserID: userID, Version: version}
	if in.IPAddress != "" {
		a.IPAddress = &in.IPAddress
	}
	if in.UserAgent != "" {
		a.UserAgent = &in.UserAgent
	}
	if err := s.terms.RecordAcceptance(ctx, a); err != nil {
		log.From(ctx).Warn("terms acceptance record failed", zap.Error(err))
	}
}
