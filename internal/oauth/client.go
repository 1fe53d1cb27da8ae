package oauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/ipanov/UrbanAI-sub002/internal/config"
)

// Client performs the authorization-code flow for one provider.
type Client struct {
	provider    Provider
	cfg         *oauth2.Config
	userInfoURL string
	http        *http.Client
}

func NewClient(p Provider, cc config.OAuthClient) *Client {
	return &Client{
		provider: p,
		cfg: &oauth2.Config{
			ClientID:     cc.ClientID,
			ClientSecret: cc.ClientSecret,
			RedirectURL:  cc.RedirectURI,
			Endpoint:     p.endpoint(),
			Scopes:       p.scopes(),
		},
		userInfoURL: p.userInfoURL(),
		http:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Provider() Provider { return c.provider }

// AuthorizationURL builds the provider consent URL. The S256 challenge is
// attached for providers that honor PKCE.
func (c *Client) AuthorizationURL(state, codeChallenge string) string {
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if c.provider.supportsPKCE() && codeChallenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", codeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}
	return c.cfg.AuthCodeURL(state, opts...)
}

// Exchange redeems the authorization code, sending the verifier when the
// provider expects PKCE.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	var opts []oauth2.AuthCodeOption
	if c.provider.supportsPKCE() && codeVerifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	}
	tok, err := c.cfg.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", c.provider, ErrTokenExchange, err)
	}
	return tok, nil
}

// FetchUserInfo calls the provider profile endpoint with the access token.
func (c *Client) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", c.provider, ErrUserInfoFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", c.provider, ErrUserInfoFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: status %d", c.provider, ErrUserInfoFetch, resp.StatusCode)
	}

	info, err := c.provider.decodeUserInfo(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", c.provider, ErrUserInfoFetch, err)
	}
	if info.ExternalID == "" {
		return nil, fmt.Errorf("%s: %w: empty subject id", c.provider, ErrUserInfoFetch)
	}
	return info, nil
}
