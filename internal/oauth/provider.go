// Package oauth talks to the external identity providers. Only the stable
// provider user id and a few display fields are ever read from them; nothing
// fetched here is persisted except the id.
package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrUpstreamProvider    = errors.New("upstream provider error")
	ErrTokenExchange       = fmt.Errorf("token exchange failed: %w", ErrUpstreamProvider)
	ErrUserInfoFetch       = fmt.Errorf("userinfo fetch failed: %w", ErrUpstreamProvider)
)

type Provider int

const (
	Google Provider = iota + 1
	Microsoft
	Facebook
)

func (p Provider) String() string {
	switch p {
	case Google:
		return "google"
	case Microsoft:
		return "microsoft"
	case Facebook:
		return "facebook"
	}
	return fmt.Sprintf("provider(%d)", int(p))
}

func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "google":
		return Google, nil
	case "microsoft":
		return Microsoft, nil
	case "facebook":
		return Facebook, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
}

func (p Provider) endpoint() oauth2.Endpoint {
	switch p {
	case Google:
		return google.Endpoint
	case Microsoft:
		return microsoft.AzureADEndpoint("common")
	case Facebook:
		return facebook.Endpoint
	}
	return oauth2.Endpoint{}
}

func (p Provider) scopes() []string {
	switch p {
	case Google:
		return []string{"openid", "profile", "email"}
	case Microsoft:
		return []string{"openid", "profile", "email", "User.Read"}
	case Facebook:
		return []string{"public_profile", "email"}
	}
	return nil
}

func (p Provider) userInfoURL() string {
	switch p {
	case Google:
		return "https://www.googleapis.com/oauth2/v2/userinfo"
	case Microsoft:
		return "https://graph.microsoft.com/v1.0/me"
	case Facebook:
		return "https://graph.facebook.com/me?fields=id,name,email,picture"
	}
	return ""
}

// supportsPKCE: Facebook's token endpoint rejects code_verifier for
// confidential clients, so PKCE params are only sent to the other two.
func (p Provider) supportsPKCE() bool {
	return p != Facebook
}

// UserInfo is the normalized profile. ExternalID is the only field that
// participates in identity; the rest is surfaced once during registration
// and then dropped.
type UserInfo struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	PictureURL string `json:"picture_url,omitempty"`
}

func (p Provider) decodeUserInfo(body []byte) (*UserInfo, error) {
	switch p {
	case Google:
		var v struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Email   string `json:"email"`
			Picture string `json:"picture"`
		}
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		return &UserInfo{ExternalID: v.ID, Name: v.Name, Email: v.Email, PictureURL: v.Picture}, nil
	case Microsoft:
		var v struct {
			ID                string `json:"id"`
			DisplayName       string `json:"displayName"`
			Mail              string `json:"mail"`
			UserPrincipalName string `json:"userPrincipalName"`
		}
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		email := v.Mail
		if email == "" {
			email = v.UserPrincipalName
		}
		return &UserInfo{ExternalID: v.ID, Name: v.DisplayName, Email: email}, nil
	case Facebook:
		var v struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Email   string `json:"email"`
			Picture struct {
				Data struct {
					URL string `json:"url"`
				} `json:"data"`
			} `json:"picture"`
		}
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		return &UserInfo{ExternalID: v.ID, Name: v.Name, Email: v.Email, PictureURL: v.Picture.Data.URL}, nil
	}
	return nil, ErrUnsupportedProvider
}
