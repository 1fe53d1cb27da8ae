package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ipanov/UrbanAI-sub002/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the access-token payload. It carries only the anonymous
// identity: no email, no display name.
type Claims struct {
	UID      string          `json:"uid"`
	Username string          `json:"username"`
	Role     string          `json:"role"`
	UserType domain.UserType `json:"user_type"`
	jwt.RegisteredClaims
}

// MakeAccess signs an HS256 access token for the user.
func MakeAccess(secret []byte, issuer, audience string, u *domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:      u.ID,
		Username: u.Username,
		Role:     u.Role,
		UserType: u.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return s, nil
}

// ParseAccess verifies signature, expiry, issuer and audience.
func ParseAccess(secret []byte, issuer, audience, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
