// internal/ws/auth.go
package ws

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing handshake token")
	ErrInvalidToken = errors.New("invalid handshake token")
)

// Authenticator resolves the transport id of an incoming websocket handshake.
// Without a secret every connection gets a fresh anonymous id; with one, the
// subject of an HS256 token becomes the id.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator verifies tokens signed with secret; an empty secret means anonymous ids.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Anonymous reports whether handshakes are accepted without a token.
func (a *Authenticator) Anonymous() bool {
	return len(a.secret) == 0
}

// Identify returns the id for the handshake request r. The token is read from
// the "token" query parameter or a Bearer Authorization header.
func (a *Authenticator) Identify(r *http.Request) (string, error) {
	if a.Anonymous() {
		return uuid.NewString(), nil
	}
	raw := r.URL.Query().Get("token")
	if raw == "" {
		if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			raw = bearer
		}
	}
	if raw == "" {
		return "", ErrMissingToken
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Issue signs a token for subject valid for ttl.
func (a *Authenticator) Issue(subject string, ttl time.Duration) (string, error) {
	if a.Anonymous() {
		return "", errors.New("no signing secret configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
