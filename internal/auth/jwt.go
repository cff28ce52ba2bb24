// Package auth resolves bearer tokens issued by the auth service to user ids.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/models"
)

var (
	ErrMissingToken = fmt.Errorf("%w: missing token", apperr.ErrUnauthenticated)
	ErrInvalidToken = fmt.Errorf("%w: invalid token", apperr.ErrUnauthenticated)
	ErrExpiredToken = fmt.Errorf("%w: token has expired", apperr.ErrUnauthenticated)
	ErrUnknownUser  = fmt.Errorf("%w: user does not exist", apperr.ErrUnauthenticated)
)

// Claims is the payload of an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// UserLookup confirms that a token subject still exists.
type UserLookup interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
}

// Verifier validates HS256 tokens signed with the shared secret.
type Verifier struct {
	secret []byte
	users  UserLookup
}

// NewVerifier builds a Verifier. users may be nil, in which case any valid
// token is accepted.
func NewVerifier(secret string, users UserLookup) *Verifier {
	return &Verifier{secret: []byte(secret), users: users}
}

// Verify returns the user id carried by token.
func (v *Verifier) Verify(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}

	if v.users != nil {
		if _, err := v.users.GetUser(ctx, claims.UserID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return 0, ErrUnknownUser
			}
			return 0, err
		}
	}
	return claims.UserID, nil
}

// Sign issues a token for userID. The auth service owns issuance; this is
// used by tooling and tests.
func (v *Verifier) Sign(userID int, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// TokenFromRequest reads a bearer token from the Authorization header, or
// from the token query parameter for browser websocket clients.
func TokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", fmt.Errorf("%w: invalid authorization header", apperr.ErrUnauthenticated)
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}
