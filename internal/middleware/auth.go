package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/auth"
	"chat-realtime/internal/log"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (int, error)
}

// AuthMiddleware validates the Authorization header and stores the caller's
// id under "userID".
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.TokenFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		userID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, apperr.ErrUnauthenticated) {
				l := log.Ctx(c.Request.Context())
				l.Error().Err(err).Msg("token verification failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
