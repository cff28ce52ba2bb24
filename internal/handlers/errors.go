package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/log"
)

// respondError writes err with the status of its kind. Errors outside the
// taxonomy are logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	if !apperr.Public(err) {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}

// pathID parses a positive integer path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
