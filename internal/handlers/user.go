package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the user directory.
type UserHandler struct {
	directory DirectoryService
}

func NewUserHandler(directory DirectoryService) *UserHandler {
	return &UserHandler{directory: directory}
}

// Me handles GET /users/me.
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.directory.Profile(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Search handles GET /users/search?name=.
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.directory.SearchUsers(c.Request.Context(), c.GetInt("userID"), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SearchNonContacts handles GET /users/non-contacts?name=: users the caller
// has no private chat with.
func (h *UserHandler) SearchNonContacts(c *gin.Context) {
	users, err := h.directory.SearchNonContacts(c.Request.Context(), c.GetInt("userID"), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SearchNonMembers handles GET /chats/:chat_id/non-members?name=.
func (h *UserHandler) SearchNonMembers(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	users, err := h.directory.SearchNonMembers(c.Request.Context(), chatID, c.GetInt("userID"), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SearchMembers handles GET /chats/:chat_id/members/search?name=.
func (h *UserHandler) SearchMembers(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	users, err := h.directory.SearchGroupMembers(c.Request.Context(), chatID, c.GetInt("userID"), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
