package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-realtime/internal/telemetry"
)

// ChatHandler serves chat and membership endpoints.
type ChatHandler struct {
	chats ChatService
	audit *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chats ChatService, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{chats: chats, audit: audit}
}

// CreatePrivate handles POST /chats/private.
func (h *ChatHandler) CreatePrivate(c *gin.Context) {
	var req struct {
		ReceiverID int `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.chats.CreateOneToOne(c.Request.Context(), c.GetInt("userID"), req.ReceiverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// ListChats returns the caller's chats, most recently active first.
func (h *ChatHandler) ListChats(c *gin.Context) {
	chats, err := h.chats.ListMyChats(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetChat handles GET /chats/:chat_id.
func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	populate, _ := strconv.ParseBool(c.Query("populate"))

	details, err := h.chats.GetChat(c.Request.Context(), chatID, c.GetInt("userID"), populate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": details})
}

func (h *ChatHandler) ListMembers(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	list, err := h.chats.ListMembers(c.Request.Context(), chatID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// AddMembers handles PUT /chats/:chat_id/members.
func (h *ChatHandler) AddMembers(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	var req struct {
		Members []int `json:"members" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.chats.AddMembers(c.Request.Context(), chatID, c.GetInt("userID"), req.Members)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "add members failed: "+err.Error())
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "Members added")
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// RemoveMember handles DELETE /chats/:chat_id/members/:user_id.
func (h *ChatHandler) RemoveMember(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	target, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	chat, err := h.chats.RemoveMember(c.Request.Context(), chatID, c.GetInt("userID"), target)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "remove member failed: "+err.Error())
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "Member removed")
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// LeaveGroup handles DELETE /chats/:chat_id/leave.
func (h *ChatHandler) LeaveGroup(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	chat, err := h.chats.LeaveGroup(c.Request.Context(), chatID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "Left group")
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// Rename handles PUT /chats/:chat_id.
func (h *ChatHandler) Rename(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.chats.Rename(c.Request.Context(), chatID, c.GetInt("userID"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// DeleteChat handles DELETE /chats/:chat_id.
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	chat, err := h.chats.DeleteChat(c.Request.Context(), chatID, c.GetInt("userID"))
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "delete chat failed: "+err.Error())
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "Chat deleted")
	c.JSON(http.StatusOK, gin.H{"chat_id": chat.ID})
}
