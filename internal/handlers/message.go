package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-realtime/internal/storage"
)

// MessageHandler serves message endpoints.
type MessageHandler struct {
	messages MessageService
}

func NewMessageHandler(messages MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type contentRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage handles POST /chats/:chat_id/messages.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.SendMessage(c.Request.Context(), chatID, c.GetInt("userID"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// SendAttachments handles POST /chats/:chat_id/attachments with files[] and
// an optional content field.
func (h *MessageHandler) SendAttachments(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart body"})
		return
	}

	files, release, err := formFiles(form, "files")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer release()

	msg, err := h.messages.SendAttachments(c.Request.Context(), chatID, c.GetInt("userID"), c.PostForm("content"), files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// ListMessages handles GET /chats/:chat_id/messages?page=N.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}

	result, err := h.messages.ListMessages(c.Request.Context(), chatID, c.GetInt("userID"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MessageHandler) SearchMessages(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	msgs, err := h.messages.SearchMessages(c.Request.Context(), chatID, c.GetInt("userID"), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// UpdateMessage handles PUT /messages/:message_id.
func (h *MessageHandler) UpdateMessage(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.UpdateMessage(c.Request.Context(), messageID, c.GetInt("userID"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// DeleteMessage handles DELETE /messages/:message_id. The message is kept
// with its content cleared.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}
	msg, err := h.messages.DeleteMessage(c.Request.Context(), messageID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// formFiles opens every file under field. release closes them.
func formFiles(form *multipart.Form, field string) ([]storage.File, func(), error) {
	var opened []multipart.File
	release := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	if form == nil {
		return nil, release, nil
	}

	files := make([]storage.File, 0, len(form.File[field]))
	for _, header := range form.File[field] {
		body, err := header.Open()
		if err != nil {
			release()
			return nil, func() {}, err
		}
		opened = append(opened, body)
		files = append(files, storage.File{Name: header.Filename, Size: header.Size, Body: body})
	}
	return files, release, nil
}
