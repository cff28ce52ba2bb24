package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"chat-realtime/internal/membership"
	"chat-realtime/internal/storage"
	"chat-realtime/internal/telemetry"
)

// maxMultipartMemory bounds the in-memory part of multipart bodies; larger
// files spill to disk.
const maxMultipartMemory = 32 << 20

// GroupHandler serves group creation and listing.
type GroupHandler struct {
	chats ChatService
	audit *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(chats ChatService, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{chats: chats, audit: audit}
}

// CreateGroup handles POST /groups. The body is multipart: name, members
// (repeated or comma separated) and an optional avatar file.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart body"})
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		emitAudit(c, h.audit, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	members, err := parseIDs(c.PostFormArray("members"))
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "members must be user ids"})
		return
	}

	in := membership.GroupInput{Name: name, Members: members}
	if header, err := c.FormFile("avatar"); err == nil {
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable avatar"})
			return
		}
		defer file.Close()
		in.Avatar = &storage.File{Name: header.Filename, Size: header.Size, Body: file}
	}

	chat, err := h.chats.CreateGroup(c.Request.Context(), c.GetInt("userID"), in)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "create group failed: "+err.Error())
		respondError(c, err)
		return
	}

	emitAudit(c, h.audit, "INFO", "Group created")
	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// ListGroups returns the groups the caller created.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.chats.ListMyGroups(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func parseIDs(values []string) ([]int, error) {
	var ids []int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
