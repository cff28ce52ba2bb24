// Package storage uploads chat avatars and attachments to object storage.
package storage

import (
	"context"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"chat-realtime/internal/models"
)

const (
	FolderAttachments = "attachments"
	FolderAvatars     = "avatars"
)

// File is one upload. Body is rewound after type detection.
type File struct {
	Name string
	Size int64
	Body io.ReadSeeker
}

// Store is the object-storage collaborator.
type Store interface {
	Upload(ctx context.Context, folder string, f File) (models.Attachment, error)
	Delete(ctx context.Context, storageIDs []string) error
}

// Kind is the detected file type of an upload.
type Kind struct {
	MIME  string
	Ext   string
	Label string
}

// Classify sniffs the content of r and rewinds it.
func Classify(r io.ReadSeeker) (Kind, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return Kind{}, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Kind{}, err
	}

	ext := strings.TrimPrefix(mt.Extension(), ".")
	if ext == "" {
		ext = "unknown"
	}
	return Kind{MIME: mt.String(), Ext: ext, Label: label(ext)}, nil
}

func label(ext string) string {
	switch ext {
	case "jpg", "jpeg", "png", "gif":
		return "image"
	case "mp4", "mp3":
		return "video"
	case "pdf":
		return "pdf"
	case "docx":
		return "docx"
	default:
		return "Unknown"
	}
}
