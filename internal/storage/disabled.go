package storage

import (
	"context"
	"fmt"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/log"
	"chat-realtime/internal/models"
)

// Disabled is used when no bucket is configured. Uploads fail and deletes
// are logged and skipped.
type Disabled struct {
	Reason string
}

func (d Disabled) Upload(context.Context, string, File) (models.Attachment, error) {
	return models.Attachment{}, fmt.Errorf("%w: storage disabled: %s", apperr.ErrUploadFailure, d.Reason)
}

func (d Disabled) Delete(ctx context.Context, storageIDs []string) error {
	if len(storageIDs) > 0 {
		l := log.Ctx(ctx)
		l.Warn().Strs("storage_ids", storageIDs).Str("reason", d.Reason).Msg("storage disabled, skipping delete")
	}
	return nil
}
