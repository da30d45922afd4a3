package dto

import (
	"time"

	"github.com/storelink/transfer-api/internal/domain/entity"
)

// SyncEventResponse output for one outbox event, as seen by the admin surface.
type SyncEventResponse struct {
	ID             string    `json:"id"`
	DocumentType   string    `json:"document_type"`
	DocumentNumber int64     `json:"document_number"`
	TargetSystem   string    `json:"target_system"`
	Status         string    `json:"status"`
	Attempts       int       `json:"attempts"`
	NextAttemptAt  time.Time `json:"next_attempt_at"`
	LastError      string    `json:"last_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToSyncEventResponses maps outbox events to their response form.
func ToSyncEventResponses(events []*entity.SyncEvent) []SyncEventResponse {
	out := make([]SyncEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, SyncEventResponse{
			ID:             ev.ID,
			DocumentType:   ev.DocumentType,
			DocumentNumber: ev.DocumentNumber,
			TargetSystem:   ev.TargetSystem,
			Status:         ev.Status,
			Attempts:       ev.Attempts,
			NextAttemptAt:  ev.NextAttemptAt,
			LastError:      ev.LastError,
			CreatedAt:      ev.CreatedAt,
			UpdatedAt:      ev.UpdatedAt,
		})
	}
	return out
}
