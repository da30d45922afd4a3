package sync

import (
	"context"

	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/pkg/logger"
)

// LogAlerter is the default Alerter: a structured error log line that the
// alerting pipeline picks up.
type LogAlerter struct {
	log *logger.Logger
}

// NewLogAlerter builds the log-based alerter.
func NewLogAlerter(log *logger.Logger) *LogAlerter {
	return &LogAlerter{log: log}
}

// SyncFailedPermanently emits the operator alert for an exhausted event.
func (a *LogAlerter) SyncFailedPermanently(_ context.Context, event *entity.SyncEvent) {
	a.log.Error().
		Str("alert", "sync_failed_permanently").
		Str("document_type", event.DocumentType).
		Int64("document_number", event.DocumentNumber).
		Str("target_system", event.TargetSystem).
		Int("attempts", event.Attempts).
		Str("last_error", event.LastError).
		Msg("manual intervention required")
}
