package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
	"github.com/storelink/transfer-api/pkg/logger"
)

// Options tunes the dispatcher loop.
type Options struct {
	WorkerID    string
	BatchSize   int
	Interval    time.Duration
	LockTTL     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func (o *Options) defaults() {
	if o.WorkerID == "" {
		o.WorkerID = "dispatcher-" + time.Now().Format("20060102-150405.000")
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.Interval <= 0 {
		o.Interval = 2 * time.Second
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 30 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = 30 * time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 15 * time.Minute
	}
}

// Dispatcher drains the outbox: claims due events with SKIP LOCKED, posts each
// document to its target system and settles the event. Delivery is
// at-least-once; the targets' per-document idempotency makes that safe.
type Dispatcher struct {
	repo    repository.SyncEventRepository
	source  DocumentSource
	ledger  PostingLedger
	targets map[string]Target
	alerter Alerter
	log     *logger.Logger
	opts    Options
	now     func() time.Time
}

// NewDispatcher builds the dispatcher. now is injectable for tests; pass nil
// for time.Now.
func NewDispatcher(
	repo repository.SyncEventRepository,
	source DocumentSource,
	ledger PostingLedger,
	targets []Target,
	alerter Alerter,
	log *logger.Logger,
	opts Options,
	now func() time.Time,
) *Dispatcher {
	opts.defaults()
	if now == nil {
		now = time.Now
	}
	byName := make(map[string]Target, len(targets))
	for _, t := range targets {
		byName[t.System()] = t
	}
	return &Dispatcher{
		repo:    repo,
		source:  source,
		ledger:  ledger,
		targets: byName,
		alerter: alerter,
		log:     log,
		opts:    opts,
		now:     now,
	}
}

// Run loops until ctx is cancelled, processing one claimed batch per tick.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info().Str("worker_id", d.opts.WorkerID).Msg("sync dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("sync dispatcher stopped")
			return
		default:
		}
		if n := d.ProcessOnce(ctx); n > 0 {
			// Keep draining while there is work.
			continue
		}
		select {
		case <-ctx.Done():
			d.log.Info().Msg("sync dispatcher stopped")
			return
		case <-time.After(d.opts.Interval):
		}
	}
}

// ProcessOnce claims and settles one batch, returning the number of events
// processed. Exported for tests and for a drain-on-demand admin call.
func (d *Dispatcher) ProcessOnce(ctx context.Context) int {
	events, err := d.repo.ClaimDue(ctx, d.opts.WorkerID, d.opts.BatchSize, d.opts.LockTTL)
	if err != nil {
		d.log.Error().Err(err).Msg("claim sync events")
		return 0
	}
	for _, event := range events {
		d.process(ctx, event)
	}
	return len(events)
}

func (d *Dispatcher) process(ctx context.Context, event *entity.SyncEvent) {
	res := d.deliver(ctx, event)
	switch res.Outcome {
	case OutcomeAck:
		if err := d.ledger.MarkPosted(ctx, event.DocumentType, event.DocumentNumber, event.TargetSystem, true); err != nil {
			// The flag will converge on the next attempt; leave the event open.
			d.log.Error().Err(err).Str("event", event.Key()).Msg("mark document posted")
			d.retry(ctx, event, "mark posted: "+err.Error())
			return
		}
		if err := d.repo.MarkPosted(ctx, event.ID); err != nil {
			d.log.Error().Err(err).Str("event", event.Key()).Msg("settle sync event")
			return
		}
		d.log.Info().Str("event", event.Key()).Int("attempts", event.Attempts+1).Msg("document posted")
	case OutcomeTransient:
		d.retry(ctx, event, res.Detail)
	case OutcomeTerminal:
		d.terminal(ctx, event, res.Detail)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event *entity.SyncEvent) Result {
	target, ok := d.targets[event.TargetSystem]
	if !ok {
		return Result{Outcome: OutcomeTerminal, Detail: fmt.Sprintf("no target registered for system %s", event.TargetSystem)}
	}
	switch event.DocumentType {
	case entity.DocumentGoodsIssue:
		note, err := d.source.GetGoodsIssue(ctx, event.DocumentNumber)
		if err != nil {
			return loadFailure(err)
		}
		return target.PostGoodsIssue(ctx, note)
	case entity.DocumentTransferReceipt:
		note, err := d.source.GetTransferReceipt(ctx, event.DocumentNumber)
		if err != nil {
			return loadFailure(err)
		}
		return target.PostTransferReceipt(ctx, note)
	default:
		return Result{Outcome: OutcomeTerminal, Detail: fmt.Sprintf("unknown document type %s", event.DocumentType)}
	}
}

// loadFailure classifies a document load error. A missing document cannot be
// fixed by retrying.
func loadFailure(err error) Result {
	if errors.Is(err, domain.ErrNotFound) {
		return Result{Outcome: OutcomeTerminal, Detail: "document not found: " + err.Error()}
	}
	return Result{Outcome: OutcomeTransient, Detail: "load document: " + err.Error()}
}

func (d *Dispatcher) retry(ctx context.Context, event *entity.SyncEvent, detail string) {
	attempts := event.Attempts + 1
	if attempts >= d.opts.MaxAttempts {
		d.terminalWithAttempts(ctx, event, attempts, detail)
		return
	}
	next := d.now().Add(d.backoff(attempts))
	if err := d.repo.MarkRetry(ctx, event.ID, attempts, next, detail); err != nil {
		d.log.Error().Err(err).Str("event", event.Key()).Msg("mark sync event for retry")
		return
	}
	d.log.Warn().
		Str("event", event.Key()).
		Int("attempts", attempts).
		Time("next_attempt_at", next).
		Str("error", detail).
		Msg("document posting failed, will retry")
}

func (d *Dispatcher) terminal(ctx context.Context, event *entity.SyncEvent, detail string) {
	d.terminalWithAttempts(ctx, event, event.Attempts+1, detail)
}

func (d *Dispatcher) terminalWithAttempts(ctx context.Context, event *entity.SyncEvent, attempts int, detail string) {
	if err := d.repo.MarkTerminal(ctx, event.ID, attempts, detail); err != nil {
		d.log.Error().Err(err).Str("event", event.Key()).Msg("mark sync event terminal")
		return
	}
	event.Attempts = attempts
	event.Status = entity.SyncFailedTerminal
	event.LastError = detail
	d.log.Error().
		Str("event", event.Key()).
		Int("attempts", attempts).
		Str("error", detail).
		Msg("document posting failed permanently")
	if d.alerter != nil {
		d.alerter.SyncFailedPermanently(ctx, event)
	}
}

// backoff returns the exponential delay before the given attempt number:
// base, 2·base, 4·base, … capped at MaxBackoff.
func (d *Dispatcher) backoff(attempts int) time.Duration {
	delay := d.opts.BaseBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= d.opts.MaxBackoff {
			return d.opts.MaxBackoff
		}
	}
	if delay > d.opts.MaxBackoff {
		return d.opts.MaxBackoff
	}
	return delay
}

// Admin surface over the outbox.

// ListFailed returns FAILED_TERMINAL events for the operator console.
func (d *Dispatcher) ListFailed(ctx context.Context, limit int) ([]*entity.SyncEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	return d.repo.ListByStatus(ctx, entity.SyncFailedTerminal, limit)
}

// Requeue puts a terminally failed event back on the queue.
func (d *Dispatcher) Requeue(ctx context.Context, eventID string) error {
	return d.repo.Requeue(ctx, eventID)
}

// CancelPending removes an event that has not been attempted yet.
func (d *Dispatcher) CancelPending(ctx context.Context, eventID string) error {
	return d.repo.CancelPending(ctx, eventID)
}
