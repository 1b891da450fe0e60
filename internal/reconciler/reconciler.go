package reconciler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/domain"
	"github.com/feral-file/anky-indexer/internal/logger"
	"github.com/feral-file/anky-indexer/internal/store"
	"github.com/feral-file/anky-indexer/internal/store/schema"
	"github.com/feral-file/anky-indexer/internal/types"
)

// ErrNoCompletedSessions is returned when a session ended but the ledger reports no completed session for the writer
var ErrNoCompletedSessions = errors.New("ledger reports no completed sessions")

// Reconciler applies writing session lifecycle events to the entity store
//
//go:generate mockgen -source=reconciler.go -destination=../mocks/reconciler.go -package=mocks -mock_names=Reconciler=MockReconciler
type Reconciler interface {
	// Handle dispatches the event to the handler of its type
	Handle(ctx context.Context, event *domain.AnkyEvent) error

	// SessionStarted records a session start and makes it the writer's active session
	SessionStarted(ctx context.Context, event *domain.AnkyEvent) error
	// SessionEndedAbruptly closes a session without content
	SessionEndedAbruptly(ctx context.Context, event *domain.AnkyEvent) error
	// SessionEnded closes the writer's active session with the content hash read from the ledger
	SessionEnded(ctx context.Context, event *domain.AnkyEvent) error
	// AnkyWritten records a valid Anky hash and flags the session as an Anky
	AnkyWritten(ctx context.Context, event *domain.AnkyEvent) error
	// AnkyMinted records the token minted from the writer's latest unminted Anky
	AnkyMinted(ctx context.Context, event *domain.AnkyEvent) error
}

type reconciler struct {
	store  store.EntityStore
	ledger Ledger
	json   adapter.JSON
	clock  adapter.Clock
}

// NewReconciler creates a new reconciler
func NewReconciler(st store.EntityStore, ledger Ledger, jsonAdapter adapter.JSON, clock adapter.Clock) Reconciler {
	return &reconciler{
		store:  st,
		ledger: ledger,
		json:   jsonAdapter,
		clock:  clock,
	}
}

// transition mutates the store for one event and reports the result label
type transition func(ctx context.Context, tx store.EntityStore, event *domain.AnkyEvent) (string, error)

// Handle dispatches the event to the handler of its type
func (r *reconciler) Handle(ctx context.Context, event *domain.AnkyEvent) error {
	switch event.EventType {
	case domain.EventTypeSessionStarted:
		return r.SessionStarted(ctx, event)
	case domain.EventTypeSessionEndedAbruptly:
		return r.SessionEndedAbruptly(ctx, event)
	case domain.EventTypeSessionEnded:
		return r.SessionEnded(ctx, event)
	case domain.EventTypeAnkyWritten:
		return r.AnkyWritten(ctx, event)
	case domain.EventTypeAnkyMinted:
		return r.AnkyMinted(ctx, event)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownEventType, event.EventType)
	}
}

func (r *reconciler) SessionStarted(ctx context.Context, event *domain.AnkyEvent) error {
	return r.apply(ctx, domain.EventTypeSessionStarted, event, r.sessionStarted)
}

func (r *reconciler) SessionEndedAbruptly(ctx context.Context, event *domain.AnkyEvent) error {
	return r.apply(ctx, domain.EventTypeSessionEndedAbruptly, event, r.sessionEndedAbruptly)
}

func (r *reconciler) SessionEnded(ctx context.Context, event *domain.AnkyEvent) error {
	return r.apply(ctx, domain.EventTypeSessionEnded, event, r.sessionEnded)
}

func (r *reconciler) AnkyWritten(ctx context.Context, event *domain.AnkyEvent) error {
	return r.apply(ctx, domain.EventTypeAnkyWritten, event, r.ankyWritten)
}

func (r *reconciler) AnkyMinted(ctx context.Context, event *domain.AnkyEvent) error {
	return r.apply(ctx, domain.EventTypeAnkyMinted, event, r.ankyMinted)
}

// apply runs fn and the event journal update inside one transaction.
// An event already present in the journal is acknowledged without touching any entity.
func (r *reconciler) apply(ctx context.Context, expected domain.EventType, event *domain.AnkyEvent, fn transition) error {
	if event == nil {
		return domain.ErrInvalidEvent
	}
	if event.EventType != expected {
		return fmt.Errorf("%w: expected %s, got %s", domain.ErrInvalidEvent, expected, event.EventType)
	}

	start := r.clock.Now()
	result := resultError
	defer func() {
		eventsTotal.WithLabelValues(string(event.EventType), result).Inc()
		eventDuration.WithLabelValues(string(event.EventType)).Observe(r.clock.Since(start).Seconds())
	}()

	if !event.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidEvent, event.ID())
	}

	raw, err := r.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	eventID := event.ID()
	outcome := resultApplied
	err = r.store.WithTx(ctx, func(tx store.EntityStore) error {
		processed, err := tx.IsEventProcessed(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to check event journal: %w", err)
		}
		if processed {
			outcome = resultDuplicate
			return nil
		}

		outcome, err = fn(ctx, tx, event)
		if err != nil {
			return err
		}

		if err := tx.MarkEventProcessed(ctx, schema.ProcessedEvent{
			EventID:     eventID,
			EventType:   string(event.EventType),
			FID:         event.FID,
			BlockNumber: event.BlockNumber,
			Raw:         raw,
			ProcessedAt: r.clock.Now(),
		}); err != nil {
			return fmt.Errorf("failed to mark event processed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	result = outcome
	if result == resultDuplicate {
		logger.InfoCtx(ctx, "Event already reconciled",
			zap.String("eventID", eventID),
			zap.String("eventType", string(event.EventType)),
		)
	}

	return nil
}

func (r *reconciler) sessionStarted(ctx context.Context, tx store.EntityStore, event *domain.AnkyEvent) (string, error) {
	fid := event.FID
	sessionID := event.SessionID
	startTime := event.StartTime

	// a session first seen through another event has no start yet
	firstStart := true
	session, err := tx.UpsertSession(ctx, schema.Session{
		ID:        sessionID,
		FID:       fid,
		StartTime: &startTime,
	}, func(existing schema.Session) store.SessionPatch {
		firstStart = existing.StartTime == nil
		return store.SessionPatch{
			FID:       &fid,
			StartTime: &startTime,
		}
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert session: %w", err)
	}

	active := !session.Ended()
	insert := schema.Writer{FID: fid}
	if firstStart {
		insert.TotalSessions = 1
	}
	if active {
		insert.CurrentSessionID = &sessionID
	}

	_, err = tx.UpsertWriter(ctx, insert, func(existing schema.Writer) store.WriterPatch {
		var patch store.WriterPatch
		if firstStart {
			patch.TotalSessions = types.Int64Ptr(existing.TotalSessions + 1)
		}
		if active {
			patch.CurrentSessionID = &sessionID
		}
		return patch
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert writer: %w", err)
	}

	logger.InfoCtx(ctx, "Session started",
		zap.Int64("fid", fid),
		zap.String("sessionID", sessionID),
		zap.Bool("firstStart", firstStart),
		zap.Bool("active", active),
	)

	return resultApplied, nil
}

func (r *reconciler) sessionEndedAbruptly(ctx context.Context, tx store.EntityStore, event *domain.AnkyEvent) (string, error) {
	fid := event.FID
	sessionID := event.SessionID
	endTime := event.BlockTimestamp

	_, err := tx.UpsertSession(ctx, schema.Session{
		ID:      sessionID,
		FID:     fid,
		EndTime: &endTime,
	}, func(existing schema.Session) store.SessionPatch {
		if existing.Ended() {
			return store.SessionPatch{}
		}
		return store.SessionPatch{EndTime: &endTime}
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert session: %w", err)
	}

	if _, err := tx.UpdateWriter(ctx, fid, clearIfCurrent(sessionID)); err != nil {
		return "", fmt.Errorf("failed to update writer: %w", err)
	}

	logger.InfoCtx(ctx, "Session ended abruptly", zap.Int64("fid", fid), zap.String("sessionID", sessionID))

	return resultApplied, nil
}

func (r *reconciler) sessionEnded(ctx context.Context, tx store.EntityStore, event *domain.AnkyEvent) (string, error) {
	fid := event.FID

	writer, err := tx.FindWriter(ctx, fid)
	if err != nil {
		return "", fmt.Errorf("failed to find writer: %w", err)
	}
	if writer == nil || !writer.HasActiveSession() {
		logger.InfoCtx(ctx, "Skipping session end, writer has no active session", zap.Int64("fid", fid))
		return resultSkipped, nil
	}
	sessionID := *writer.CurrentSessionID

	count, err := r.ledger.CompletedSessionCount(ctx, fid, event.BlockNumber)
	if err != nil {
		return "", fmt.Errorf("failed to get completed session count: %w", err)
	}
	if count == 0 {
		return "", fmt.Errorf("%w: fid %d at block %d", ErrNoCompletedSessions, fid, event.BlockNumber)
	}

	ipfsHash, err := r.ledger.CompletedSessionAt(ctx, fid, count-1, event.BlockNumber)
	if err != nil {
		return "", fmt.Errorf("failed to get completed session %d: %w", count-1, err)
	}

	endTime := event.BlockTimestamp
	patch := store.SessionPatch{
		EndTime:  &endTime,
		IpfsHash: &ipfsHash,
	}
	// isAnky only moves forward
	if event.IsAnky {
		patch.IsAnky = types.BoolPtr(true)
	}

	_, err = tx.UpsertSession(ctx, schema.Session{
		ID:       sessionID,
		FID:      fid,
		EndTime:  &endTime,
		IpfsHash: &ipfsHash,
		IsAnky:   event.IsAnky,
	}, func(existing schema.Session) store.SessionPatch {
		return patch
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert session: %w", err)
	}

	if _, err := tx.UpdateWriter(ctx, fid, clearIfCurrent(sessionID)); err != nil {
		return "", fmt.Errorf("failed to update writer: %w", err)
	}

	logger.InfoCtx(ctx, "Session ended",
		zap.Int64("fid", fid),
		zap.String("sessionID", sessionID),
		zap.String("ipfsHash", ipfsHash),
		zap.Bool("isAnky", event.IsAnky),
		zap.Uint64("completedSessions", count),
	)

	return resultApplied, nil
}

func (r *reconciler) ankyWritten(ctx context.Context, tx store.EntityStore, event *domain.AnkyEvent) (string, error) {
	fid := event.FID
	sessionID := event.SessionID
	ipfsHash := event.IpfsHash

	inserted, err := tx.InsertValidAnkyHash(ctx, schema.ValidAnkyHash{
		FID:       fid,
		IpfsHash:  ipfsHash,
		CreatedAt: event.WrittenAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert valid anky hash: %w", err)
	}

	_, err = tx.UpsertSession(ctx, schema.Session{
		ID:       sessionID,
		FID:      fid,
		IpfsHash: &ipfsHash,
		IsAnky:   true,
	}, func(existing schema.Session) store.SessionPatch {
		return store.SessionPatch{
			IpfsHash: &ipfsHash,
			IsAnky:   types.BoolPtr(true),
		}
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert session: %w", err)
	}

	logger.InfoCtx(ctx, "Anky written",
		zap.Int64("fid", fid),
		zap.String("sessionID", sessionID),
		zap.String("ipfsHash", ipfsHash),
		zap.Bool("newHash", inserted),
	)

	return resultApplied, nil
}

func (r *reconciler) ankyMinted(ctx context.Context, tx store.EntityStore, event *domain.AnkyEvent) (string, error) {
	fid := event.FID
	tokenID := event.TokenID

	existing, err := tx.FindToken(ctx, tokenID)
	if err != nil {
		return "", fmt.Errorf("failed to find token: %w", err)
	}
	if existing != nil {
		logger.InfoCtx(ctx, "Skipping mint, token already recorded",
			zap.String("tokenID", tokenID),
			zap.String("sessionID", existing.SessionID),
		)
		return resultSkipped, nil
	}

	session, err := tx.FindLatestUnmintedAnkySession(ctx, fid)
	if err != nil {
		return "", fmt.Errorf("failed to find unminted anky session: %w", err)
	}
	if session == nil {
		logger.InfoCtx(ctx, "Skipping mint, no unminted anky session", zap.Int64("fid", fid), zap.String("tokenID", tokenID))
		return resultSkipped, nil
	}
	if types.StringNilOrEmpty(session.IpfsHash) {
		logger.InfoCtx(ctx, "Skipping mint, session has no content hash",
			zap.Int64("fid", fid),
			zap.String("sessionID", session.ID),
		)
		return resultSkipped, nil
	}

	inserted, err := tx.InsertToken(ctx, schema.AnkyToken{
		ID:               tokenID,
		Owner:            domain.NormalizeAddress(event.TxFrom),
		WritingIpfsHash:  *session.IpfsHash,
		MetadataIpfsHash: event.IpfsHash,
		SessionID:        session.ID,
		MintedAt:         event.BlockTimestamp,
		FID:              fid,
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert token: %w", err)
	}
	if !inserted {
		logger.InfoCtx(ctx, "Skipping mint, session already has a token", zap.String("sessionID", session.ID))
		return resultSkipped, nil
	}

	_, err = tx.UpsertSession(ctx, *session, func(existing schema.Session) store.SessionPatch {
		return store.SessionPatch{IsMinted: types.BoolPtr(true)}
	})
	if err != nil {
		return "", fmt.Errorf("failed to mark session minted: %w", err)
	}

	logger.InfoCtx(ctx, "Anky minted",
		zap.Int64("fid", fid),
		zap.String("tokenID", tokenID),
		zap.String("sessionID", session.ID),
	)

	return resultApplied, nil
}

// clearIfCurrent clears the writer's active session when it points at sessionID
func clearIfCurrent(sessionID string) func(existing schema.Writer) store.WriterPatch {
	return func(existing schema.Writer) store.WriterPatch {
		if existing.CurrentSessionID != nil && *existing.CurrentSessionID == sessionID {
			return store.WriterPatch{ClearCurrentSession: true}
		}
		return store.WriterPatch{}
	}
}
