package store

import (
	"context"
	"errors"

	"github.com/feral-file/anky-indexer/internal/store/schema"
)

var (
	// ErrMintNonAnkySession is returned when a patch would mark a non-Anky session as minted
	ErrMintNonAnkySession = errors.New("cannot mint a session that is not an anky")

	// ErrFlagRegression is returned when a patch would reset a session flag from true to false
	ErrFlagRegression = errors.New("session flags cannot be reset")
)

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	EntityStore
	QueryStore
	CursorStore
}

// EntityStore is the write side used by the reconciler and the leaderboard rebuilder
type EntityStore interface {
	// UpsertWriter inserts insert when no writer exists for insert.FID, otherwise locks the row and applies merge(existing)
	UpsertWriter(ctx context.Context, insert schema.Writer, merge func(existing schema.Writer) WriterPatch) (*schema.Writer, error)
	// UpdateWriter applies merge to an existing writer; returns nil when the writer does not exist
	UpdateWriter(ctx context.Context, fid int64, merge func(existing schema.Writer) WriterPatch) (*schema.Writer, error)
	// UpsertSession inserts insert when no session exists for insert.ID, otherwise locks the row and applies merge(existing)
	UpsertSession(ctx context.Context, insert schema.Session, merge func(existing schema.Session) SessionPatch) (*schema.Session, error)
	// InsertValidAnkyHash inserts the hash unless (fid, ipfs_hash) already exists
	InsertValidAnkyHash(ctx context.Context, hash schema.ValidAnkyHash) (bool, error)
	// InsertToken inserts the token unless its id already exists
	InsertToken(ctx context.Context, token schema.AnkyToken) (bool, error)

	// FindWriter returns nil when the writer does not exist
	FindWriter(ctx context.Context, fid int64) (*schema.Writer, error)
	// FindSession returns nil when the session does not exist
	FindSession(ctx context.Context, id string) (*schema.Session, error)
	// FindToken returns nil when the token does not exist
	FindToken(ctx context.Context, id string) (*schema.AnkyToken, error)
	// FindLatestUnmintedAnkySession selects the Anky, unminted session of fid with the greatest end time,
	// sessions without an end time last, ties broken by id ascending
	FindLatestUnmintedAnkySession(ctx context.Context, fid int64) (*schema.Session, error)

	// IsEventProcessed checks the event journal
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	// MarkEventProcessed records an applied event in the journal
	MarkEventProcessed(ctx context.Context, event schema.ProcessedEvent) error

	// ListAllWriters returns every writer ordered by fid ascending
	ListAllWriters(ctx context.Context) ([]schema.Writer, error)
	// GetSessionsByFID returns every session of a writer
	GetSessionsByFID(ctx context.Context, fid int64) ([]schema.Session, error)
	// ReplaceLeaderboard atomically replaces every leaderboard row with entries
	ReplaceLeaderboard(ctx context.Context, entries []schema.LeaderboardEntry) error

	// WithTx runs fn inside a single transaction; any error rolls back every write made through the handed store
	WithTx(ctx context.Context, fn func(tx EntityStore) error) error
}

// QueryStore is the read side used by the API
type QueryStore interface {
	// ListWriters pages writers ordered by fid descending
	ListWriters(ctx context.Context, page PageQuery) (*Page[schema.Writer], error)
	// ListSessions pages sessions ordered by start time descending, unknown start as 0, id descending.
	// When fid is set only that writer's sessions are returned.
	ListSessions(ctx context.Context, fid *int64, page PageQuery) (*Page[schema.Session], error)
	// ListTokens pages tokens ordered by mint time descending, id descending
	ListTokens(ctx context.Context, page PageQuery) (*Page[schema.AnkyToken], error)
	// GetTokensByFID returns every token minted by a writer ordered by mint time descending
	GetTokensByFID(ctx context.Context, fid int64) ([]schema.AnkyToken, error)
	// GetTokenBySessionID returns nil when the session has no token
	GetTokenBySessionID(ctx context.Context, sessionID string) (*schema.AnkyToken, error)
	// GetLeaderboard returns the current leaderboard ordered by current streak descending
	GetLeaderboard(ctx context.Context) ([]schema.LeaderboardEntry, error)
	// GetStats returns global counts
	GetStats(ctx context.Context) (*Stats, error)
}

// WriterPatch describes changes to an existing writer; nil fields are left unchanged
type WriterPatch struct {
	CurrentSessionID *string
	// ClearCurrentSession sets current_session_id to NULL and takes precedence over CurrentSessionID
	ClearCurrentSession bool
	TotalSessions       *int64
}

// Empty reports whether the patch changes nothing
func (p WriterPatch) Empty() bool {
	return p.CurrentSessionID == nil && !p.ClearCurrentSession && p.TotalSessions == nil
}

// Apply returns w with the patch applied
func (p WriterPatch) Apply(w schema.Writer) schema.Writer {
	if p.CurrentSessionID != nil {
		id := *p.CurrentSessionID
		w.CurrentSessionID = &id
	}
	if p.ClearCurrentSession {
		w.CurrentSessionID = nil
	}
	if p.TotalSessions != nil {
		w.TotalSessions = *p.TotalSessions
	}
	return w
}

func (p WriterPatch) columns() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.CurrentSessionID != nil {
		updates["current_session_id"] = *p.CurrentSessionID
	}
	if p.ClearCurrentSession {
		updates["current_session_id"] = nil
	}
	if p.TotalSessions != nil {
		updates["total_sessions"] = *p.TotalSessions
	}
	return updates
}

// SessionPatch describes changes to an existing session; nil fields are left unchanged
type SessionPatch struct {
	FID       *int64
	StartTime *int64
	EndTime   *int64
	IpfsHash  *string
	IsAnky    *bool
	IsMinted  *bool
}

// Empty reports whether the patch changes nothing
func (p SessionPatch) Empty() bool {
	return p.FID == nil && p.StartTime == nil && p.EndTime == nil &&
		p.IpfsHash == nil && p.IsAnky == nil && p.IsMinted == nil
}

// Apply returns s with the patch applied, refusing to reset a flag or to mint a non-Anky session
func (p SessionPatch) Apply(s schema.Session) (schema.Session, error) {
	if p.IsAnky != nil && !*p.IsAnky && s.IsAnky {
		return s, ErrFlagRegression
	}
	if p.IsMinted != nil && !*p.IsMinted && s.IsMinted {
		return s, ErrFlagRegression
	}

	if p.FID != nil {
		s.FID = *p.FID
	}
	if p.StartTime != nil {
		v := *p.StartTime
		s.StartTime = &v
	}
	if p.EndTime != nil {
		v := *p.EndTime
		s.EndTime = &v
	}
	if p.IpfsHash != nil {
		v := *p.IpfsHash
		s.IpfsHash = &v
	}
	if p.IsAnky != nil {
		s.IsAnky = *p.IsAnky
	}
	if p.IsMinted != nil {
		s.IsMinted = *p.IsMinted
	}

	if s.IsMinted && !s.IsAnky {
		return s, ErrMintNonAnkySession
	}
	return s, nil
}

func (p SessionPatch) columns() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.FID != nil {
		updates["fid"] = *p.FID
	}
	if p.StartTime != nil {
		updates["start_time"] = *p.StartTime
	}
	if p.EndTime != nil {
		updates["end_time"] = *p.EndTime
	}
	if p.IpfsHash != nil {
		updates["ipfs_hash"] = *p.IpfsHash
	}
	if p.IsAnky != nil {
		updates["is_anky"] = *p.IsAnky
	}
	if p.IsMinted != nil {
		updates["is_minted"] = *p.IsMinted
	}
	return updates
}

// validateNewSession checks a session about to be inserted
func validateNewSession(s schema.Session) error {
	if s.IsMinted && !s.IsAnky {
		return ErrMintNonAnkySession
	}
	return nil
}

// Stats holds global counts
type Stats struct {
	TotalWriters  int64
	TotalSessions int64
	TotalTokens   int64
	TotalAnkys    int64
}
