package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"github.com/feral-file/anky-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

func hasDBResolver(db *gorm.DB) bool {
	return db != nil && db.Callback().Query().Get("gorm:db_resolver") != nil
}

// UseReadReplica routes read queries to the replica at readDSN; writes and transactions stay on the primary
func UseReadReplica(db *gorm.DB, readDSN string) error {
	err := db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: []gorm.Dialector{postgres.Open(readDSN)},
		Policy:   dbresolver.RandomPolicy{},
	}))
	if err != nil {
		return fmt.Errorf("failed to register read replica: %w", err)
	}
	return nil
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// Zero values fall back to the defaults of NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// database/sql treats MaxOpenConns=0 as unlimited; idle must never exceed open
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// =============================================================================
// EntityStore
// =============================================================================

type patch interface {
	Empty() bool
	columns() map[string]interface{}
}

// upsertRow inserts row unless a row with the same key exists, in which case the existing
// row is locked and the patch returned by merge is applied to it
func upsertRow[T any, P patch](
	ctx context.Context,
	db *gorm.DB,
	row T,
	keyColumn string,
	key interface{},
	merge func(existing T) P,
	apply func(p P, existing T) (T, error),
) (*T, error) {
	var result *T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: keyColumn}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("failed to insert row: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			result = &row
			return nil
		}

		var existing T
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(fmt.Sprintf("%s = ?", keyColumn), key).
			First(&existing).Error; err != nil {
			return fmt.Errorf("failed to lock existing row: %w", err)
		}

		p := merge(existing)
		if p.Empty() {
			result = &existing
			return nil
		}

		updated, err := apply(p, existing)
		if err != nil {
			return err
		}

		if err := tx.Model(new(T)).
			Where(fmt.Sprintf("%s = ?", keyColumn), key).
			Updates(p.columns()).Error; err != nil {
			return fmt.Errorf("failed to update row: %w", err)
		}

		result = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func applyWriterPatch(p WriterPatch, w schema.Writer) (schema.Writer, error) {
	return p.Apply(w), nil
}

func applySessionPatch(p SessionPatch, s schema.Session) (schema.Session, error) {
	return p.Apply(s)
}

// UpsertWriter inserts or merges a writer
func (s *pgStore) UpsertWriter(ctx context.Context, insert schema.Writer, merge func(existing schema.Writer) WriterPatch) (*schema.Writer, error) {
	w, err := upsertRow(ctx, s.db, insert, "fid", insert.FID, merge, applyWriterPatch)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert writer %d: %w", insert.FID, err)
	}
	return w, nil
}

// UpdateWriter merges into an existing writer, returning nil when it does not exist
func (s *pgStore) UpdateWriter(ctx context.Context, fid int64, merge func(existing schema.Writer) WriterPatch) (*schema.Writer, error) {
	var result *schema.Writer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing schema.Writer
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("fid = ?", fid).First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		p := merge(existing)
		if !p.Empty() {
			if err := tx.Model(&schema.Writer{}).Where("fid = ?", fid).Updates(p.columns()).Error; err != nil {
				return err
			}
		}

		updated := p.Apply(existing)
		result = &updated
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update writer %d: %w", fid, err)
	}
	return result, nil
}

// UpsertSession inserts or merges a session
func (s *pgStore) UpsertSession(ctx context.Context, insert schema.Session, merge func(existing schema.Session) SessionPatch) (*schema.Session, error) {
	if err := validateNewSession(insert); err != nil {
		return nil, err
	}

	session, err := upsertRow(ctx, s.db, insert, "id", insert.ID, merge, applySessionPatch)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert session %s: %w", insert.ID, err)
	}
	return session, nil
}

// InsertValidAnkyHash inserts a hash unless it is already recorded for the writer
func (s *pgStore) InsertValidAnkyHash(ctx context.Context, hash schema.ValidAnkyHash) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&hash)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert valid anky hash: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// InsertToken inserts a token unless its id or its session is already taken
func (s *pgStore) InsertToken(ctx context.Context, token schema.AnkyToken) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&token)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert token %s: %w", token.ID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// firstOrNil runs query and maps a missing row to nil.
// With a read replica configured, a miss is retried on the primary since the replica can lag.
func firstOrNil[T any](ctx context.Context, db *gorm.DB, query func(db *gorm.DB, dest *T) error) (*T, error) {
	var row T
	err := query(db.WithContext(ctx), &row)
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !hasDBResolver(db) {
		return nil, nil
	}

	err = query(db.WithContext(ctx).Clauses(dbresolver.Write), &row)
	if err == nil {
		return &row, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

// FindWriter retrieves a writer by fid
func (s *pgStore) FindWriter(ctx context.Context, fid int64) (*schema.Writer, error) {
	w, err := firstOrNil(ctx, s.db, func(db *gorm.DB, dest *schema.Writer) error {
		return db.Where("fid = ?", fid).First(dest).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find writer: %w", err)
	}
	return w, nil
}

// FindSession retrieves a session by id
func (s *pgStore) FindSession(ctx context.Context, id string) (*schema.Session, error) {
	session, err := firstOrNil(ctx, s.db, func(db *gorm.DB, dest *schema.Session) error {
		return db.Where("id = ?", id).First(dest).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// FindToken retrieves a token by id
func (s *pgStore) FindToken(ctx context.Context, id string) (*schema.AnkyToken, error) {
	token, err := firstOrNil(ctx, s.db, func(db *gorm.DB, dest *schema.AnkyToken) error {
		return db.Where("id = ?", id).First(dest).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	return token, nil
}

// FindLatestUnmintedAnkySession selects and locks the session an AnkyMinted event attaches to
func (s *pgStore) FindLatestUnmintedAnkySession(ctx context.Context, fid int64) (*schema.Session, error) {
	var session schema.Session
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("fid = ? AND is_anky AND NOT is_minted", fid).
		Order("end_time DESC NULLS LAST").
		Order(`id COLLATE "C" ASC`).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find unminted anky session: %w", err)
	}
	return &session, nil
}

// IsEventProcessed checks whether an event has been applied
func (s *pgStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.ProcessedEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}
	return count > 0, nil
}

// MarkEventProcessed journals an applied event
func (s *pgStore) MarkEventProcessed(ctx context.Context, event schema.ProcessedEvent) error {
	if event.ProcessedAt.IsZero() {
		event.ProcessedAt = time.Now().UTC()
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&event).Error
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// ListAllWriters retrieves every writer
func (s *pgStore) ListAllWriters(ctx context.Context) ([]schema.Writer, error) {
	var writers []schema.Writer
	if err := s.db.WithContext(ctx).Order("fid ASC").Find(&writers).Error; err != nil {
		return nil, fmt.Errorf("failed to list writers: %w", err)
	}
	return writers, nil
}

// GetSessionsByFID retrieves every session of a writer
func (s *pgStore) GetSessionsByFID(ctx context.Context, fid int64) ([]schema.Session, error) {
	var sessions []schema.Session
	err := s.db.WithContext(ctx).
		Where("fid = ?", fid).
		Order("start_time ASC NULLS FIRST").
		Order(`id COLLATE "C" ASC`).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions for fid %d: %w", fid, err)
	}
	return sessions, nil
}

// ReplaceLeaderboard deletes every leaderboard row and inserts entries in one transaction
func (s *pgStore) ReplaceLeaderboard(ctx context.Context, entries []schema.LeaderboardEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&schema.LeaderboardEntry{}).Error; err != nil {
			return fmt.Errorf("failed to clear leaderboard: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		if err := tx.Create(&entries).Error; err != nil {
			return fmt.Errorf("failed to insert leaderboard: %w", err)
		}
		return nil
	})
}

// WithTx runs fn with a store bound to one transaction
func (s *pgStore) WithTx(ctx context.Context, fn func(tx EntityStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}

// =============================================================================
// QueryStore
// =============================================================================

// paginate applies the keyset condition and ordering for a listing ordered by (keyExpr, idExpr) descending
func paginate(query *gorm.DB, keyExpr, idExpr string, q PageQuery) *gorm.DB {
	order := "DESC"
	op := "<"
	if q.Direction == DirectionPrev {
		order = "ASC"
		op = ">"
	}

	if q.Cursor != nil {
		query = query.Where(fmt.Sprintf("(%s, %s) %s (?, ?)", keyExpr, idExpr, op), q.Cursor.Key, q.Cursor.ID)
	}

	return query.
		Order(fmt.Sprintf("%s %s", keyExpr, order)).
		Order(fmt.Sprintf("%s %s", idExpr, order)).
		Limit(q.Limit + 1)
}

// ListWriters pages writers by fid descending
func (s *pgStore) ListWriters(ctx context.Context, page PageQuery) (*Page[schema.Writer], error) {
	q := page.Normalize()

	query := s.db.WithContext(ctx).Model(&schema.Writer{})
	if q.Cursor != nil {
		if q.Direction == DirectionPrev {
			query = query.Where("fid > ?", q.Cursor.Key)
		} else {
			query = query.Where("fid < ?", q.Cursor.Key)
		}
	}
	order := "fid DESC"
	if q.Direction == DirectionPrev {
		order = "fid ASC"
	}

	var rows []schema.Writer
	if err := query.Order(order).Limit(q.Limit + 1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list writers: %w", err)
	}

	return buildPage(rows, q, WriterCursor), nil
}

// ListSessions pages sessions by start time descending
func (s *pgStore) ListSessions(ctx context.Context, fid *int64, page PageQuery) (*Page[schema.Session], error) {
	q := page.Normalize()

	query := s.db.WithContext(ctx).Model(&schema.Session{})
	if fid != nil {
		query = query.Where("fid = ?", *fid)
	}

	var rows []schema.Session
	if err := paginate(query, "COALESCE(start_time, 0)", `id COLLATE "C"`, q).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return buildPage(rows, q, SessionCursor), nil
}

// ListTokens pages tokens by mint time descending
func (s *pgStore) ListTokens(ctx context.Context, page PageQuery) (*Page[schema.AnkyToken], error) {
	q := page.Normalize()

	var rows []schema.AnkyToken
	query := s.db.WithContext(ctx).Model(&schema.AnkyToken{})
	if err := paginate(query, "minted_at", `id COLLATE "C"`, q).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	return buildPage(rows, q, TokenCursor), nil
}

// GetTokensByFID retrieves every token of a writer
func (s *pgStore) GetTokensByFID(ctx context.Context, fid int64) ([]schema.AnkyToken, error) {
	var tokens []schema.AnkyToken
	err := s.db.WithContext(ctx).
		Where("fid = ?", fid).
		Order("minted_at DESC").
		Order(`id COLLATE "C" DESC`).
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens for fid %d: %w", fid, err)
	}
	return tokens, nil
}

// GetTokenBySessionID retrieves the token minted from a session
func (s *pgStore) GetTokenBySessionID(ctx context.Context, sessionID string) (*schema.AnkyToken, error) {
	token, err := firstOrNil(ctx, s.db, func(db *gorm.DB, dest *schema.AnkyToken) error {
		return db.Where("session_id = ?", sessionID).First(dest).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get token by session: %w", err)
	}
	return token, nil
}

// GetLeaderboard retrieves the leaderboard rows
func (s *pgStore) GetLeaderboard(ctx context.Context) ([]schema.LeaderboardEntry, error) {
	var entries []schema.LeaderboardEntry
	err := s.db.WithContext(ctx).
		Order("current_streak DESC").
		Order("max_streak DESC").
		Order("fid ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return entries, nil
}

// GetStats counts writers, sessions, tokens and Anky sessions
func (s *pgStore) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	db := s.db.WithContext(ctx)

	if err := db.Model(&schema.Writer{}).Count(&stats.TotalWriters).Error; err != nil {
		return nil, fmt.Errorf("failed to count writers: %w", err)
	}
	if err := db.Model(&schema.Session{}).Count(&stats.TotalSessions).Error; err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	if err := db.Model(&schema.AnkyToken{}).Count(&stats.TotalTokens).Error; err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}
	if err := db.Model(&schema.Session{}).Where("is_anky").Count(&stats.TotalAnkys).Error; err != nil {
		return nil, fmt.Errorf("failed to count ankys: %w", err)
	}

	return &stats, nil
}

// =============================================================================
// CursorStore
// =============================================================================

// GetBlockCursor retrieves the last processed block number for a chain
func (s *pgStore) GetBlockCursor(ctx context.Context, chain string) (uint64, error) {
	return NewCursorStore(s.db).GetBlockCursor(ctx, chain)
}

// SetBlockCursor stores the last processed block number for a chain
func (s *pgStore) SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error {
	return NewCursorStore(s.db).SetBlockCursor(ctx, chain, blockNumber)
}
