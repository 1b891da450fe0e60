package store

import (
	"context"
	"sort"
	"sync"

	"github.com/feral-file/anky-indexer/internal/store/schema"
)

type validHashKey struct {
	fid      int64
	ipfsHash string
}

// memState holds every collection of the in-memory store
type memState struct {
	writers     map[int64]schema.Writer
	sessions    map[string]schema.Session
	tokens      map[string]schema.AnkyToken
	hashes      map[validHashKey]schema.ValidAnkyHash
	events      map[string]schema.ProcessedEvent
	leaderboard []schema.LeaderboardEntry
	cursors     map[string]uint64
}

func newMemState() *memState {
	return &memState{
		writers:  make(map[int64]schema.Writer),
		sessions: make(map[string]schema.Session),
		tokens:   make(map[string]schema.AnkyToken),
		hashes:   make(map[validHashKey]schema.ValidAnkyHash),
		events:   make(map[string]schema.ProcessedEvent),
		cursors:  make(map[string]uint64),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// clone copies the state; entity values hold only immutable pointees so a shallow copy per entry suffices
func (s *memState) clone() *memState {
	return &memState{
		writers:     copyMap(s.writers),
		sessions:    copyMap(s.sessions),
		tokens:      copyMap(s.tokens),
		hashes:      copyMap(s.hashes),
		events:      copyMap(s.events),
		leaderboard: append([]schema.LeaderboardEntry(nil), s.leaderboard...),
		cursors:     copyMap(s.cursors),
	}
}

// memoryStore is a Store kept in process memory, used by unit tests and local tooling
type memoryStore struct {
	mu sync.Mutex
	st *memState
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{st: newMemState()}
}

// memTx operates on the state without locking; the owning memoryStore holds the lock
type memTx struct {
	st *memState
}

func (m *memoryStore) tx() *memTx {
	return &memTx{st: m.st}
}

// =============================================================================
// memTx: EntityStore without locking
// =============================================================================

func (t *memTx) UpsertWriter(_ context.Context, insert schema.Writer, merge func(existing schema.Writer) WriterPatch) (*schema.Writer, error) {
	existing, ok := t.st.writers[insert.FID]
	if !ok {
		t.st.writers[insert.FID] = insert
		return &insert, nil
	}
	updated := merge(existing).Apply(existing)
	t.st.writers[insert.FID] = updated
	return &updated, nil
}

func (t *memTx) UpdateWriter(_ context.Context, fid int64, merge func(existing schema.Writer) WriterPatch) (*schema.Writer, error) {
	existing, ok := t.st.writers[fid]
	if !ok {
		return nil, nil
	}
	updated := merge(existing).Apply(existing)
	t.st.writers[fid] = updated
	return &updated, nil
}

func (t *memTx) UpsertSession(_ context.Context, insert schema.Session, merge func(existing schema.Session) SessionPatch) (*schema.Session, error) {
	if err := validateNewSession(insert); err != nil {
		return nil, err
	}
	existing, ok := t.st.sessions[insert.ID]
	if !ok {
		t.st.sessions[insert.ID] = insert
		return &insert, nil
	}
	updated, err := merge(existing).Apply(existing)
	if err != nil {
		return nil, err
	}
	t.st.sessions[insert.ID] = updated
	return &updated, nil
}

func (t *memTx) InsertValidAnkyHash(_ context.Context, hash schema.ValidAnkyHash) (bool, error) {
	key := validHashKey{fid: hash.FID, ipfsHash: hash.IpfsHash}
	if _, ok := t.st.hashes[key]; ok {
		return false, nil
	}
	t.st.hashes[key] = hash
	return true, nil
}

func (t *memTx) InsertToken(_ context.Context, token schema.AnkyToken) (bool, error) {
	if _, ok := t.st.tokens[token.ID]; ok {
		return false, nil
	}
	for _, existing := range t.st.tokens {
		if existing.SessionID == token.SessionID {
			return false, nil
		}
	}
	t.st.tokens[token.ID] = token
	return true, nil
}

func (t *memTx) FindWriter(_ context.Context, fid int64) (*schema.Writer, error) {
	w, ok := t.st.writers[fid]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (t *memTx) FindSession(_ context.Context, id string) (*schema.Session, error) {
	s, ok := t.st.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (t *memTx) FindToken(_ context.Context, id string) (*schema.AnkyToken, error) {
	token, ok := t.st.tokens[id]
	if !ok {
		return nil, nil
	}
	return &token, nil
}

func (t *memTx) FindLatestUnmintedAnkySession(_ context.Context, fid int64) (*schema.Session, error) {
	var best *schema.Session
	for _, s := range t.st.sessions {
		if s.FID != fid || !s.IsAnky || s.IsMinted {
			continue
		}
		if best == nil || unmintedBefore(s, *best) {
			candidate := s
			best = &candidate
		}
	}
	return best, nil
}

// unmintedBefore orders by end time descending with unknown end times last, then id ascending
func unmintedBefore(a, b schema.Session) bool {
	switch {
	case a.EndTime != nil && b.EndTime == nil:
		return true
	case a.EndTime == nil && b.EndTime != nil:
		return false
	case a.EndTime != nil && b.EndTime != nil && *a.EndTime != *b.EndTime:
		return *a.EndTime > *b.EndTime
	}
	return a.ID < b.ID
}

func (t *memTx) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	_, ok := t.st.events[eventID]
	return ok, nil
}

func (t *memTx) MarkEventProcessed(_ context.Context, event schema.ProcessedEvent) error {
	if _, ok := t.st.events[event.EventID]; !ok {
		t.st.events[event.EventID] = event
	}
	return nil
}

func (t *memTx) ListAllWriters(_ context.Context) ([]schema.Writer, error) {
	writers := make([]schema.Writer, 0, len(t.st.writers))
	for _, w := range t.st.writers {
		writers = append(writers, w)
	}
	sort.Slice(writers, func(i, j int) bool { return writers[i].FID < writers[j].FID })
	return writers, nil
}

func (t *memTx) GetSessionsByFID(_ context.Context, fid int64) ([]schema.Session, error) {
	sessions := t.sessionsOf(&fid)
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if (a.StartTime == nil) != (b.StartTime == nil) {
			return a.StartTime == nil
		}
		if a.StartTime != nil && *a.StartTime != *b.StartTime {
			return *a.StartTime < *b.StartTime
		}
		return a.ID < b.ID
	})
	return sessions, nil
}

func (t *memTx) sessionsOf(fid *int64) []schema.Session {
	sessions := make([]schema.Session, 0)
	for _, s := range t.st.sessions {
		if fid == nil || s.FID == *fid {
			sessions = append(sessions, s)
		}
	}
	return sessions
}

func (t *memTx) ReplaceLeaderboard(_ context.Context, entries []schema.LeaderboardEntry) error {
	t.st.leaderboard = append([]schema.LeaderboardEntry(nil), entries...)
	return nil
}

// WithTx restores the state as it was before fn when fn fails, like a savepoint
func (t *memTx) WithTx(_ context.Context, fn func(tx EntityStore) error) error {
	snapshot := t.st.clone()
	if err := fn(t); err != nil {
		*t.st = *snapshot
		return err
	}
	return nil
}

// =============================================================================
// memTx: QueryStore and CursorStore
// =============================================================================

func (t *memTx) ListWriters(ctx context.Context, page PageQuery) (*Page[schema.Writer], error) {
	writers, _ := t.ListAllWriters(ctx)
	return paginateSlice(writers, page, WriterCursor), nil
}

func (t *memTx) ListSessions(_ context.Context, fid *int64, page PageQuery) (*Page[schema.Session], error) {
	return paginateSlice(t.sessionsOf(fid), page, SessionCursor), nil
}

func (t *memTx) ListTokens(_ context.Context, page PageQuery) (*Page[schema.AnkyToken], error) {
	tokens := make([]schema.AnkyToken, 0, len(t.st.tokens))
	for _, token := range t.st.tokens {
		tokens = append(tokens, token)
	}
	return paginateSlice(tokens, page, TokenCursor), nil
}

func (t *memTx) GetTokensByFID(_ context.Context, fid int64) ([]schema.AnkyToken, error) {
	tokens := make([]schema.AnkyToken, 0)
	for _, token := range t.st.tokens {
		if token.FID == fid {
			tokens = append(tokens, token)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		return TokenCursor(tokens[j]).Less(TokenCursor(tokens[i]))
	})
	return tokens, nil
}

func (t *memTx) GetTokenBySessionID(_ context.Context, sessionID string) (*schema.AnkyToken, error) {
	for _, token := range t.st.tokens {
		if token.SessionID == sessionID {
			found := token
			return &found, nil
		}
	}
	return nil, nil
}

func (t *memTx) GetLeaderboard(_ context.Context) ([]schema.LeaderboardEntry, error) {
	entries := append([]schema.LeaderboardEntry(nil), t.st.leaderboard...)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.CurrentStreak != b.CurrentStreak {
			return a.CurrentStreak > b.CurrentStreak
		}
		if a.MaxStreak != b.MaxStreak {
			return a.MaxStreak > b.MaxStreak
		}
		return a.FID < b.FID
	})
	return entries, nil
}

func (t *memTx) GetStats(_ context.Context) (*Stats, error) {
	stats := &Stats{
		TotalWriters:  int64(len(t.st.writers)),
		TotalSessions: int64(len(t.st.sessions)),
		TotalTokens:   int64(len(t.st.tokens)),
	}
	for _, s := range t.st.sessions {
		if s.IsAnky {
			stats.TotalAnkys++
		}
	}
	return stats, nil
}

func (t *memTx) GetBlockCursor(_ context.Context, chain string) (uint64, error) {
	return t.st.cursors[blockCursorKey(chain)], nil
}

func (t *memTx) SetBlockCursor(_ context.Context, chain string, blockNumber uint64) error {
	t.st.cursors[blockCursorKey(chain)] = blockNumber
	return nil
}

// =============================================================================
// memoryStore: locking wrappers
// =============================================================================

func (m *memoryStore) UpsertWriter(ctx context.Context, insert schema.Writer, merge func(existing schema.Writer) WriterPatch) (*schema.Writer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().UpsertWriter(ctx, insert, merge)
}

func (m *memoryStore) UpdateWriter(ctx context.Context, fid int64, merge func(existing schema.Writer) WriterPatch) (*schema.Writer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().UpdateWriter(ctx, fid, merge)
}

func (m *memoryStore) UpsertSession(ctx context.Context, insert schema.Session, merge func(existing schema.Session) SessionPatch) (*schema.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().UpsertSession(ctx, insert, merge)
}

func (m *memoryStore) InsertValidAnkyHash(ctx context.Context, hash schema.ValidAnkyHash) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().InsertValidAnkyHash(ctx, hash)
}

func (m *memoryStore) InsertToken(ctx context.Context, token schema.AnkyToken) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().InsertToken(ctx, token)
}

func (m *memoryStore) FindWriter(ctx context.Context, fid int64) (*schema.Writer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().FindWriter(ctx, fid)
}

func (m *memoryStore) FindSession(ctx context.Context, id string) (*schema.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().FindSession(ctx, id)
}

func (m *memoryStore) FindToken(ctx context.Context, id string) (*schema.AnkyToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().FindToken(ctx, id)
}

func (m *memoryStore) FindLatestUnmintedAnkySession(ctx context.Context, fid int64) (*schema.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().FindLatestUnmintedAnkySession(ctx, fid)
}

func (m *memoryStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().IsEventProcessed(ctx, eventID)
}

func (m *memoryStore) MarkEventProcessed(ctx context.Context, event schema.ProcessedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().MarkEventProcessed(ctx, event)
}

func (m *memoryStore) ListAllWriters(ctx context.Context) ([]schema.Writer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListAllWriters(ctx)
}

func (m *memoryStore) GetSessionsByFID(ctx context.Context, fid int64) ([]schema.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetSessionsByFID(ctx, fid)
}

func (m *memoryStore) ReplaceLeaderboard(ctx context.Context, entries []schema.LeaderboardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ReplaceLeaderboard(ctx, entries)
}

// WithTx holds the store lock for the whole of fn, serializing transactions
func (m *memoryStore) WithTx(ctx context.Context, fn func(tx EntityStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().WithTx(ctx, fn)
}

func (m *memoryStore) ListWriters(ctx context.Context, page PageQuery) (*Page[schema.Writer], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListWriters(ctx, page)
}

func (m *memoryStore) ListSessions(ctx context.Context, fid *int64, page PageQuery) (*Page[schema.Session], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListSessions(ctx, fid, page)
}

func (m *memoryStore) ListTokens(ctx context.Context, page PageQuery) (*Page[schema.AnkyToken], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().ListTokens(ctx, page)
}

func (m *memoryStore) GetTokensByFID(ctx context.Context, fid int64) ([]schema.AnkyToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetTokensByFID(ctx, fid)
}

func (m *memoryStore) GetTokenBySessionID(ctx context.Context, sessionID string) (*schema.AnkyToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetTokenBySessionID(ctx, sessionID)
}

func (m *memoryStore) GetLeaderboard(ctx context.Context) ([]schema.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetLeaderboard(ctx)
}

func (m *memoryStore) GetStats(ctx context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetStats(ctx)
}

func (m *memoryStore) GetBlockCursor(ctx context.Context, chain string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().GetBlockCursor(ctx, chain)
}

func (m *memoryStore) SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx().SetBlockCursor(ctx, chain, blockNumber)
}
