package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/anky-indexer/internal/store/schema"
	"github.com/feral-file/anky-indexer/internal/types"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func buildTestSession(id string, fid int64, start *int64, end *int64, isAnky, isMinted bool) schema.Session {
	s := schema.Session{
		ID:        id,
		FID:       fid,
		StartTime: start,
		EndTime:   end,
		IsAnky:    isAnky,
		IsMinted:  isMinted,
	}
	if isAnky {
		s.IpfsHash = types.StringPtr("Qm" + id)
	}
	return s
}

func keepExistingSession(schema.Session) SessionPatch { return SessionPatch{} }

func keepExistingWriter(schema.Writer) WriterPatch { return WriterPatch{} }

func insertSession(t *testing.T, store Store, s schema.Session) {
	t.Helper()
	_, err := store.UpsertSession(context.Background(), s, keepExistingSession)
	require.NoError(t, err)
}

// =============================================================================
// Tests
// =============================================================================

func testUpsertWriter(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("inserts when absent", func(t *testing.T) {
		w, err := store.UpsertWriter(ctx, schema.Writer{FID: 1, TotalSessions: 1, CurrentSessionID: types.StringPtr("s1")},
			func(schema.Writer) WriterPatch {
				t.Fatal("merge must not run on insert")
				return WriterPatch{}
			})
		require.NoError(t, err)
		assert.Equal(t, int64(1), w.TotalSessions)
		assert.Equal(t, "s1", *w.CurrentSessionID)
	})

	t.Run("merges when present", func(t *testing.T) {
		w, err := store.UpsertWriter(ctx, schema.Writer{FID: 1, TotalSessions: 1}, func(existing schema.Writer) WriterPatch {
			assert.Equal(t, int64(1), existing.TotalSessions)
			return WriterPatch{
				TotalSessions:    types.Int64Ptr(existing.TotalSessions + 1),
				CurrentSessionID: types.StringPtr("s2"),
			}
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), w.TotalSessions)
		assert.Equal(t, "s2", *w.CurrentSessionID)

		found, err := store.FindWriter(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, int64(2), found.TotalSessions)
		assert.Equal(t, "s2", *found.CurrentSessionID)
	})

	t.Run("clears current session", func(t *testing.T) {
		_, err := store.UpsertWriter(ctx, schema.Writer{FID: 1}, func(schema.Writer) WriterPatch {
			return WriterPatch{ClearCurrentSession: true}
		})
		require.NoError(t, err)

		found, err := store.FindWriter(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, found.CurrentSessionID)
		assert.False(t, found.HasActiveSession())
	})

	t.Run("empty patch leaves row unchanged", func(t *testing.T) {
		w, err := store.UpsertWriter(ctx, schema.Writer{FID: 1, TotalSessions: 99}, keepExistingWriter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), w.TotalSessions)
	})
}

func testUpdateWriter(t *testing.T, store Store) {
	ctx := context.Background()

	w, err := store.UpdateWriter(ctx, 404, func(schema.Writer) WriterPatch {
		return WriterPatch{ClearCurrentSession: true}
	})
	require.NoError(t, err)
	assert.Nil(t, w)

	missing, err := store.FindWriter(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, missing, "update must not create the writer")

	_, err = store.UpsertWriter(ctx, schema.Writer{FID: 7, CurrentSessionID: types.StringPtr("s")}, keepExistingWriter)
	require.NoError(t, err)

	w, err = store.UpdateWriter(ctx, 7, func(existing schema.Writer) WriterPatch {
		return WriterPatch{ClearCurrentSession: true}
	})
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Nil(t, w.CurrentSessionID)
}

func testUpsertSession(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("inserts with unknown start", func(t *testing.T) {
		s, err := store.UpsertSession(ctx, schema.Session{ID: "orphan", FID: 3, EndTime: types.Int64Ptr(100)}, keepExistingSession)
		require.NoError(t, err)
		assert.Nil(t, s.StartTime)

		found, err := store.FindSession(ctx, "orphan")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Nil(t, found.StartTime)
		assert.Equal(t, int64(100), *found.EndTime)
		assert.False(t, found.IsAnky)
		assert.False(t, found.IsMinted)
	})

	t.Run("merge fills start time", func(t *testing.T) {
		s, err := store.UpsertSession(ctx, schema.Session{ID: "orphan", FID: 3, StartTime: types.Int64Ptr(50)},
			func(existing schema.Session) SessionPatch {
				return SessionPatch{StartTime: types.Int64Ptr(50)}
			})
		require.NoError(t, err)
		assert.Equal(t, int64(50), *s.StartTime)
		assert.Equal(t, int64(100), *s.EndTime)
	})

	t.Run("epoch zero start is kept distinct from unknown", func(t *testing.T) {
		insertSession(t, store, schema.Session{ID: "epoch", FID: 3, StartTime: types.Int64Ptr(0)})
		found, err := store.FindSession(ctx, "epoch")
		require.NoError(t, err)
		require.NotNil(t, found.StartTime)
		assert.Equal(t, int64(0), *found.StartTime)
	})

	t.Run("refuses to reset anky flag", func(t *testing.T) {
		insertSession(t, store, buildTestSession("anky", 3, types.Int64Ptr(10), types.Int64Ptr(20), true, false))
		_, err := store.UpsertSession(ctx, schema.Session{ID: "anky", FID: 3}, func(schema.Session) SessionPatch {
			return SessionPatch{IsAnky: types.BoolPtr(false)}
		})
		assert.True(t, errors.Is(err, ErrFlagRegression))
	})

	t.Run("refuses to mint a non-anky session", func(t *testing.T) {
		insertSession(t, store, schema.Session{ID: "plain", FID: 3, StartTime: types.Int64Ptr(10)})
		_, err := store.UpsertSession(ctx, schema.Session{ID: "plain", FID: 3}, func(schema.Session) SessionPatch {
			return SessionPatch{IsMinted: types.BoolPtr(true)}
		})
		assert.True(t, errors.Is(err, ErrMintNonAnkySession))

		found, err := store.FindSession(ctx, "plain")
		require.NoError(t, err)
		assert.False(t, found.IsMinted)

		_, err = store.UpsertSession(ctx, schema.Session{ID: "minted-plain", FID: 3, IsMinted: true}, keepExistingSession)
		assert.True(t, errors.Is(err, ErrMintNonAnkySession))
	})
}

func testInsertOrIgnore(t *testing.T, store Store) {
	ctx := context.Background()

	inserted, err := store.InsertValidAnkyHash(ctx, schema.ValidAnkyHash{FID: 5, IpfsHash: "QmA", CreatedAt: 1})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.InsertValidAnkyHash(ctx, schema.ValidAnkyHash{FID: 5, IpfsHash: "QmA", CreatedAt: 2})
	require.NoError(t, err)
	assert.False(t, inserted)

	inserted, err = store.InsertValidAnkyHash(ctx, schema.ValidAnkyHash{FID: 6, IpfsHash: "QmA", CreatedAt: 2})
	require.NoError(t, err)
	assert.True(t, inserted, "same hash for a different writer is a different key")

	token := schema.AnkyToken{ID: "1", Owner: "0x01", WritingIpfsHash: "QmA", MetadataIpfsHash: "QmM", SessionID: "s1", MintedAt: 10, FID: 5}
	inserted, err = store.InsertToken(ctx, token)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.InsertToken(ctx, token)
	require.NoError(t, err)
	assert.False(t, inserted)

	sameSession := token
	sameSession.ID = "2"
	inserted, err = store.InsertToken(ctx, sameSession)
	require.NoError(t, err)
	assert.False(t, inserted, "a session carries at most one token")

	found, err := store.FindToken(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "QmM", found.MetadataIpfsHash)

	missing, err := store.FindToken(ctx, "2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	bySession, err := store.GetTokenBySessionID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, bySession)
	assert.Equal(t, "1", bySession.ID)
}

func testFindLatestUnmintedAnkySession(t *testing.T, store Store) {
	ctx := context.Background()

	none, err := store.FindLatestUnmintedAnkySession(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, none)

	insertSession(t, store, buildTestSession("no-end", 9, types.Int64Ptr(1), nil, true, false))
	insertSession(t, store, buildTestSession("b", 9, types.Int64Ptr(1), types.Int64Ptr(200), true, false))
	insertSession(t, store, buildTestSession("a", 9, types.Int64Ptr(1), types.Int64Ptr(200), true, false))
	insertSession(t, store, buildTestSession("older", 9, types.Int64Ptr(1), types.Int64Ptr(100), true, false))
	insertSession(t, store, buildTestSession("newest-minted", 9, types.Int64Ptr(1), types.Int64Ptr(300), true, true))
	insertSession(t, store, buildTestSession("newest-plain", 9, types.Int64Ptr(1), types.Int64Ptr(400), false, false))
	insertSession(t, store, buildTestSession("other-writer", 10, types.Int64Ptr(1), types.Int64Ptr(500), true, false))

	s, err := store.FindLatestUnmintedAnkySession(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "a", s.ID, "greatest end time wins, ties broken by id ascending")

	for _, id := range []string{"a", "b", "older"} {
		_, err := store.UpsertSession(ctx, schema.Session{ID: id}, func(schema.Session) SessionPatch {
			return SessionPatch{IsMinted: types.BoolPtr(true)}
		})
		require.NoError(t, err)
	}

	s, err = store.FindLatestUnmintedAnkySession(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "no-end", s.ID, "sessions without end time come last")
}

func testEventJournal(t *testing.T, store Store) {
	ctx := context.Background()

	processed, err := store.IsEventProcessed(ctx, "eip155:666666666:0xabc:1")
	require.NoError(t, err)
	assert.False(t, processed)

	event := schema.ProcessedEvent{EventID: "eip155:666666666:0xabc:1", EventType: "session_started", FID: 1, BlockNumber: 10}
	require.NoError(t, store.MarkEventProcessed(ctx, event))
	require.NoError(t, store.MarkEventProcessed(ctx, event))

	processed, err = store.IsEventProcessed(ctx, "eip155:666666666:0xabc:1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func testWithTx(t *testing.T, store Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx EntityStore) error {
		if _, err := tx.UpsertWriter(ctx, schema.Writer{FID: 42, TotalSessions: 1}, keepExistingWriter); err != nil {
			return err
		}
		if _, err := tx.UpsertSession(ctx, schema.Session{ID: "tx-session", FID: 42}, keepExistingSession); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))

	w, err := store.FindWriter(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, w, "rolled back writer must not be visible")
	s, err := store.FindSession(ctx, "tx-session")
	require.NoError(t, err)
	assert.Nil(t, s)

	err = store.WithTx(ctx, func(tx EntityStore) error {
		_, err := tx.UpsertWriter(ctx, schema.Writer{FID: 42, TotalSessions: 1}, keepExistingWriter)
		return err
	})
	require.NoError(t, err)

	w, err = store.FindWriter(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, w)
}

func testListForRebuild(t *testing.T, store Store) {
	ctx := context.Background()

	for _, fid := range []int64{3, 1, 2} {
		_, err := store.UpsertWriter(ctx, schema.Writer{FID: fid}, keepExistingWriter)
		require.NoError(t, err)
	}
	insertSession(t, store, schema.Session{ID: "late", FID: 1, StartTime: types.Int64Ptr(300)})
	insertSession(t, store, schema.Session{ID: "unknown", FID: 1})
	insertSession(t, store, schema.Session{ID: "early", FID: 1, StartTime: types.Int64Ptr(100)})
	insertSession(t, store, schema.Session{ID: "other", FID: 2, StartTime: types.Int64Ptr(100)})

	writers, err := store.ListAllWriters(ctx)
	require.NoError(t, err)
	require.Len(t, writers, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{writers[0].FID, writers[1].FID, writers[2].FID})

	sessions, err := store.GetSessionsByFID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "unknown", sessions[0].ID)
	assert.Equal(t, "early", sessions[1].ID)
	assert.Equal(t, "late", sessions[2].ID)
}

func testReplaceLeaderboard(t *testing.T, store Store) {
	ctx := context.Background()

	first := []schema.LeaderboardEntry{
		{FID: 1, CurrentStreak: 1, MaxStreak: 1, LastUpdated: 10},
		{FID: 2, CurrentStreak: 5, MaxStreak: 5, LastUpdated: 10},
	}
	require.NoError(t, store.ReplaceLeaderboard(ctx, first))

	second := []schema.LeaderboardEntry{
		{FID: 3, CurrentStreak: 2, MaxStreak: 4, LastUpdated: 20, TotalSessions: 7, TotalAnky: 4, TotalAnkyMinted: 1},
		{FID: 4, CurrentStreak: 2, MaxStreak: 9, LastUpdated: 20},
	}
	require.NoError(t, store.ReplaceLeaderboard(ctx, second))

	entries, err := store.GetLeaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2, "no row from the previous rebuild survives")
	assert.Equal(t, int64(4), entries[0].FID)
	assert.Equal(t, int64(3), entries[1].FID)
	assert.Equal(t, int64(7), entries[1].TotalSessions)
	assert.Equal(t, int64(1), entries[1].TotalAnkyMinted)

	require.NoError(t, store.ReplaceLeaderboard(ctx, nil))
	entries, err = store.GetLeaderboard(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func collectSessionIDs(items []schema.Session) []string {
	ids := make([]string, len(items))
	for i, s := range items {
		ids[i] = s.ID
	}
	return ids
}

func testPagination(t *testing.T, store Store) {
	ctx := context.Background()

	// 7 sessions, two sharing a start time, one with unknown start
	insertSession(t, store, schema.Session{ID: "s7", FID: 1, StartTime: types.Int64Ptr(700)})
	insertSession(t, store, schema.Session{ID: "s6", FID: 1, StartTime: types.Int64Ptr(600)})
	insertSession(t, store, schema.Session{ID: "s5b", FID: 2, StartTime: types.Int64Ptr(500)})
	insertSession(t, store, schema.Session{ID: "s5a", FID: 1, StartTime: types.Int64Ptr(500)})
	insertSession(t, store, schema.Session{ID: "s4", FID: 2, StartTime: types.Int64Ptr(400)})
	insertSession(t, store, schema.Session{ID: "s3", FID: 1, StartTime: types.Int64Ptr(300)})
	insertSession(t, store, schema.Session{ID: "s0", FID: 1})

	t.Run("forward walk visits every item once", func(t *testing.T) {
		var seen []string
		q := PageQuery{Limit: 3}
		for i := 0; i < 5; i++ {
			page, err := store.ListSessions(ctx, nil, q)
			require.NoError(t, err)
			seen = append(seen, collectSessionIDs(page.Items)...)
			if page.NextCursor == nil {
				break
			}
			q = PageQuery{Limit: 3, Cursor: page.NextCursor, Direction: DirectionNext}
		}
		assert.Equal(t, []string{"s7", "s6", "s5b", "s5a", "s4", "s3", "s0"}, seen)
	})

	t.Run("prev returns the preceding page in listing order", func(t *testing.T) {
		first, err := store.ListSessions(ctx, nil, PageQuery{Limit: 3})
		require.NoError(t, err)
		assert.Nil(t, first.PrevCursor)
		require.NotNil(t, first.NextCursor)

		second, err := store.ListSessions(ctx, nil, PageQuery{Limit: 3, Cursor: first.NextCursor, Direction: DirectionNext})
		require.NoError(t, err)
		assert.Equal(t, []string{"s5a", "s4", "s3"}, collectSessionIDs(second.Items))
		require.NotNil(t, second.PrevCursor)

		back, err := store.ListSessions(ctx, nil, PageQuery{Limit: 3, Cursor: second.PrevCursor, Direction: DirectionPrev})
		require.NoError(t, err)
		assert.Equal(t, collectSessionIDs(first.Items), collectSessionIDs(back.Items))
		assert.Nil(t, back.PrevCursor, "nothing precedes the first page")
		require.NotNil(t, back.NextCursor)
	})

	t.Run("filters by writer", func(t *testing.T) {
		fid := int64(2)
		page, err := store.ListSessions(ctx, &fid, PageQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"s5b", "s4"}, collectSessionIDs(page.Items))
		assert.Nil(t, page.NextCursor)
	})

	t.Run("writers by fid descending", func(t *testing.T) {
		for fid := int64(1); fid <= 5; fid++ {
			_, err := store.UpsertWriter(ctx, schema.Writer{FID: fid}, keepExistingWriter)
			require.NoError(t, err)
		}
		page, err := store.ListWriters(ctx, PageQuery{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, int64(5), page.Items[0].FID)
		require.NotNil(t, page.NextCursor)

		next, err := store.ListWriters(ctx, PageQuery{Limit: 2, Cursor: page.NextCursor, Direction: DirectionNext})
		require.NoError(t, err)
		assert.Equal(t, int64(3), next.Items[0].FID)
		assert.Equal(t, int64(2), next.Items[1].FID)
	})

	t.Run("tokens by mint time descending", func(t *testing.T) {
		for i := 1; i <= 4; i++ {
			_, err := store.InsertToken(ctx, schema.AnkyToken{
				ID: fmt.Sprintf("%d", i), Owner: "0x01", WritingIpfsHash: "Qm", MetadataIpfsHash: "Qm",
				SessionID: fmt.Sprintf("token-session-%d", i), MintedAt: int64(i * 10), FID: 1,
			})
			require.NoError(t, err)
		}
		page, err := store.ListTokens(ctx, PageQuery{Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 4)
		assert.Equal(t, "4", page.Items[0].ID)
		assert.Nil(t, page.NextCursor)

		byFID, err := store.GetTokensByFID(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, byFID, 4)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		q := PageQuery{Limit: 1000, Direction: "sideways"}.Normalize()
		assert.Equal(t, MaxPageSize, q.Limit)
		assert.Equal(t, DirectionNext, q.Direction)
		assert.Equal(t, DefaultPageSize, PageQuery{}.Normalize().Limit)
	})
}

func testStats(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.UpsertWriter(ctx, schema.Writer{FID: 1}, keepExistingWriter)
	require.NoError(t, err)
	insertSession(t, store, buildTestSession("a", 1, types.Int64Ptr(1), nil, true, false))
	insertSession(t, store, buildTestSession("b", 1, types.Int64Ptr(1), nil, false, false))
	_, err = store.InsertToken(ctx, schema.AnkyToken{ID: "1", Owner: "0x", WritingIpfsHash: "Qm", MetadataIpfsHash: "Qm", SessionID: "a", MintedAt: 1, FID: 1})
	require.NoError(t, err)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalWriters)
	assert.Equal(t, int64(2), stats.TotalSessions)
	assert.Equal(t, int64(1), stats.TotalTokens)
	assert.Equal(t, int64(1), stats.TotalAnkys)
}

func testBlockCursor(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get non-existent cursor returns 0", func(t *testing.T) {
		cursor, err := store.GetBlockCursor(ctx, "test_chain_nonexistent")
		require.NoError(t, err)
		assert.Equal(t, uint64(0), cursor)
	})

	t.Run("set and update cursor", func(t *testing.T) {
		chain := "eip155:666666666"

		require.NoError(t, store.SetBlockCursor(ctx, chain, 100))
		require.NoError(t, store.SetBlockCursor(ctx, chain, 200))

		cursor, err := store.GetBlockCursor(ctx, chain)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), cursor)
	})
}

// RunStoreTests runs the shared behavioural suite against a Store implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"UpsertWriter", testUpsertWriter},
		{"UpdateWriter", testUpdateWriter},
		{"UpsertSession", testUpsertSession},
		{"InsertOrIgnore", testInsertOrIgnore},
		{"FindLatestUnmintedAnkySession", testFindLatestUnmintedAnkySession},
		{"EventJournal", testEventJournal},
		{"WithTx", testWithTx},
		{"ListForRebuild", testListForRebuild},
		{"ReplaceLeaderboard", testReplaceLeaderboard},
		{"Pagination", testPagination},
		{"Stats", testStats},
		{"BlockCursor", testBlockCursor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
