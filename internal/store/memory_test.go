package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/anky-indexer/internal/store/schema"
	"github.com/feral-file/anky-indexer/internal/types"
)

func TestMemoryStore(t *testing.T) {
	RunStoreTests(t, func(t *testing.T) Store { return NewMemoryStore() }, func(t *testing.T) {})
}

func TestMemoryStore_ConcurrentUpsertsAreSerialized(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithTx(ctx, func(tx EntityStore) error {
				_, err := tx.UpsertWriter(ctx, schema.Writer{FID: 1, TotalSessions: 1}, func(existing schema.Writer) WriterPatch {
					return WriterPatch{TotalSessions: types.Int64Ptr(existing.TotalSessions + 1)}
				})
				return err
			})
		}()
	}
	wg.Wait()

	w, err := store.FindWriter(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), w.TotalSessions)
}

func TestMemoryStore_NestedTxRollsBackInnerOnly(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx EntityStore) error {
		if _, err := tx.UpsertWriter(ctx, schema.Writer{FID: 1}, keepExistingWriter); err != nil {
			return err
		}
		inner := tx.WithTx(ctx, func(inner EntityStore) error {
			_, _ = inner.UpsertWriter(ctx, schema.Writer{FID: 2}, keepExistingWriter)
			return assert.AnError
		})
		assert.ErrorIs(t, inner, assert.AnError)
		return nil
	})
	require.NoError(t, err)

	w1, _ := store.FindWriter(ctx, 1)
	w2, _ := store.FindWriter(ctx, 2)
	assert.NotNil(t, w1)
	assert.Nil(t, w2)
}
