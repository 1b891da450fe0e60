package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/domain"
	"github.com/feral-file/anky-indexer/internal/logger"
	"github.com/feral-file/anky-indexer/internal/store"
	"github.com/feral-file/anky-indexer/internal/store/schema"
	"github.com/feral-file/anky-indexer/internal/streak"
)

const rebuildKey = "leaderboard"

// Config holds the configuration for the leaderboard rebuilder
type Config struct {
	// Size is the number of writers kept on the leaderboard
	Size int
	// Concurrency bounds the writers evaluated in parallel
	Concurrency int
}

// Rebuilder recomputes the leaderboard from every writer's sessions
//
//go:generate mockgen -source=leaderboard.go -destination=../mocks/leaderboard.go -package=mocks -mock_names=Rebuilder=MockRebuilder
type Rebuilder interface {
	// Rebuild replaces the leaderboard with the current top writers and returns the new rows.
	// Concurrent calls share a single run.
	Rebuild(ctx context.Context) ([]schema.LeaderboardEntry, error)
}

type rebuilder struct {
	store  store.EntityStore
	clock  adapter.Clock
	config Config
	group  singleflight.Group
}

// NewRebuilder creates a new leaderboard rebuilder
func NewRebuilder(cfg Config, st store.EntityStore, clock adapter.Clock) Rebuilder {
	if cfg.Size < 1 {
		cfg.Size = domain.DEFAULT_LEADERBOARD_SIZE
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &rebuilder{
		store:  st,
		clock:  clock,
		config: cfg,
	}
}

// Rebuild replaces the leaderboard with the current top writers
func (r *rebuilder) Rebuild(ctx context.Context) ([]schema.LeaderboardEntry, error) {
	v, err, shared := r.group.Do(rebuildKey, func() (interface{}, error) {
		return r.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}

	entries := v.([]schema.LeaderboardEntry)
	if shared {
		logger.InfoCtx(ctx, "Joined an in-flight leaderboard rebuild", zap.Int("entries", len(entries)))
	}

	return entries, nil
}

func (r *rebuilder) rebuild(ctx context.Context) ([]schema.LeaderboardEntry, error) {
	now := r.clock.Now()
	logger.InfoCtx(ctx, "Rebuilding leaderboard", zap.Int("size", r.config.Size))

	writers, err := r.store.ListAllWriters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list writers: %w", err)
	}

	pool := pond.NewResultPool[schema.LeaderboardEntry](r.config.Concurrency, pond.WithContext(ctx))
	defer pool.StopAndWait()

	tasks := make([]pond.Result[schema.LeaderboardEntry], 0, len(writers))
	for _, w := range writers {
		writer := w
		tasks = append(tasks, pool.SubmitErr(func() (schema.LeaderboardEntry, error) {
			return r.evaluate(ctx, writer, now)
		}))
	}

	candidates := make([]schema.LeaderboardEntry, 0, len(writers))
	for _, task := range tasks {
		entry, err := task.Wait()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, entry)
	}

	entries := Rank(candidates, r.config.Size)
	if err := r.store.ReplaceLeaderboard(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to replace leaderboard: %w", err)
	}

	logger.InfoCtx(ctx, "Leaderboard rebuilt",
		zap.Int("writers", len(writers)),
		zap.Int("entries", len(entries)),
		zap.Duration("duration", r.clock.Since(now)),
	)

	return entries, nil
}

// evaluate computes the leaderboard candidate of one writer
func (r *rebuilder) evaluate(ctx context.Context, writer schema.Writer, now time.Time) (schema.LeaderboardEntry, error) {
	sessions, err := r.store.GetSessionsByFID(ctx, writer.FID)
	if err != nil {
		return schema.LeaderboardEntry{}, fmt.Errorf("failed to get sessions of fid %d: %w", writer.FID, err)
	}

	stats := streak.Calculate(sessions, now)
	entry := schema.LeaderboardEntry{
		FID:             writer.FID,
		CurrentStreak:   stats.CurrentStreak,
		MaxStreak:       stats.MaxStreak,
		DaysInAnkyverse: stats.DaysInAnkyverse,
		LastUpdated:     now.Unix(),
		TotalSessions:   writer.TotalSessions,
	}
	for _, s := range sessions {
		if s.IsAnky {
			entry.TotalAnky++
		}
		if s.IsMinted {
			entry.TotalAnkyMinted++
		}
	}

	return entry, nil
}

// Rank orders candidates by current streak, then max streak, both descending, then fid ascending,
// and keeps the first size entries
func Rank(candidates []schema.LeaderboardEntry, size int) []schema.LeaderboardEntry {
	ranked := make([]schema.LeaderboardEntry, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.CurrentStreak != b.CurrentStreak {
			return a.CurrentStreak > b.CurrentStreak
		}
		if a.MaxStreak != b.MaxStreak {
			return a.MaxStreak > b.MaxStreak
		}
		return a.FID < b.FID
	})

	if size >= 0 && len(ranked) > size {
		ranked = ranked[:size]
	}
	return ranked
}
