package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/api/middleware"
	"github.com/feral-file/anky-indexer/internal/api/rest/dto"
	"github.com/feral-file/anky-indexer/internal/logger"
	"github.com/feral-file/anky-indexer/internal/providers/temporal"
	"github.com/feral-file/anky-indexer/internal/store"
	"github.com/feral-file/anky-indexer/internal/streak"
	"github.com/feral-file/anky-indexer/internal/workflows"
)

// Handler defines the interface for REST API handlers
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// ListWriters pages writers by fid descending
	// GET /api/v1/writers?cursor=<cursor>&limit=<limit>&direction=<next|prev>
	ListWriters(c *gin.Context)

	// GetWriter returns a writer with its sessions, tokens and streaks
	// GET /api/v1/writers/:fid
	GetWriter(c *gin.Context)

	// ListWriterSessions pages the sessions of one writer
	// GET /api/v1/writers/:fid/sessions?cursor=<cursor>&limit=<limit>&direction=<next|prev>
	ListWriterSessions(c *gin.Context)

	// ListSessions pages sessions by start time descending
	// GET /api/v1/sessions?cursor=<cursor>&limit=<limit>&direction=<next|prev>
	ListSessions(c *gin.Context)

	// ListTokens pages tokens by mint time descending
	// GET /api/v1/tokens?cursor=<cursor>&limit=<limit>&direction=<next|prev>
	ListTokens(c *gin.Context)

	// GetToken returns a single token
	// GET /api/v1/tokens/:id
	GetToken(c *gin.Context)

	// GetStats returns global counts
	// GET /api/v1/stats
	GetStats(c *gin.Context)

	// GetLeaderboard returns the current leaderboard
	// GET /api/v1/leaderboard
	GetLeaderboard(c *gin.Context)

	// RebuildLeaderboard runs a leaderboard rebuild and waits for it (requires authentication)
	// POST /api/v1/leaderboard/rebuild
	RebuildLeaderboard(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// Config holds the REST handler configuration
type Config struct {
	// TaskQueue is the Temporal task queue served by worker-core
	TaskQueue string
}

type handler struct {
	config       Config
	store        store.Store
	orchestrator temporal.TemporalOrchestrator
	clock        adapter.Clock
	cursors      CursorCodec
}

// NewHandler creates a new REST API handler; a nil orchestrator disables the rebuild trigger
func NewHandler(cfg Config, st store.Store, orchestrator temporal.TemporalOrchestrator, clock adapter.Clock, b64 adapter.Base64) Handler {
	return &handler{
		config:       cfg,
		store:        st,
		orchestrator: orchestrator,
		clock:        clock,
		cursors:      NewCursorCodec(b64),
	}
}

func toPageResponse[S any, D any](codec CursorCodec, page *store.Page[S], fn func(S) D) dto.PageResponse[D] {
	return dto.PageResponse[D]{
		Items:      dto.MapSlice(page.Items, fn),
		NextCursor: codec.Encode(page.NextCursor),
		PrevCursor: codec.Encode(page.PrevCursor),
	}
}

func (h *handler) ListWriters(c *gin.Context) {
	q, err := ParsePageQuery(c, h.cursors)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	page, err := h.store.ListWriters(c.Request.Context(), q)
	if err != nil {
		respondInternalError(c, err, "Failed to list writers")
		return
	}

	c.JSON(http.StatusOK, toPageResponse(h.cursors, page, dto.MapWriterToDTO))
}

func (h *handler) GetWriter(c *gin.Context) {
	fid, err := ParseFID(c.Param("fid"))
	if err != nil {
		respondBadRequest(c, "Invalid fid", err.Error())
		return
	}

	ctx := c.Request.Context()
	writer, err := h.store.FindWriter(ctx, fid)
	if err != nil {
		respondInternalError(c, err, "Failed to get writer")
		return
	}
	if writer == nil {
		respondNotFound(c, "Writer not found")
		return
	}

	sessions, err := h.store.GetSessionsByFID(ctx, fid)
	if err != nil {
		respondInternalError(c, err, "Failed to get writer sessions")
		return
	}

	tokens, err := h.store.GetTokensByFID(ctx, fid)
	if err != nil {
		respondInternalError(c, err, "Failed to get writer tokens")
		return
	}

	stats := streak.Calculate(sessions, h.clock.Now())
	c.JSON(http.StatusOK, dto.MapWriterDetailToDTO(*writer, sessions, tokens, stats))
}

func (h *handler) ListWriterSessions(c *gin.Context) {
	fid, err := ParseFID(c.Param("fid"))
	if err != nil {
		respondBadRequest(c, "Invalid fid", err.Error())
		return
	}

	q, err := ParsePageQuery(c, h.cursors)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	page, err := h.store.ListSessions(c.Request.Context(), &fid, q)
	if err != nil {
		respondInternalError(c, err, "Failed to list writer sessions")
		return
	}

	c.JSON(http.StatusOK, toPageResponse(h.cursors, page, dto.MapSessionToDTO))
}

func (h *handler) ListSessions(c *gin.Context) {
	q, err := ParsePageQuery(c, h.cursors)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	page, err := h.store.ListSessions(c.Request.Context(), nil, q)
	if err != nil {
		respondInternalError(c, err, "Failed to list sessions")
		return
	}

	c.JSON(http.StatusOK, toPageResponse(h.cursors, page, dto.MapSessionToDTO))
}

func (h *handler) ListTokens(c *gin.Context) {
	q, err := ParsePageQuery(c, h.cursors)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	page, err := h.store.ListTokens(c.Request.Context(), q)
	if err != nil {
		respondInternalError(c, err, "Failed to list tokens")
		return
	}

	c.JSON(http.StatusOK, toPageResponse(h.cursors, page, dto.MapTokenToDTO))
}

func (h *handler) GetToken(c *gin.Context) {
	id, err := ParseTokenID(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid token id", err.Error())
		return
	}

	token, err := h.store.FindToken(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "Failed to get token")
		return
	}
	if token == nil {
		respondNotFound(c, "Token not found")
		return
	}

	c.JSON(http.StatusOK, dto.MapTokenToDTO(*token))
}

func (h *handler) GetStats(c *gin.Context) {
	stats, err := h.store.GetStats(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to get stats")
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{
		TotalWriters:  dto.FormatInt(stats.TotalWriters),
		TotalSessions: dto.FormatInt(stats.TotalSessions),
		TotalTokens:   dto.FormatInt(stats.TotalTokens),
		TotalAnkys:    dto.FormatInt(stats.TotalAnkys),
	})
}

func (h *handler) GetLeaderboard(c *gin.Context) {
	entries, err := h.store.GetLeaderboard(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to get leaderboard")
		return
	}

	c.JSON(http.StatusOK, dto.LeaderboardResponse{
		Items: dto.MapSlice(entries, dto.MapLeaderboardEntryToDTO),
	})
}

func (h *handler) RebuildLeaderboard(c *gin.Context) {
	if h.orchestrator == nil {
		respondServiceUnavailable(c, "Leaderboard rebuild is not available")
		return
	}

	ctx := c.Request.Context()
	logger.InfoCtx(ctx, "Leaderboard rebuild requested",
		zap.String("auth_type", c.GetString(middleware.AUTH_TYPE_KEY)),
		zap.String("subject", c.GetString(middleware.AUTH_SUBJECT_KEY)),
	)

	result, err := workflows.TriggerRebuildLeaderboard(ctx, h.orchestrator, h.config.TaskQueue)
	if err != nil {
		respondInternalError(c, err, "Failed to rebuild leaderboard")
		return
	}

	c.JSON(http.StatusOK, dto.RebuildLeaderboardResponse{
		Items:     dto.MapSlice(result.Entries, dto.MapLeaderboardEntryToDTO),
		RebuiltAt: dto.FormatInt(result.RebuiltAt),
	})
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   h.clock.Now().Format(time.RFC3339),
	})
}
