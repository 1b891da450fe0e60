package dto

import (
	"github.com/feral-file/anky-indexer/internal/store/schema"
	"github.com/feral-file/anky-indexer/internal/streak"
	"github.com/feral-file/anky-indexer/internal/types"
)

// 64-bit integers are rendered as decimal strings so JavaScript clients keep full precision

// WriterResponse represents a writer
type WriterResponse struct {
	FID              string  `json:"fid"`
	CurrentSessionID *string `json:"currentSessionId"`
	TotalSessions    string  `json:"totalSessions"`
}

// WriterDetailResponse is a writer with its sessions, tokens and streaks
type WriterDetailResponse struct {
	WriterResponse
	CurrentStreak   int               `json:"currentStreak"`
	MaxStreak       int               `json:"maxStreak"`
	DaysInAnkyverse int               `json:"daysInAnkyverse"`
	Sessions        []SessionResponse `json:"sessions"`
	Tokens          []TokenResponse   `json:"tokens"`
}

// SessionResponse represents a writing session
type SessionResponse struct {
	ID        string  `json:"id"`
	FID       string  `json:"fid"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
	IpfsHash  *string `json:"ipfsHash"`
	IsAnky    bool    `json:"isAnky"`
	IsMinted  bool    `json:"isMinted"`
}

// TokenResponse represents a minted Anky
type TokenResponse struct {
	ID               string `json:"id"`
	Owner            string `json:"owner"`
	WritingIpfsHash  string `json:"writingIpfsHash"`
	MetadataIpfsHash string `json:"metadataIpfsHash"`
	SessionID        string `json:"sessionId"`
	MintedAt         string `json:"mintedAt"`
	FID              string `json:"fid"`
}

// LeaderboardEntryResponse represents one leaderboard row
type LeaderboardEntryResponse struct {
	FID             string `json:"fid"`
	CurrentStreak   int    `json:"currentStreak"`
	MaxStreak       int    `json:"maxStreak"`
	DaysInAnkyverse int    `json:"daysInAnkyverse"`
	LastUpdated     string `json:"lastUpdated"`
	TotalSessions   string `json:"totalSessions"`
	TotalAnky       string `json:"totalAnky"`
	TotalAnkyMinted string `json:"totalAnkyMinted"`
}

// LeaderboardResponse wraps the leaderboard rows
type LeaderboardResponse struct {
	Items []LeaderboardEntryResponse `json:"items"`
}

// RebuildLeaderboardResponse is returned by a completed rebuild
type RebuildLeaderboardResponse struct {
	Items     []LeaderboardEntryResponse `json:"items"`
	RebuiltAt string                     `json:"rebuiltAt"`
}

// StatsResponse holds global counts
type StatsResponse struct {
	TotalWriters  string `json:"totalWriters"`
	TotalSessions string `json:"totalSessions"`
	TotalTokens   string `json:"totalTokens"`
	TotalAnkys    string `json:"totalAnkys"`
}

// PageResponse is one page of a cursor-paginated listing
type PageResponse[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor"`
	PrevCursor *string `json:"prevCursor"`
}

// FormatInt renders an int64 as a decimal string
func FormatInt(v int64) string {
	return types.FormatInt64(v)
}

func MapWriterToDTO(w schema.Writer) WriterResponse {
	return WriterResponse{
		FID:              FormatInt(w.FID),
		CurrentSessionID: w.CurrentSessionID,
		TotalSessions:    FormatInt(w.TotalSessions),
	}
}

func MapWriterDetailToDTO(w schema.Writer, sessions []schema.Session, tokens []schema.AnkyToken, stats streak.Stats) WriterDetailResponse {
	return WriterDetailResponse{
		WriterResponse:  MapWriterToDTO(w),
		CurrentStreak:   stats.CurrentStreak,
		MaxStreak:       stats.MaxStreak,
		DaysInAnkyverse: stats.DaysInAnkyverse,
		Sessions:        MapSlice(sessions, MapSessionToDTO),
		Tokens:          MapSlice(tokens, MapTokenToDTO),
	}
}

func MapSessionToDTO(s schema.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		FID:       FormatInt(s.FID),
		StartTime: types.FormatInt64Ptr(s.StartTime),
		EndTime:   types.FormatInt64Ptr(s.EndTime),
		IpfsHash:  s.IpfsHash,
		IsAnky:    s.IsAnky,
		IsMinted:  s.IsMinted,
	}
}

func MapTokenToDTO(t schema.AnkyToken) TokenResponse {
	return TokenResponse{
		ID:               t.ID,
		Owner:            t.Owner,
		WritingIpfsHash:  t.WritingIpfsHash,
		MetadataIpfsHash: t.MetadataIpfsHash,
		SessionID:        t.SessionID,
		MintedAt:         FormatInt(t.MintedAt),
		FID:              FormatInt(t.FID),
	}
}

func MapLeaderboardEntryToDTO(e schema.LeaderboardEntry) LeaderboardEntryResponse {
	return LeaderboardEntryResponse{
		FID:             FormatInt(e.FID),
		CurrentStreak:   e.CurrentStreak,
		MaxStreak:       e.MaxStreak,
		DaysInAnkyverse: e.DaysInAnkyverse,
		LastUpdated:     FormatInt(e.LastUpdated),
		TotalSessions:   FormatInt(e.TotalSessions),
		TotalAnky:       FormatInt(e.TotalAnky),
		TotalAnkyMinted: FormatInt(e.TotalAnkyMinted),
	}
}

// MapSlice maps every item, returning an empty slice rather than nil
func MapSlice[S any, D any](items []S, fn func(S) D) []D {
	out := make([]D, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
