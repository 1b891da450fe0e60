package rest

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/anky-indexer/internal/store"
	"github.com/feral-file/anky-indexer/internal/types"
)

// PageQueryParams holds the raw pagination query parameters
type PageQueryParams struct {
	Cursor    string `form:"cursor"`
	Limit     string `form:"limit"`
	Direction string `form:"direction"`
}

// ParsePageQuery validates cursor, limit and direction.
// limit defaults to 20 and is clamped to 100; a non-numeric or non-positive limit is rejected.
func ParsePageQuery(c *gin.Context, codec CursorCodec) (store.PageQuery, error) {
	var params PageQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return store.PageQuery{}, err
	}

	q := store.PageQuery{
		Limit:     store.DefaultPageSize,
		Direction: store.DirectionNext,
	}

	if params.Limit != "" {
		limit, err := strconv.Atoi(params.Limit)
		if err != nil || limit < 1 {
			return store.PageQuery{}, fmt.Errorf("limit must be a positive integer, got %q", params.Limit)
		}
		if limit > store.MaxPageSize {
			limit = store.MaxPageSize
		}
		q.Limit = limit
	}

	switch store.Direction(params.Direction) {
	case "", store.DirectionNext:
	case store.DirectionPrev:
		q.Direction = store.DirectionPrev
	default:
		return store.PageQuery{}, fmt.Errorf("direction must be %q or %q, got %q", store.DirectionNext, store.DirectionPrev, params.Direction)
	}

	if params.Cursor != "" {
		cursor, err := codec.Decode(params.Cursor)
		if err != nil {
			return store.PageQuery{}, err
		}
		q.Cursor = cursor
	}

	return q, nil
}

// ParseFID parses a Farcaster id path parameter
func ParseFID(raw string) (int64, error) {
	fid, ok := types.ParseFID(raw)
	if !ok {
		return 0, fmt.Errorf("fid must be a non-negative integer, got %q", raw)
	}
	return fid, nil
}

// ParseTokenID parses a uint256 token id and returns its canonical decimal form
func ParseTokenID(raw string) (string, error) {
	id, ok := new(big.Int).SetString(raw, 10)
	if !ok || id.Sign() < 0 {
		return "", fmt.Errorf("token id must be a decimal integer, got %q", raw)
	}
	return id.String(), nil
}
