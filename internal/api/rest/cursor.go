package rest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/feral-file/anky-indexer/internal/adapter"
	"github.com/feral-file/anky-indexer/internal/store"
)

// ErrInvalidCursor is returned for a cursor this API did not issue
var ErrInvalidCursor = errors.New("invalid cursor")

// CursorCodec turns a listing position into an opaque query-string token and back.
// The plain form is "<sortKey>|<id>".
type CursorCodec struct {
	base64 adapter.Base64
}

func NewCursorCodec(b64 adapter.Base64) CursorCodec {
	return CursorCodec{base64: b64}
}

// Encode returns nil for a nil cursor
func (c CursorCodec) Encode(cursor *store.Cursor) *string {
	if cursor == nil {
		return nil
	}
	s := c.base64.Encode([]byte(fmt.Sprintf("%d|%s", cursor.Key, cursor.ID)))
	return &s
}

func (c CursorCodec) Decode(token string) (*store.Cursor, error) {
	raw, err := c.base64.Decode(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	key, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}

	sortKey, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &store.Cursor{Key: sortKey, ID: id}, nil
}
