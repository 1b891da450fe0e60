package store

import (
	"sort"
	"strconv"

	"github.com/feral-file/anky-indexer/internal/store/schema"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Direction is the direction of travel from a cursor
type Direction string

const (
	DirectionNext Direction = "next"
	DirectionPrev Direction = "prev"
)

// Cursor is a position in a listing ordered by (Key, ID) descending
type Cursor struct {
	Key int64
	ID  string
}

// Less reports whether c sorts after o in a descending listing
func (c Cursor) Less(o Cursor) bool {
	if c.Key != o.Key {
		return c.Key < o.Key
	}
	return c.ID < o.ID
}

// PageQuery describes one page request
type PageQuery struct {
	// Cursor is nil for the first page
	Cursor    *Cursor
	Limit     int
	Direction Direction
}

// Normalize applies the default and maximum page size and the default direction
func (q PageQuery) Normalize() PageQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.Direction != DirectionPrev {
		q.Direction = DirectionNext
	}
	return q
}

// Page is one page of a listing with cursors for the neighbouring pages
type Page[T any] struct {
	Items      []T
	NextCursor *Cursor
	PrevCursor *Cursor
}

// buildPage turns up to limit+1 rows, fetched in travel order, into a page in listing order.
// For next pages rows are descending, for prev pages rows are ascending from the cursor.
func buildPage[T any](rows []T, q PageQuery, cursorOf func(T) Cursor) *Page[T] {
	hasMore := len(rows) > q.Limit
	if hasMore {
		rows = rows[:q.Limit]
	}

	page := &Page[T]{Items: rows}
	if len(rows) == 0 {
		page.Items = []T{}
		return page
	}

	if q.Direction == DirectionPrev {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
		last := cursorOf(rows[len(rows)-1])
		page.NextCursor = &last
		if hasMore {
			first := cursorOf(rows[0])
			page.PrevCursor = &first
		}
		return page
	}

	if hasMore {
		last := cursorOf(rows[len(rows)-1])
		page.NextCursor = &last
	}
	if q.Cursor != nil {
		first := cursorOf(rows[0])
		page.PrevCursor = &first
	}
	return page
}

// paginateSlice pages an in-memory listing using the same rules as the SQL queries
func paginateSlice[T any](all []T, q PageQuery, cursorOf func(T) Cursor) *Page[T] {
	q = q.Normalize()

	// descending listing order
	sort.SliceStable(all, func(i, j int) bool {
		return cursorOf(all[j]).Less(cursorOf(all[i]))
	})

	var rows []T
	if q.Direction == DirectionPrev {
		for i := len(all) - 1; i >= 0 && len(rows) <= q.Limit; i-- {
			if q.Cursor == nil || q.Cursor.Less(cursorOf(all[i])) {
				rows = append(rows, all[i])
			}
		}
	} else {
		for i := 0; i < len(all) && len(rows) <= q.Limit; i++ {
			if q.Cursor == nil || cursorOf(all[i]).Less(*q.Cursor) {
				rows = append(rows, all[i])
			}
		}
	}

	return buildPage(rows, q, cursorOf)
}

// WriterCursor is the listing position of a writer
func WriterCursor(w schema.Writer) Cursor {
	return Cursor{Key: w.FID, ID: strconv.FormatInt(w.FID, 10)}
}

// SessionCursor is the listing position of a session, an unknown start sorting as 0
func SessionCursor(s schema.Session) Cursor {
	var key int64
	if s.StartTime != nil {
		key = *s.StartTime
	}
	return Cursor{Key: key, ID: s.ID}
}

// TokenCursor is the listing position of a token
func TokenCursor(t schema.AnkyToken) Cursor {
	return Cursor{Key: t.MintedAt, ID: t.ID}
}
