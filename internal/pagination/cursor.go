package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Cursor is a decoded keyset position: the id and timestamp of the last row
// of the previous page.
type Cursor struct {
	LastID    int64
	Timestamp time.Time
}

// Page is one page of results plus the cursor for fetching the next one.
type Page[T any] struct {
	Items      []T
	NextCursor string
	HasMore    bool
}

var ErrInvalidCursor = errors.New("invalid cursor format")

// Encode creates an opaque cursor from the last row's id and timestamp.
func Encode(lastID int64, timestamp time.Time) string {
	raw := strconv.FormatInt(lastID, 10) + "|" + timestamp.UTC().Format(time.RFC3339Nano)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode parses an opaque cursor. An empty cursor means the first page and
// decodes to nil.
func Decode(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}

	lastID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{
		LastID:    lastID,
		Timestamp: timestamp,
	}, nil
}

// NewPage builds a Page from a fetched slice. A full page (len == limit)
// gets a cursor pointing at its last item; a short page is the final one.
func NewPage[T any](items []T, limit int, getID func(T) int64, getTimestamp func(T) time.Time) *Page[T] {
	page := &Page[T]{Items: items}
	if limit <= 0 || len(items) < limit {
		return page
	}
	last := items[len(items)-1]
	page.NextCursor = Encode(getID(last), getTimestamp(last))
	page.HasMore = true
	return page
}
