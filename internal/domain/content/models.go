package content

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrNotFound = errors.New("content: not found")

// Request identifies the content of one quest for one day.
type Request struct {
	Type   string
	Format string
	Date   string
}

func (r Request) key() string {
	return r.Type + "|" + r.Format + "|" + r.Date
}

type Item struct {
	ID         string
	Type       string
	FormatType string
	Title      string
	Payload    json.RawMessage
}

// Source provides quest content. Implementations may block on the network.
type Source interface {
	Fetch(ctx context.Context, req Request) (*Item, error)
}
