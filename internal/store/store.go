// ABOUTME: Item record and the Directory contract used by the relay and the catalog pager
// ABOUTME: Directory is read-only; ItemStore adds the mutations used by the items CLI

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested item does not exist
var ErrNotFound = errors.New("not found")

// Item is a catalog event record
type Item struct {
	ID          int64
	OwnerID     int64 // owner's user id; also their private chat id on the service bot
	Name        string
	Header      string
	Description string
	Media       string // photo file id, valid on the client bot
	ValidUntil  time.Time
	CreatedAt   time.Time
}

// Directory is the read-only accessor over the item collection.
// Implementations must be safe for concurrent use.
type Directory interface {
	// Count returns the number of items.
	Count(ctx context.Context) (int, error)

	// FetchByOffset returns the item at offset in id-ascending order.
	// Only limit == 1 is used by callers; the first row is returned.
	FetchByOffset(ctx context.Context, limit, offset int) (*Item, error)

	// FetchByID returns ErrNotFound when the item does not exist.
	FetchByID(ctx context.Context, id int64) (*Item, error)
}

// ItemStore is the full item storage surface
type ItemStore interface {
	Directory

	CreateItem(ctx context.Context, item *Item) error
	ListItems(ctx context.Context, limit int) ([]*Item, error)
	DeleteItem(ctx context.Context, id int64) error

	// Close releases any resources held by the store
	Close() error
}
