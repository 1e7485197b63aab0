package store

import (
	"context"
	"time"
)

// Record is one durable message in an owner's log. ID and Time are
// assigned by the store; a Record passed to Append carries only Role and
// Content, and a Record read back before the server has assigned a time
// has a zero Time.
type Record struct {
	ID      string    `json:"id"`
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// Snapshot is one delivery from an owner's change feed: the records known
// to the store at that point, or an incremental batch of new ones.
// Deliveries are at-least-once and not necessarily in append order;
// consumers must deduplicate by Record.ID.
type Snapshot struct {
	Records []Record
}

// Log is an append-only per-owner message store with asynchronous change
// notifications.
type Log interface {
	// Append requests a durable write. The write is fire-and-forget from
	// the caller's point of view: an error means the request could not be
	// issued, and a request that was issued may still be lost silently.
	Append(ctx context.Context, owner string, rec Record) error

	// Subscribe delivers snapshots of the owner's log until ctx is
	// cancelled. The channel is closed when the subscription ends.
	Subscribe(ctx context.Context, owner string) (<-chan Snapshot, error)
}
