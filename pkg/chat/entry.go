package chat

import (
	"strings"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Origin describes where a transcript entry came from.
type Origin string

const (
	// OriginLocal marks an optimistic entry created on this client before
	// any durable write has been confirmed.
	OriginLocal Origin = "local"
	// OriginPersisted marks an entry confirmed by the durable log.
	OriginPersisted Origin = "persisted"
)

// Status tracks the lifecycle of an assistant entry.
// User entries are always StatusComplete.
type Status string

const (
	StatusPending   Status = "pending"
	StatusStreaming Status = "streaming"
	StatusComplete  Status = "complete"
	StatusFailed    Status = "failed"
)

// Entry is one transcript unit: a user query or an assistant reply.
type Entry struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Origin  Origin `json:"origin"`
	Stamp   Stamp  `json:"stamp"`
	Status  Status `json:"status"`

	// Seq is assigned in creation order and breaks timestamp ties.
	Seq uint64 `json:"seq"`
}

func NewUserEntry(content string, stamp Stamp, seq uint64) Entry {
	return Entry{
		ID:      uuid.NewString(),
		Role:    RoleUser,
		Content: strings.TrimSpace(content),
		Origin:  OriginLocal,
		Stamp:   stamp,
		Status:  StatusComplete,
		Seq:     seq,
	}
}

func NewAssistantEntry(stamp Stamp, seq uint64) Entry {
	return Entry{
		ID:     uuid.NewString(),
		Role:   RoleAssistant,
		Origin: OriginLocal,
		Stamp:  stamp,
		Status: StatusPending,
		Seq:    seq,
	}
}

func (e Entry) IsUser() bool {
	return e.Role == RoleUser
}

func (e Entry) IsAssistant() bool {
	return e.Role == RoleAssistant
}

func (e Entry) IsLocal() bool {
	return e.Origin == OriginLocal
}

func (e Entry) IsPersisted() bool {
	return e.Origin == OriginPersisted
}

// IsTerminal reports whether the entry can no longer change content.
func (e Entry) IsTerminal() bool {
	return e.Status == StatusComplete || e.Status == StatusFailed
}

// Matches reports whether a persisted entry supersedes this local one.
// Identifiers are never compared across origins because the store assigns
// its own; role plus exact content is the correlation heuristic.
func (e Entry) Matches(persisted Entry) bool {
	return e.Role == persisted.Role && e.Content == persisted.Content
}
