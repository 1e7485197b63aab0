package chat

import (
	"sort"
	"time"
)

// Transcript is an ordered, deduplicated view of a conversation.
// It is always a copy; mutating it never affects the engine's state.
type Transcript []Entry

// Merge builds a transcript from the persisted log and the
// local-optimistic entries that have not been superseded yet. A local
// entry is superseded once any persisted entry carries the same role and
// content. The result is deduplicated by ID (persisted copy wins) and
// sorted with SortEntries.
func Merge(local, persisted []Entry, now time.Time) Transcript {
	merged := make(Transcript, 0, len(local)+len(persisted))

	seen := make(map[string]struct{}, len(persisted))
	for _, p := range persisted {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		merged = append(merged, p)
	}

	for _, l := range local {
		if matched(l, persisted) {
			continue
		}
		merged = append(merged, l)
	}

	SortEntries(merged, now)
	return merged
}

func matched(local Entry, persisted []Entry) bool {
	// Only terminal entries can be retired; a streaming entry's content
	// is still growing and must stay visible.
	if !local.IsTerminal() || local.Status == StatusFailed {
		return false
	}
	for _, p := range persisted {
		if local.Matches(p) {
			return true
		}
	}
	return false
}

// SortEntries orders entries ascending by stamp, ties broken by role
// (user before assistant) then creation order. The sort is stable so
// equal entries keep their relative positions across publishes.
func SortEntries(entries []Entry, now time.Time) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if c := a.Stamp.Compare(b.Stamp, now); c != 0 {
			return c < 0
		}
		if a.Role != b.Role {
			return a.IsUser()
		}
		return a.Seq < b.Seq
	})
}

// ContainsEquivalent reports whether the transcript has an entry with the
// given role and content. Used to verify no visible message vanishes
// between publishes without an equivalent replacement.
func (t Transcript) ContainsEquivalent(role, content string) bool {
	for _, e := range t {
		if e.Role == role && e.Content == content {
			return true
		}
	}
	return false
}

// Clone returns an independent copy for handing across the presentation
// boundary.
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}
