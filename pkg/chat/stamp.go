package chat

import "time"

// StampKind distinguishes how a timestamp was assigned.
type StampKind int

const (
	// StampPending means the durable write is still in flight and the
	// server has not assigned a time yet.
	StampPending StampKind = iota
	// StampProvisional is a client-assigned time, used until the server
	// assigns an authoritative one.
	StampProvisional
	// StampServer is an authoritative server-assigned time.
	StampServer
)

// Stamp is a tagged timestamp: pending, client-provisional, or
// server-assigned. A pending stamp sorts as "now" but never carries a
// value of its own.
type Stamp struct {
	Kind StampKind `json:"kind"`
	Time time.Time `json:"time"`
}

func PendingStamp() Stamp {
	return Stamp{Kind: StampPending}
}

func ProvisionalStamp(t time.Time) Stamp {
	return Stamp{Kind: StampProvisional, Time: t}
}

func ServerStamp(t time.Time) Stamp {
	return Stamp{Kind: StampServer, Time: t}
}

// Resolve returns the comparable time for ordering. Pending stamps
// resolve to now; they have no time of their own.
func (s Stamp) Resolve(now time.Time) time.Time {
	if s.Kind == StampPending {
		return now
	}
	return s.Time
}

// Compare orders two stamps at a given "now". Negative means s sorts
// before other.
func (s Stamp) Compare(other Stamp, now time.Time) int {
	a, b := s.Resolve(now), other.Resolve(now)
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
