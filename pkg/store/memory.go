package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryLog is an in-process Log for tests and single-process use. It
// mimics the durable store's observable behavior: server-assigned IDs
// and times, and full-snapshot redelivery on every append.
type MemoryLog struct {
	mu      sync.RWMutex
	records map[string][]Record
	subs    map[string][]chan Snapshot
	nextID  uint64
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		records: make(map[string][]Record),
		subs:    make(map[string][]chan Snapshot),
	}
}

func (l *MemoryLog) Append(ctx context.Context, owner string, rec Record) error {
	l.mu.Lock()
	l.nextID++
	rec.ID = fmt.Sprintf("mem-%d", l.nextID)
	rec.Time = time.Now()
	l.records[owner] = append(l.records[owner], rec)
	snap := Snapshot{Records: append([]Record(nil), l.records[owner]...)}
	for _, sub := range l.subs[owner] {
		select {
		case sub <- snap:
		default:
			// Slow subscriber; it will catch up on the next append.
		}
	}
	l.mu.Unlock()
	return nil
}

func (l *MemoryLog) Subscribe(ctx context.Context, owner string) (<-chan Snapshot, error) {
	ch := make(chan Snapshot, 8)

	l.mu.Lock()
	l.subs[owner] = append(l.subs[owner], ch)
	if recs := l.records[owner]; len(recs) > 0 {
		ch <- Snapshot{Records: append([]Record(nil), recs...)}
	}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		subs := l.subs[owner]
		for i, sub := range subs {
			if sub == ch {
				l.subs[owner] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		l.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Records returns a copy of the owner's log, for assertions and history
// display.
func (l *MemoryLog) Records(owner string) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Record(nil), l.records[owner]...)
}
