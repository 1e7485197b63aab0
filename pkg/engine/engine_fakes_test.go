package engine_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/legalintel/counsel/pkg/store"
	"github.com/legalintel/counsel/pkg/stream"
)

// fakeSource scripts the model stream for one or more submissions.
type fakeSource struct {
	openErr error
	opens   atomic.Int32
	next    func() <-chan stream.Fragment
}

func (f *fakeSource) Open(ctx context.Context, query string) (<-chan stream.Fragment, error) {
	f.opens.Add(1)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.next(), nil
}

// scriptedSource yields the given fragments and completes.
func scriptedSource(texts ...string) *fakeSource {
	return &fakeSource{next: func() <-chan stream.Fragment {
		ch := make(chan stream.Fragment, len(texts))
		for _, t := range texts {
			ch <- stream.Fragment{Text: t}
		}
		close(ch)
		return ch
	}}
}

// failingSource yields the given fragments and then a terminal error.
func failingSource(err error, texts ...string) *fakeSource {
	return &fakeSource{next: func() <-chan stream.Fragment {
		ch := make(chan stream.Fragment, len(texts)+1)
		for _, t := range texts {
			ch <- stream.Fragment{Text: t}
		}
		ch <- stream.Fragment{Err: err}
		close(ch)
		return ch
	}}
}

// manualSource hands the test direct control over fragment delivery.
type manualSource struct {
	fakeSource
	ch chan stream.Fragment
}

func newManualSource() *manualSource {
	m := &manualSource{ch: make(chan stream.Fragment)}
	m.next = func() <-chan stream.Fragment { return m.ch }
	return m
}

func (m *manualSource) push(text string) { m.ch <- stream.Fragment{Text: text} }
func (m *manualSource) fail(err error)   { m.ch <- stream.Fragment{Err: err} }
func (m *manualSource) finish()          { close(m.ch) }

// fakeLog records append intents and lets the test hand-deliver change
// feed snapshots.
type fakeLog struct {
	mu      sync.Mutex
	appends []store.Record
	feed    chan store.Snapshot
}

func newFakeLog() *fakeLog {
	return &fakeLog{feed: make(chan store.Snapshot, 16)}
}

func (f *fakeLog) Append(ctx context.Context, owner string, rec store.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends = append(f.appends, rec)
	return nil
}

func (f *fakeLog) Subscribe(ctx context.Context, owner string) (<-chan store.Snapshot, error) {
	return f.feed, nil
}

func (f *fakeLog) deliver(recs ...store.Record) {
	f.feed <- store.Snapshot{Records: recs}
}

func (f *fakeLog) appended() []store.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Record(nil), f.appends...)
}
