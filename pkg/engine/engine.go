package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/legalintel/counsel/pkg/chat"
	"github.com/legalintel/counsel/pkg/logger"
	"github.com/legalintel/counsel/pkg/store"
	"github.com/legalintel/counsel/pkg/stream"
)

// FailureNotice replaces the assistant entry's content when the model
// stream fails. The wording is user-facing.
const FailureNotice = "Failed to get a response from the assistant. Please try again."

var (
	// ErrBusy is returned by Submit while a response is still in flight.
	ErrBusy = errors.New("a response is already in progress")
	// ErrEmptyQuery is returned by Submit for blank input.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// View is an immutable snapshot handed across the presentation boundary.
type View struct {
	Entries chat.Transcript
	Busy    bool
}

// Engine owns the authoritative transcript. It merges locally-originated
// optimistic entries with entries delivered by the durable log, keeping
// one ordered, duplicate-free view published at all times.
//
// Two asynchronous producers mutate the transcript: the active model
// stream and the log's change feed. Neither is serialized behind the
// other; each takes the state lock only long enough to apply its change
// and publish a fresh snapshot.
type Engine struct {
	source stream.Source

	mu        sync.Mutex
	local     []chat.Entry
	persisted map[string]chat.Entry
	order     []string // persisted record IDs in first-seen order
	busy      bool
	seq       uint64
	owner     string
	log       store.Log
	unbind    context.CancelFunc
	snapshot  View

	updates chan struct{}
}

// New creates an engine in anonymous mode. Call Bind to attach a durable
// log once the user is known.
func New(source stream.Source) *Engine {
	e := &Engine{
		source:    source,
		persisted: make(map[string]chat.Entry),
		updates:   make(chan struct{}, 1),
	}
	e.snapshot = View{Entries: chat.Transcript{}}
	return e
}

// Snapshot returns the latest published view. The returned transcript is
// a copy; callers may hold it indefinitely.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return View{Entries: e.snapshot.Entries.Clone(), Busy: e.snapshot.Busy}
}

// Busy reports whether a submission is still in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Updates signals that a new view has been published; read Snapshot for
// the current one. Signals coalesce: a slow reader wakes once and sees
// the latest view, not every intermediate one.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

// Submit starts one exchange: an optimistic user entry, an assistant
// entry driven by the model stream, and (in authenticated mode)
// fire-and-forget appends to the durable log. It returns ErrBusy while a
// previous exchange is unresolved; the transcript is untouched in that
// case.
func (e *Engine) Submit(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}

	now := time.Now()

	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return ErrBusy
	}
	e.busy = true

	e.seq++
	user := chat.NewUserEntry(query, chat.ProvisionalStamp(now), e.seq)
	e.seq++
	// The assistant stamp sorts at or after the user's; the role
	// tie-break keeps the pair ordered even on equal times.
	assistant := chat.NewAssistantEntry(chat.ProvisionalStamp(now.Add(time.Millisecond)), e.seq)

	e.local = append(e.local, user, assistant)
	log, owner := e.log, e.owner
	e.publishLocked(now)
	e.mu.Unlock()

	if log != nil {
		go e.appendRecord(log, owner, store.Record{Role: chat.RoleUser, Content: query})
	}

	go e.consume(ctx, query, assistant.ID)
	return nil
}

// consume drives one assistant entry to a terminal state.
func (e *Engine) consume(ctx context.Context, query, assistantID string) {
	fragments, err := e.source.Open(ctx, query)
	if err != nil {
		logger.Error("Failed to open model stream: %v", err)
		e.fail(assistantID)
		return
	}

	for frag := range fragments {
		if ctx.Err() != nil {
			// Session is gone; late fragments are discarded.
			e.fail(assistantID)
			return
		}
		if frag.Err != nil {
			logger.Error("Model stream failed: %v", frag.Err)
			e.fail(assistantID)
			return
		}
		e.appendFragment(assistantID, frag.Text)
	}

	e.complete(assistantID)
}

// appendFragment grows the in-flight assistant entry's content. The
// first fragment moves it from pending to streaming.
func (e *Engine) appendFragment(assistantID, text string) {
	if text == "" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	entry, i := e.findLocal(assistantID)
	if i < 0 || entry.IsTerminal() {
		return
	}
	entry.Content += text
	entry.Status = chat.StatusStreaming
	e.local[i] = entry
	e.publishLocked(time.Now())
}

// complete finalizes a successful exchange. An empty reply counts as a
// failure: the provider answered with nothing.
func (e *Engine) complete(assistantID string) {
	e.mu.Lock()

	entry, i := e.findLocal(assistantID)
	if i < 0 {
		e.busy = false
		e.mu.Unlock()
		return
	}
	if entry.Content == "" {
		e.mu.Unlock()
		e.fail(assistantID)
		return
	}

	entry.Status = chat.StatusComplete
	e.local[i] = entry
	e.busy = false
	log, owner := e.log, e.owner
	e.publishLocked(time.Now())
	e.mu.Unlock()

	if log != nil {
		// The local copy stays visible until the change feed confirms
		// the persisted counterpart; retirement happens in merge.
		go e.appendRecord(log, owner, store.Record{Role: chat.RoleAssistant, Content: entry.Content})
	}
}

// fail marks the assistant entry failed with the fixed notice. Failed
// entries are never persisted.
func (e *Engine) fail(assistantID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, i := e.findLocal(assistantID)
	if i >= 0 && !entry.IsTerminal() {
		entry.Status = chat.StatusFailed
		entry.Content = FailureNotice
		e.local[i] = entry
	}
	e.busy = false
	e.publishLocked(time.Now())
}

func (e *Engine) findLocal(id string) (chat.Entry, int) {
	for i, entry := range e.local {
		if entry.ID == id {
			return entry, i
		}
	}
	return chat.Entry{}, -1
}

func (e *Engine) appendRecord(log store.Log, owner string, rec store.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := log.Append(ctx, owner, rec); err != nil {
		// Degradation, not an error the user sees: the optimistic copy
		// keeps the message visible for the rest of the session.
		logger.Warn("Append to chat log failed for %s: %v", owner, err)
	}
}

// Bind attaches (or re-attaches) a durable log mid-session without
// clearing the transcript. Entries already rendered keep their places;
// the change feed's snapshots are merged in as they arrive.
func (e *Engine) Bind(ctx context.Context, owner string, log store.Log) error {
	subCtx, cancel := context.WithCancel(ctx)

	snapshots, err := log.Subscribe(subCtx, owner)
	if err != nil {
		cancel()
		return err
	}

	e.mu.Lock()
	if e.unbind != nil {
		e.unbind()
	}
	e.owner = owner
	e.log = log
	e.unbind = cancel
	e.mu.Unlock()

	go func() {
		for snap := range snapshots {
			e.merge(snap)
		}
	}()
	return nil
}

// Unbind detaches the durable log, returning the engine to anonymous
// mode. The transcript is untouched.
func (e *Engine) Unbind() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unbind != nil {
		e.unbind()
		e.unbind = nil
	}
	e.log = nil
	e.owner = ""
}

// merge folds one change-feed snapshot into the transcript. Deliveries
// are at-least-once and unordered, so records are keyed by store ID and
// ordering comes from stamps alone. Matched local-optimistic entries are
// retired in the same publish that makes their persisted counterparts
// visible.
func (e *Engine) merge(snap store.Snapshot) {
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, rec := range snap.Records {
		if rec.ID == "" {
			logger.Debug("Skipping log record without ID")
			continue
		}
		if existing, ok := e.persisted[rec.ID]; ok {
			// Redelivery may carry a time the first delivery lacked.
			if existing.Stamp.Kind == chat.StampPending && !rec.Time.IsZero() {
				existing.Stamp = chat.ServerStamp(rec.Time)
				e.persisted[rec.ID] = existing
			}
			continue
		}
		e.seq++
		e.persisted[rec.ID] = entryFromRecord(rec, e.seq)
		e.order = append(e.order, rec.ID)
	}

	e.retireMatchedLocked()
	e.publishLocked(now)
}

// retireMatchedLocked drops local entries whose persisted counterparts
// have arrived. The publish that follows shows the persisted copy in the
// same update, so nothing visibly vanishes.
func (e *Engine) retireMatchedLocked() {
	if len(e.persisted) == 0 {
		return
	}

	kept := e.local[:0]
	for _, l := range e.local {
		if l.IsTerminal() && l.Status != chat.StatusFailed && e.hasPersistedMatch(l) {
			continue
		}
		kept = append(kept, l)
	}
	e.local = kept
}

func (e *Engine) hasPersistedMatch(l chat.Entry) bool {
	for _, p := range e.persisted {
		if l.Matches(p) {
			return true
		}
	}
	return false
}

func entryFromRecord(rec store.Record, seq uint64) chat.Entry {
	stamp := chat.PendingStamp()
	if !rec.Time.IsZero() {
		stamp = chat.ServerStamp(rec.Time)
	}
	return chat.Entry{
		ID:      rec.ID,
		Role:    rec.Role,
		Content: rec.Content,
		Origin:  chat.OriginPersisted,
		Stamp:   stamp,
		Status:  chat.StatusComplete,
		Seq:     seq,
	}
}

// publishLocked rebuilds the snapshot atomically and hands it to the
// update channel. Callers hold e.mu.
func (e *Engine) publishLocked(now time.Time) {
	persisted := make([]chat.Entry, 0, len(e.persisted))
	for _, id := range e.order {
		persisted = append(persisted, e.persisted[id])
	}

	e.snapshot = View{
		Entries: chat.Merge(e.local, persisted, now),
		Busy:    e.busy,
	}

	// Coalesce: one pending signal is enough, the reader pulls the
	// latest snapshot when it wakes.
	select {
	case e.updates <- struct{}{}:
	default:
	}
}
