package stream

import "context"

// Fragment is one unit of an in-flight model response: a piece of text,
// or the terminal error that ended the stream. A fragment never carries
// both.
type Fragment struct {
	Text string
	Err  error
}

// Source opens one request to the language model and yields its response
// incrementally. The returned channel closes exactly once: after the
// final fragment on success, or after a single error fragment on failure.
// A stream is finite and not restartable; retry policy, if any, belongs
// to the implementation.
type Source interface {
	Open(ctx context.Context, query string) (<-chan Fragment, error)
}
