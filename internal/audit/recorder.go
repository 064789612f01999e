package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sigil/pkg/requestcontext"
)

// Recorder stamps and appends audit entries. The primary store write is
// synchronous and its error propagates to the caller: an identity mutation
// whose trail cannot be written must not be reported as fully successful.
//
// An optional mirror channel receives a copy of every appended entry for
// out-of-process sinks (see the kafka subpackage). The mirror is
// best-effort: a full buffer drops the copy and reports it via onDrop,
// never blocking or failing the primary append.
type Recorder struct {
	store  Store
	clock  func() time.Time
	mirror chan<- Entry
	onDrop func()
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock sets the timestamp source for testability.
func WithClock(clock func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithMirror attaches a best-effort mirror channel. onDrop is invoked each
// time a copy is discarded because the buffer is full; it may be nil.
func WithMirror(mirror chan<- Entry, onDrop func()) RecorderOption {
	return func(r *Recorder) {
		r.mirror = mirror
		r.onDrop = onDrop
	}
}

// NewRecorder constructs a Recorder writing to store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store: store,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stamps the entry and appends it. The returned error is the primary
// store's; callers treat it as fatal for the surrounding operation.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if entry.Timestamp.IsZero() {
		if r.clock != nil {
			entry.Timestamp = r.clock()
		} else {
			// Middleware pins the request time; every entry recorded during
			// one request shares the same stamp.
			entry.Timestamp = requestcontext.Now(ctx)
		}
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	if err := r.store.Append(ctx, entry); err != nil {
		return err
	}

	if r.mirror != nil {
		select {
		case r.mirror <- entry:
		default:
			if r.onDrop != nil {
				r.onDrop()
			}
		}
	}
	return nil
}
