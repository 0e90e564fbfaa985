// Package checkpoint makes long runs resumable: a small counter state is
// written durably after every processed unit, so a crash loses at most the
// unit that was in flight. The storage mechanism is behind the Store
// interface (local JSON file or Redis key).
package checkpoint

import "context"

// State is the durable progress record for one run.
type State struct {
	Processed    int    `json:"processed"`
	Updated      int    `json:"updated"`
	NotFound     int    `json:"not_found"`
	Errors       int    `json:"errors"`
	LastIdentity string `json:"last_identity"`
}

// Store persists checkpoint state. Load returns nil, nil when no
// checkpoint exists.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
	Clear(ctx context.Context) error
}

// Outcome classifies a fully handled unit.
type Outcome int

const (
	OutcomeUpdated Outcome = iota
	OutcomeNotFound
	OutcomeError
)

// Ledger tracks run progress on top of a Store. Single writer only:
// concurrent runs against the same store are not supported.
type Ledger struct {
	store Store
	state State
}

// NewLedger starts a fresh ledger over the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Resume loads any existing checkpoint into the ledger. With no saved
// state it is a no-op, leaving a fresh run.
func (l *Ledger) Resume(ctx context.Context) error {
	s, err := l.store.Load(ctx)
	if err != nil {
		return err
	}
	if s != nil {
		l.state = *s
	}
	return nil
}

// ShouldSkip reports whether the unit at the given enumeration index was
// already handled by the run being resumed. Only meaningful when the
// enumeration order is unchanged since the checkpoint was written; keeping
// it stable is the caller's responsibility.
func (l *Ledger) ShouldSkip(index int) bool {
	return index < l.state.Processed
}

// Advance records one fully handled unit and persists immediately.
func (l *Ledger) Advance(ctx context.Context, identity string, outcome Outcome) error {
	l.state.Processed++
	l.state.LastIdentity = identity
	switch outcome {
	case OutcomeUpdated:
		l.state.Updated++
	case OutcomeNotFound:
		l.state.NotFound++
	case OutcomeError:
		l.state.Errors++
	}
	return l.store.Save(ctx, &l.state)
}

// Finish closes out the run: a clean run (zero errors) clears the
// checkpoint so the next invocation starts fresh, otherwise the state is
// kept so --resume remains meaningful.
func (l *Ledger) Finish(ctx context.Context) error {
	if l.state.Errors == 0 {
		return l.store.Clear(ctx)
	}
	return l.store.Save(ctx, &l.state)
}

// State returns a copy of the current counters.
func (l *Ledger) State() State {
	return l.state
}
