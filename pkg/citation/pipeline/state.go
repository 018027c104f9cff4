package pipeline

import (
	"time"

	"ai-writing-be/pkg/citation/csl"
)

type State string

const (
	StateIdle         State = "idle"
	StateValidating   State = "validating"
	StateResolving    State = "resolving"
	StateRendering    State = "rendering"
	StatePersisting   State = "persisting"
	StateDone         State = "done"
	StateError        State = "error"
	StateLimitReached State = "limit_reached"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateError || s == StateLimitReached
}

type Mode string

const (
	// ModeCreate resolves an identifier, then renders and persists it.
	ModeCreate Mode = "create"
	// ModeConvert re-renders citation text the user already has.
	ModeConvert Mode = "convert"
)

type Request struct {
	Mode       Mode
	HistoryID  string
	UserID     string
	Identifier string
	Text       string
	Style      string
}

// Record is what the history collaborator stores for a finished operation.
// Metadata is nil for the convert flow.
type Record struct {
	CiteID     string
	HistoryID  string
	UserID     string
	Mode       Mode
	Identifier string
	InputText  string
	Metadata   csl.Metadata
	Style      string
	Text       string
	CreatedAt  time.Time
}

type Result struct {
	State     State
	HistoryID string
	Text      string
	// Record is set once the citation has been persisted.
	Record *Record
	// Warning carries a non-fatal failure, currently only persistence.
	Warning     error
	Transitions []State
}

func (r *Result) enter(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, s)
}
