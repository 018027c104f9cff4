// Package citation holds the error taxonomy shared by the resolver, the style
// cache, the renderer and the pipeline orchestrator.
package citation

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUpstream     Kind = "upstream"
	KindTemplateLoad Kind = "template_load"
	KindRender       Kind = "render"
	KindPersistence  Kind = "persistence"
	KindLimitReached Kind = "limit_reached"
)

// SessionCap is the number of citation operations a work session accepts.
const SessionCap = 10

// ErrLimitReached is returned when the work session already holds SessionCap operations.
var ErrLimitReached = &limitError{}

type limitError struct{}

func (e *limitError) Error() string { return "work session limit reached" }
func (e *limitError) Kind() Kind    { return KindLimitReached }

// ValidationError reports missing or malformed caller input. No network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Kind() Kind { return KindValidation }

// ErrUnknownSession is returned for a history id that was never started, has
// expired, or belongs to another user.
var ErrUnknownSession = &ValidationError{
	Field:  "history id from a work session you started",
	Reason: "work session is unknown or expired",
}

// NotFoundError means the registry has no record for the identifier.
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no bibliographic record for %q", e.Identifier)
}

func (e *NotFoundError) Kind() Kind { return KindNotFound }

// UpstreamError carries the status of a failed registry or DOI resolver call.
// Status is 0 when the request never produced a response.
type UpstreamError struct {
	Identifier  string
	Status      int
	Negotiation bool // true when the failure came from the content-negotiation fallback
	Cause       error
}

func (e *UpstreamError) Error() string {
	stage := "registry"
	if e.Negotiation {
		stage = "doi content negotiation"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s lookup for %q failed (status %d): %v", stage, e.Identifier, e.Status, e.Cause)
	}
	return fmt.Sprintf("%s lookup for %q failed with status %d", stage, e.Identifier, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Cause }
func (e *UpstreamError) Kind() Kind    { return KindUpstream }

// TemplateLoadError means a style definition could not be fetched or parsed.
type TemplateLoadError struct {
	StyleKey string
	Cause    error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("load style %q: %v", e.StyleKey, e.Cause)
}

func (e *TemplateLoadError) Unwrap() error { return e.Cause }
func (e *TemplateLoadError) Kind() Kind    { return KindTemplateLoad }

// RenderError means formatting failed on otherwise valid inputs.
type RenderError struct {
	StyleKey string
	Cause    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render with style %q: %v", e.StyleKey, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }
func (e *RenderError) Kind() Kind    { return KindRender }

// PersistenceError means the citation rendered but could not be stored.
type PersistenceError struct {
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist citation: %v", e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }
func (e *PersistenceError) Kind() Kind    { return KindPersistence }

type kinded interface {
	Kind() Kind
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// UserMessage turns any pipeline error into a plain-language message.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindValidation:
		var v *ValidationError
		errors.As(err, &v)
		return fmt.Sprintf("Please provide a %s.", v.Field)
	case KindNotFound:
		return "We couldn't find a record for that DOI or URL. Please check it and try again."
	case KindUpstream:
		var u *UpstreamError
		errors.As(err, &u)
		if u.Negotiation {
			return fmt.Sprintf("The DOI service could not provide citation data (status %d).", u.Status)
		}
		return fmt.Sprintf("The citation registry is unavailable right now (status %d).", u.Status)
	case KindTemplateLoad:
		return "The selected citation style could not be loaded."
	case KindRender:
		return "We couldn't format a citation from that input."
	case KindPersistence:
		return "Your citation was created but could not be saved to history."
	case KindLimitReached:
		return fmt.Sprintf("This session already has %d citations. Start a new one to continue.", SessionCap)
	default:
		return "Something went wrong while creating the citation."
	}
}
