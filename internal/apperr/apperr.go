// Package apperr defines the closed set of failure kinds promits reports.
//
// Every error surfaced by the pipeline is an *Error (possibly wrapped), so
// callers can branch on the kind with KindOf or errors.As instead of
// matching message text.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	// Unknown is returned by KindOf for errors that are not an *Error.
	Unknown Kind = iota
	// Config is missing or malformed process configuration.
	Config
	// Transport is a network failure reaching a backend.
	Transport
	// Backend is a non-success HTTP status or status field from a backend.
	Backend
	// Decode is a response body that does not match the expected shape.
	Decode
	// Input is caller or interactive input that cannot be used as given.
	Input
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case Transport:
		return "transport"
	case Backend:
		return "backend"
	case Decode:
		return "decode"
	case Input:
		return "input"
	default:
		return "unknown"
	}
}

// Backend names used in error context.
const (
	Prometheus = "prometheus"
	Anthropic  = "anthropic"
)

// maxBodyInMessage bounds how much of a response body Error() prints. The
// full body stays available on the Body field.
const maxBodyInMessage = 240

// Error is a classified failure with enough context to tell the user which
// backend was involved and what was attempted.
type Error struct {
	Kind       Kind
	Backend    string
	Op         string
	StatusCode int
	Body       string
	Msg        string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Backend != "" {
		b.WriteString(e.Backend)
		b.WriteString(" ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	// A message extracted from the body already says what the body does.
	if body := strings.TrimSpace(e.Body); body != "" && e.Kind == Backend && e.Msg == "" {
		if len(body) > maxBodyInMessage {
			body = body[:maxBodyInMessage] + "..."
		}
		b.WriteString(": ")
		b.WriteString(body)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so errors.Is(err, &Error{Kind: Decode}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Backend == "" || t.Backend == e.Backend)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case Config:
		return 2
	case Input:
		return 3
	case Transport:
		return 4
	case Backend:
		return 5
	case Decode:
		return 6
	default:
		return 1
	}
}

func NewConfig(format string, args ...any) *Error {
	return &Error{Kind: Config, Msg: fmt.Sprintf(format, args...)}
}

func NewInput(op, format string, args ...any) *Error {
	return &Error{Kind: Input, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func NewTransport(backend, op string, err error) *Error {
	return &Error{Kind: Transport, Backend: backend, Op: op, Err: err}
}

func NewBackend(backend, op string, status int, body, msg string) *Error {
	return &Error{Kind: Backend, Backend: backend, Op: op, StatusCode: status, Body: body, Msg: msg}
}

func NewDecode(backend, op string, body []byte, err error) *Error {
	return &Error{Kind: Decode, Backend: backend, Op: op, Body: string(body), Err: err}
}
