// Package errs defines the failure taxonomy shared by every component. An
// error carries a Kind so the CLI boundary and the dispatcher can tell a
// per-tool failure from one that ends the invocation.
package errs

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/xerrors"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInputValidation is a missing or malformed CLI argument. No call
	// is attempted.
	KindInputValidation
	// KindCredential is a missing or rejected API key.
	KindCredential
	// KindServiceUnavailable is the tool-hosting service being unreachable
	// or answering with a non-success status.
	KindServiceUnavailable
	// KindNetwork is a transport failure talking to a provider.
	KindNetwork
	// KindMalformedResponse is a body that does not have the expected shape.
	KindMalformedResponse
	// KindToolExecution is a single tool call failing. It is isolated to
	// that call.
	KindToolExecution
	// KindProviderRejected is a 4xx/5xx from a provider generation endpoint,
	// including an unknown pinned model.
	KindProviderRejected
	// KindProviderUnavailable is a failed model-listing call.
	KindProviderUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInputValidation:
		return "InputValidationError"
	case KindCredential:
		return "CredentialError"
	case KindServiceUnavailable:
		return "ServiceUnavailable"
	case KindNetwork:
		return "NetworkError"
	case KindMalformedResponse:
		return "MalformedResponse"
	case KindToolExecution:
		return "ToolExecutionError"
	case KindProviderRejected:
		return "ProviderRejected"
	case KindProviderUnavailable:
		return "ProviderUnavailable"
	default:
		return "UnknownError"
	}
}

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a kind. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a classified error from a message.
func Newf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: xerrors.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromStatus classifies an HTTP status returned by a provider.
func FromStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindCredential
	default:
		return KindProviderRejected
	}
}

// IsNetwork reports whether err came from the transport rather than from
// a response.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
