package payload

import (
	"errors"
	"fmt"

	"github.com/svscagn/skadi/internal/types"
)

// BackendError is both the terminal error type of the adapters and the
// payload of an OpError envelope. Only Kind is serialized.
type BackendError struct {
	Kind types.ErrorKind `json:"kind"`

	detail string
	err    error
}

func (*BackendError) Op() OpCode { return OpError }
func (*BackendError) isPayload() {}

func (e *BackendError) Error() string {
	switch {
	case e.detail != "" && e.err != nil:
		return fmt.Sprintf("%s: %v", e.detail, e.err)
	case e.detail != "":
		return e.detail
	case e.err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.err)
	}

	switch e.Kind {
	case types.ErrorMissingRuntimeDir:
		return "XDG_RUNTIME_DIR environment variable is not set"
	case types.ErrorMissingWmSignature:
		return "HYPRLAND_INSTANCE_SIGNATURE environment variable is not set"
	default:
		return string(e.Kind)
	}
}

func (e *BackendError) Unwrap() error { return e.err }

// Is matches any BackendError of the same kind, so callers can write
// errors.Is(err, payload.ErrMissingRuntimeDir).
func (e *BackendError) Is(target error) bool {
	var t *BackendError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrMissingRuntimeDir  = &BackendError{Kind: types.ErrorMissingRuntimeDir}
	ErrMissingWmSignature = &BackendError{Kind: types.ErrorMissingWmSignature}
	ErrInvalidOpCode      = &BackendError{Kind: types.ErrorInvalidOpCode}
	ErrIoFailure          = &BackendError{Kind: types.ErrorIoFailure}
)

// IoFailure wraps a transport, spawn or read error.
func IoFailure(detail string, err error) *BackendError {
	return &BackendError{Kind: types.ErrorIoFailure, detail: detail, err: err}
}

// AsBackendError converts an arbitrary terminal error into a BackendError,
// treating anything unclassified as an I/O failure.
func AsBackendError(err error) *BackendError {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be
	}
	return &BackendError{Kind: types.ErrorIoFailure, err: err}
}
