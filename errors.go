package splash

import (
	"errors"
	"fmt"

	"github.com/hupe1980/splash/blobstore"
	"github.com/hupe1980/splash/container"
	"github.com/hupe1980/splash/dtype"
)

var (
	// ErrInvalidArgument is returned for missing or out-of-range arguments.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState is returned when the lifecycle state forbids an operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotFound is returned when a group, dataset or attribute is absent.
	ErrNotFound = errors.New("not found")
	// ErrBackendFailure is returned when the container backend fails.
	ErrBackendFailure = errors.New("backend failure")
	// ErrUnimplemented is returned by reserved operations.
	ErrUnimplemented = errors.New("not implemented")
)

// Error describes a failed collector operation.
//
// errors.Is reports true for its Kind. The backend diagnostic (if any) can be
// accessed via errors.Unwrap.
type Error struct {
	// Op is the failed operation, e.g. "write".
	Op string
	// Info names the object involved, e.g. a dataset or attribute name.
	Info string
	// Kind is one of the Err* sentinels.
	Kind error
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	msg := "splash: " + e.Op + ": " + e.Kind.Error()
	if e.Info != "" {
		msg += " (" + e.Info + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the error kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func newError(op string, kind error, info string, err error) *Error {
	return &Error{Op: op, Info: info, Kind: kind, Err: err}
}

func invalidArgument(op, format string, args ...any) *Error {
	return newError(op, ErrInvalidArgument, fmt.Sprintf(format, args...), nil)
}

func translateError(op, info string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	// Not found unification.
	if errors.Is(err, container.ErrNotFound) || errors.Is(err, blobstore.ErrNotFound) {
		return newError(op, ErrNotFound, info, err)
	}

	// Caller input the backend rejected.
	if errors.Is(err, container.ErrInvalidSelection) || errors.Is(err, container.ErrInvalidName) ||
		errors.Is(err, dtype.ErrTypeMismatch) {
		return newError(op, ErrInvalidArgument, info, err)
	}

	return newError(op, ErrBackendFailure, info, err)
}
