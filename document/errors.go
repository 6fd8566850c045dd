package document

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

var (
	// ErrNotAddressable is returned when a mutation needs a single
	// location and the path uses wildcards, slices, filters or recursive
	// descent.
	ErrNotAddressable = errors.New("path does not address a single location")

	// ErrNotFound is returned when a mutation target does not exist.
	ErrNotFound = errors.New("no value at path")

	// ErrNotList is returned by list operations on anything but a list.
	ErrNotList = errors.New("value is not a list")

	// ErrNotObject is returned by Merge on anything but an object.
	ErrNotObject = errors.New("value is not an object")

	// ErrIndexRange is returned for an index outside a list.
	ErrIndexRange = errors.New("index out of range")

	// ErrRoot is returned when an operation cannot apply to the root.
	ErrRoot = errors.New("operation cannot apply to the root")
)

// OpError records the operation and path that failed.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("document: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// opError wraps err with the operation context and a stack trace.
// The typed cause stays reachable through errors.As.
func opError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(&OpError{Op: op, Path: path, Err: err}, 1)
}

// withStack attaches a stack trace to err.
func withStack(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, 1)
}

// typeError reports a value of the wrong kind at a path step.
func typeError(want error, step string, got fmt.Stringer) error {
	return fmt.Errorf("%w: %s holds %s", want, step, got)
}
