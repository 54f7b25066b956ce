// Package errs defines the error kinds surfaced by azurekit clients.
//
// Vendor SDK failures are never translated; they are wrapped with
// KindVendor and remain reachable through errors.Unwrap / errors.As.
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfiguration  Kind = "configuration"
	KindSecret         Kind = "secret"
	KindVendor         Kind = "vendor"
	KindAuthentication Kind = "authentication"
	KindExportTimeout  Kind = "export-timeout"
	KindExportFailed   Kind = "export-failed"
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with a kind and the operation that produced it.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is E with a formatted cause.
func Errorf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// IsKind reports whether any error in err's chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Kind == kind {
			return true
		}
		err = e.Err
		e = nil
	}
	return false
}
