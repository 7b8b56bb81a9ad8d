// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package translate

import "fmt"

// Error codes returned by the translator.
const (
	// InternalErr indicates an upstream contract violation (for example, an
	// unbound variable reaching value translation). Not user-recoverable.
	InternalErr = "translate_internal_error"

	// UnsupportedErr indicates a construct the translator does not
	// implement. Halts the current compilation unit only.
	UnsupportedErr = "translate_unsupported_error"
)

// Error is the error type returned by the translator.
type Error struct {
	Code    string
	Clause  string
	Message string
}

func (e *Error) Error() string {
	if e.Clause != "" {
		return fmt.Sprintf("%v: %v: %v", e.Code, e.Clause, e.Message)
	}
	return fmt.Sprintf("%v: %v", e.Code, e.Message)
}

// IsInternal reports whether err is a translator internal-consistency
// failure.
func IsInternal(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == InternalErr
}

func internalErr(clause string, f string, a ...any) *Error {
	return &Error{Code: InternalErr, Clause: clause, Message: fmt.Sprintf(f, a...)}
}

func unsupportedErr(clause string, f string, a ...any) *Error {
	return &Error{Code: UnsupportedErr, Clause: clause, Message: fmt.Sprintf(f, a...)}
}
