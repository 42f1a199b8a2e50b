package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindDateAlreadyLogged   Kind = "date_already_logged"
	KindReference           Kind = "reference"
	KindConstraintViolation Kind = "constraint_violation"
)

// Sentinels for errors.Is matching. Only the Kind is compared.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrDateAlreadyLogged   = &Error{Kind: KindDateAlreadyLogged}
	ErrReference           = &Error{Kind: KindReference}
	ErrConstraintViolation = &Error{Kind: KindConstraintViolation}
)

// Problem pins a failure to a batch row (zero-based) and field. Row is -1
// when the problem is not tied to a row.
type Problem struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	var b strings.Builder
	if p.Row >= 0 {
		fmt.Fprintf(&b, "row %d: ", p.Row)
	}
	if p.Field != "" {
		b.WriteString(p.Field)
		b.WriteString(": ")
	}
	b.WriteString(p.Message)
	return b.String()
}

// Error is a domain error surfaced to callers.
type Error struct {
	Kind     Kind
	Msg      string
	Problems []Problem
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if len(e.Problems) > 0 {
		parts := make([]string, 0, len(e.Problems))
		for _, p := range e.Problems {
			parts = append(parts, p.String())
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Validation builds a validation error. Problems may be empty.
func Validation(msg string, problems ...Problem) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Problems: problems}
}

// DateAlreadyLogged reports that logDate is closed.
func DateAlreadyLogged(logDate string) *Error {
	return &Error{Kind: KindDateAlreadyLogged, Msg: fmt.Sprintf("logs for %s already exist", logDate)}
}

// Reference reports rows naming students that do not exist.
func Reference(msg string, problems ...Problem) *Error {
	return &Error{Kind: KindReference, Msg: msg, Problems: problems}
}

// ConstraintViolation wraps a storage-level constraint failure.
func ConstraintViolation(msg string, err error) *Error {
	return &Error{Kind: KindConstraintViolation, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, or "" when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ProblemsOf returns the row problems attached to err, if any.
func ProblemsOf(err error) []Problem {
	var e *Error
	if errors.As(err, &e) {
		return e.Problems
	}
	return nil
}

// HTTPStatus maps err to a response status. Unknown errors are 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindDateAlreadyLogged, KindConstraintViolation:
		return http.StatusConflict
	case KindReference:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
