package remote

import (
	"errors"
	"fmt"

	"github.com/roach88/cartsync/internal/collection"
)

// ErrRecordNotFound is returned by a RecordStore when no record exists for a
// key. Backend converts it to an *Error with CodeNotFound.
var ErrRecordNotFound = errors.New("remote record not found")

// ErrorCode categorizes remote failures.
type ErrorCode string

const (
	// CodeUnreachable indicates a transport failure or timeout.
	CodeUnreachable ErrorCode = "UNREACHABLE"

	// CodeRejected indicates the backend refused the request.
	CodeRejected ErrorCode = "REJECTED"

	// CodeMalformed indicates the stored payload could not be decoded.
	CodeMalformed ErrorCode = "MALFORMED"

	// CodeNotFound indicates there is no record for the owner and kind.
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// Error is a classified remote failure.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the backend operation ("fetch" or "push").
	Op string

	// Owner and Kind address the record.
	Owner string
	Kind  collection.Kind

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: remote %s", e.Code, e.Op)
	if e.Owner != "" {
		msg += fmt.Sprintf(" (owner=%s, kind=%s)", e.Owner, e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Rejected wraps err as a CodeRejected failure. RecordStores use it for
// permission and validation errors so Backend does not mistake them for
// transport failures.
func Rejected(err error) error {
	return &Error{Code: CodeRejected, Err: err}
}

// CodeOf returns the error's code, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsNotFound returns true if err reports a missing record.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound || errors.Is(err, ErrRecordNotFound)
}

// IsMalformed returns true if err reports an undecodable payload.
func IsMalformed(err error) bool {
	return CodeOf(err) == CodeMalformed
}

// classify turns any RecordStore error into an *Error for op and key.
func classify(op string, key RecordKey, err error) *Error {
	var re *Error
	if errors.As(err, &re) {
		out := *re
		out.Op = op
		out.Owner = key.Owner
		out.Kind = key.Kind
		return &out
	}

	// Timeouts, cancellations and transport errors all land here.
	code := CodeUnreachable
	if errors.Is(err, ErrRecordNotFound) {
		code = CodeNotFound
	}
	return &Error{Code: code, Op: op, Owner: key.Owner, Kind: key.Kind, Err: err}
}
