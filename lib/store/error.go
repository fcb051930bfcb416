package store

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and an optional cause.
type Error struct {
	Code  RetCode // The return code
	Msg   string  // The error message.
	Cause error   // The underlying error (may be nil)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("StoreError (code %s): %s: %v", e.Code, e.Msg, e.Cause)
	}
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the cause of the error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *Error with the same code.
// This makes errors.Is(err, store.ErrEntityNotFound) work for every message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new Error with the given code, message and cause.
func WrapError(code RetCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:  code,
		Msg:   fmt.Sprintf(format, args...),
		Cause: cause,
	}
}

// CodeOf returns the code of err if it is (or wraps) a *Error, RetCSuccess for nil
// and RetCInternalError for any other error.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCInternalError
}

// Sentinel errors to be used with errors.Is
var (
	ErrInternal                 = NewError(RetCInternalError, "internal error")
	ErrUnsupportedOperation     = NewError(RetCUnsupportedOperation, "unsupported operation")
	ErrInvalidOperation         = NewError(RetCInvalidOperation, "invalid operation")
	ErrEntityNotFound           = NewError(RetCEntityNotFound, "entity not found")
	ErrStoreLocked              = NewError(RetCStoreLocked, "store locked")
	ErrIncompatibleStoreVersion = NewError(RetCIncompatibleStoreVersion, "incompatible store version")
	ErrSerializationFailure     = NewError(RetCSerializationFailure, "serialization failure")
	ErrCorruptEntityFile        = NewError(RetCCorruptEntityFile, "corrupt entity file")
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess                  RetCode = iota // 0: Command executed successfully.
	RetCInternalError                           // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                    // 2: Operation is not supported by the backend.
	RetCInvalidOperation                        // 3: Invalid operation.
	RetCEntityNotFound                          // 4: No entity with the given id.
	RetCStoreLocked                             // 5: The store no longer accepts updates.
	RetCIncompatibleStoreVersion                // 6: The stored data was written by a newer version.
	RetCSerializationFailure                    // 7: Writing an entity produced no data.
	RetCCorruptEntityFile                       // 8: An entity file could not be read.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCEntityNotFound:
		return "EntityNotFound"
	case RetCStoreLocked:
		return "StoreLocked"
	case RetCIncompatibleStoreVersion:
		return "IncompatibleStoreVersion"
	case RetCSerializationFailure:
		return "SerializationFailure"
	case RetCCorruptEntityFile:
		return "CorruptEntityFile"
	default:
		return "Unknown"
	}
}
