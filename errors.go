// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package relay implements a single-threaded, non-blocking message-relay
// server: a length-prefixed binary packet codec with an incremental parser
// and serializer, and a fairness-oriented scheduler that moves fully-parsed
// packets between per-connection queues, a central server queue, and back
// out to writable connections.
package relay

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable, enumerated failure kind. The string value is the
// name reported in logs and used for errors.Is-style comparisons.
type ErrorCode string

const (
	ErrCodeAllocFailed              ErrorCode = "ErrAllocaFailed"
	ErrCodeNonSupportedField        ErrorCode = "ErrNonSupportedField"
	ErrCodeNonSupportedMsgType      ErrorCode = "ErrNonSupportedMsgType"
	ErrCodeSizeTooLarge             ErrorCode = "ErrSizeTooLarge"
	ErrCodeTooSmallBuffer           ErrorCode = "ErrTooSmallBuffer"
	ErrCodeBodyTooLarge             ErrorCode = "ErrBodyTooLarge"
	ErrCodeInternalBufferFullFilled ErrorCode = "ErrInternalBufferFullFilled"
	ErrCodeNoEnoughCapacity         ErrorCode = "ErrNoEnoughCapacity"
	ErrCodePacketTooBig             ErrorCode = "ErrPacketTooBig"
	ErrCodeMagicWordsMisMatch       ErrorCode = "ErrMagicWordsMisMatch"
	ErrCodeNoDataToParse            ErrorCode = "ErrNoDataToParse"
	ErrCodeNeedMore                 ErrorCode = "ErrNeedMore"
	ErrCodeInvalidHeaderValue       ErrorCode = "ErrInvalidHeaderValue"
	ErrCodeExtractParsedPacketFirst ErrorCode = "ErrExtractParsedPacketFirst"
	ErrCodeParsingIsIncomplete      ErrorCode = "ErrParsingIsIncomplete"
	ErrCodeNotReadyToExtract        ErrorCode = "ErrNotReadyToExtract"
)

// Error is a structured relay error: the operation that failed, a stable
// code, and an optional wrapped cause (e.g. a syscall errno).
type Error struct {
	Op   string
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("relay: %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("relay: %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is implements errors.Is against another *Error by comparing codes. A bare
// ErrorCode is not an error value and never matches; use IsCode for that.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// newErr constructs a structured error for the given operation/code pair.
func newErr(op string, code ErrorCode) *Error {
	return &Error{Op: op, Code: code}
}

// wrapErr constructs a structured error wrapping an underlying cause.
func wrapErr(op string, code ErrorCode, cause error) *Error {
	return &Error{Op: op, Code: code, Err: cause}
}

// Sentinel errors, one per stable code, usable directly with errors.Is.
var (
	ErrAllocFailed              = &Error{Code: ErrCodeAllocFailed}
	ErrNonSupportedField        = &Error{Code: ErrCodeNonSupportedField}
	ErrNonSupportedMsgType      = &Error{Code: ErrCodeNonSupportedMsgType}
	ErrSizeTooLarge             = &Error{Code: ErrCodeSizeTooLarge}
	ErrTooSmallBuffer           = &Error{Code: ErrCodeTooSmallBuffer}
	ErrBodyTooLarge             = &Error{Code: ErrCodeBodyTooLarge}
	ErrInternalBufferFullFilled = &Error{Code: ErrCodeInternalBufferFullFilled}
	ErrNoEnoughCapacity         = &Error{Code: ErrCodeNoEnoughCapacity}
	ErrPacketTooBig             = &Error{Code: ErrCodePacketTooBig}
	ErrMagicWordsMisMatch       = &Error{Code: ErrCodeMagicWordsMisMatch}
	ErrNoDataToParse            = &Error{Code: ErrCodeNoDataToParse}
	ErrNeedMore                 = &Error{Code: ErrCodeNeedMore}
	ErrInvalidHeaderValue       = &Error{Code: ErrCodeInvalidHeaderValue}
	ErrExtractParsedPacketFirst = &Error{Code: ErrCodeExtractParsedPacketFirst}
	ErrParsingIsIncomplete      = &Error{Code: ErrCodeParsingIsIncomplete}
	ErrNotReadyToExtract        = &Error{Code: ErrCodeNotReadyToExtract}
)

// IsCode reports whether err is a *Error (at any wrap depth) carrying code.
func IsCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// isFramingError reports whether err is one of the framing violations that
// spec.md mandates tear down the connection's stream.
func isFramingError(err error) bool {
	switch {
	case IsCode(err, ErrCodeMagicWordsMisMatch):
		return true
	case IsCode(err, ErrCodeNonSupportedMsgType):
		return true
	case IsCode(err, ErrCodeInvalidHeaderValue):
		return true
	case IsCode(err, ErrCodeBodyTooLarge):
		return true
	default:
		return false
	}
}
