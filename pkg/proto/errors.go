package proto

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorReason string

const ErrReasonConfigurationMissing ErrorReason = "ERR_CONFIGURATION_MISSING"
const ErrReasonValidationFailure ErrorReason = "ERR_VALIDATION_FAILURE"
const ErrReasonTransportFailure ErrorReason = "ERR_TRANSPORT_FAILURE"
const ErrReasonVendorRejection ErrorReason = "ERR_VENDOR_REJECTION"
const ErrReasonParseFailure ErrorReason = "ERR_PARSE_FAILURE"

func (e ErrorReason) String() string {
	return string(e)
}

// Error is the failure value returned by every operation of the broker. Raw
// optionally keeps the undecodable text for diagnostics.
type Error struct {
	Reason  ErrorReason
	Field   string
	Message string
	Raw     string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Reason, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func NewConfigurationMissingError(message string) error {
	return &Error{Reason: ErrReasonConfigurationMissing, Message: message}
}

func NewValidationError(field, message string) error {
	return &Error{Reason: ErrReasonValidationFailure, Field: field, Message: message}
}

func NewTransportError(message string) error {
	return &Error{Reason: ErrReasonTransportFailure, Message: message}
}

func NewVendorRejectionError(message string) error {
	return &Error{Reason: ErrReasonVendorRejection, Message: message}
}

func NewParseError(message, raw string) error {
	return &Error{Reason: ErrReasonParseFailure, Message: message, Raw: raw}
}

// ReasonOf returns the reason of a broker error, looking through wrapped
// errors. Errors of unknown origin are reported as transport failures.
func ReasonOf(err error) ErrorReason {
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Reason
	}
	return ErrReasonTransportFailure
}

func IsReason(err error, reason ErrorReason) bool {
	if err == nil {
		return false
	}
	return ReasonOf(err) == reason
}

// MessageOf returns the human readable part of a broker error.
func MessageOf(err error) string {
	if e, ok := errors.Cause(err).(*Error); ok {
		if e.Field != "" && e.Reason == ErrReasonValidationFailure {
			return e.Field + ": " + e.Message
		}
		return e.Message
	}
	return err.Error()
}
