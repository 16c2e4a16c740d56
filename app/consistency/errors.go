package consistency

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies a failed mutation so callers can tell "fix your input"
// apart from "try again".
type Kind string

const (
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindNotFound    Kind = "not_found"
	KindExclusivity Kind = "exclusivity"
	KindTransaction Kind = "transaction"
)

// Reason narrows a conflict to the invariant that was violated.
type Reason string

const (
	ReasonOverlap       Reason = "overlap"
	ReasonDuplicateName Reason = "duplicate_name"
	ReasonAlreadyActive Reason = "already_active"
	ReasonExclusivity   Reason = "exclusivity_violation"
)

// Error is the uniform error shape produced by all invariant checks.
type Error struct {
	Kind    Kind   `json:"kind"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(reason Reason, format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func Exclusivityf(format string, args ...interface{}) error {
	return &Error{Kind: KindExclusivity, Reason: ReasonExclusivity, Message: fmt.Sprintf(format, args...)}
}

// Transaction wraps an infrastructure failure of an atomic unit. Nothing
// partial was committed, so the caller may retry the whole operation.
func Transaction(op string, cause error) error {
	return &Error{
		Kind:    KindTransaction,
		Message: fmt.Sprintf("%s: transaction failed: %v", op, cause),
		cause:   cause,
	}
}

// KindOf returns the kind of err if it carries one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// ReasonOf returns the conflict reason of err if it carries one.
func ReasonOf(err error) (Reason, bool) {
	var e *Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason, true
	}
	return "", false
}

func IsValidation(err error) bool { k, ok := KindOf(err); return ok && k == KindValidation }
func IsConflict(err error) bool   { k, ok := KindOf(err); return ok && k == KindConflict }
func IsNotFound(err error) bool   { k, ok := KindOf(err); return ok && k == KindNotFound }

// StatusCode maps an error to the HTTP status the API surface reports.
func StatusCode(err error) int {
	switch k, _ := KindOf(err); k {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict, KindExclusivity:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
