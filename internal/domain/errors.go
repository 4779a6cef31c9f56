package domain

import (
	"errors"
	"fmt"
)

// DomainError keeps backward compatibility for generic codes.
type DomainError struct {
	Code string
	Err  error
}

func (e DomainError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	if e.Code == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e DomainError) Unwrap() error {
	return e.Err
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// ForbiddenError marks role/ownership failures.
type ForbiddenError struct {
	Msg string
	Err error
}

func (e ForbiddenError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "forbidden"
}

func (e ForbiddenError) Unwrap() error { return e.Err }

// InvalidTransitionError marks state machine guard failures.
type InvalidTransitionError struct {
	Resource string
	From     string
	Action   string
	Err      error
}

func (e InvalidTransitionError) Error() string {
	if e.Resource != "" && e.From != "" && e.Action != "" {
		return fmt.Sprintf("%s: cannot %s from status %s", e.Resource, e.Action, e.From)
	}
	if e.Resource != "" {
		return fmt.Sprintf("%s: invalid transition", e.Resource)
	}
	return "invalid transition"
}

func (e InvalidTransitionError) Unwrap() error { return e.Err }

// GatewayError wraps failures from the external payment processor.
// The message is preserved for the caller; the payment stays in its
// prior state so a retry remains possible.
type GatewayError struct {
	Op  string
	Msg string
	Err error
}

func (e GatewayError) Error() string {
	switch {
	case e.Op != "" && e.Msg != "":
		return fmt.Sprintf("gateway %s failed: %s", e.Op, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Op != "":
		return fmt.Sprintf("gateway %s failed", e.Op)
	default:
		return "gateway error"
	}
}

func (e GatewayError) Unwrap() error { return e.Err }

// SignatureError marks webhook authentication failures. Expected
// adversarial input, not an internal fault.
type SignatureError struct {
	Msg string
}

func (e SignatureError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "invalid signature"
}

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsInvalidTransition(err error) bool {
	var target InvalidTransitionError
	return errors.As(err, &target)
}

func IsGateway(err error) bool {
	var target GatewayError
	return errors.As(err, &target)
}

func IsSignature(err error) bool {
	var target SignatureError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
