package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	// CodeValidation covers user-correctable input problems: missing or
	// invalid quantities, tier/item mismatches, insufficient stock.
	CodeValidation Code = "VALIDATION_ERROR"
	// CodeIntegrity covers malformed pricing tier sets: gaps, overlaps,
	// missing terminal tier.
	CodeIntegrity Code = "INTEGRITY_ERROR"
	// CodeMissingPricingData flags a line referencing an (item, tier) pair
	// with no price row.
	CodeMissingPricingData Code = "MISSING_PRICING_DATA"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeIdempotency        Code = "IDEMPOTENCY_ERROR"
	CodeRateLimit          Code = "RATE_LIMITED"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeDependency         Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		Retryable:      false,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeIntegrity: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Retryable:      false,
		PublicMessage:  "pricing configuration invalid",
		DetailsAllowed: true,
	},
	CodeMissingPricingData: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Retryable:      false,
		PublicMessage:  "pricing data missing",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		Retryable:      false,
		PublicMessage:  "resource not found",
		DetailsAllowed: false,
	},
	CodeConflict: {
		HTTPStatus:     http.StatusConflict,
		Retryable:      true,
		PublicMessage:  "conflict detected",
		DetailsAllowed: false,
	},
	CodeUnauthorized: {
		HTTPStatus:     http.StatusUnauthorized,
		Retryable:      false,
		PublicMessage:  "authentication required",
		DetailsAllowed: false,
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Retryable:      false,
		PublicMessage:  "idempotency key conflict",
		DetailsAllowed: false,
	},
	CodeRateLimit: {
		HTTPStatus:     http.StatusTooManyRequests,
		Retryable:      true,
		PublicMessage:  "too many requests",
		DetailsAllowed: false,
	},
	CodeInternal: {
		HTTPStatus:     http.StatusInternalServerError,
		Retryable:      true,
		PublicMessage:  "internal server error",
		DetailsAllowed: false,
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// FieldErrors keys human-readable messages by the field that caused them.
type FieldErrors map[string][]string

// Add appends a message for the named field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// HasErrors reports whether any field carries a message.
func (f FieldErrors) HasErrors() bool {
	return len(f) > 0
}

type Error struct {
	code    Code
	message string
	fields  FieldErrors
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// NewFieldErrors builds a validation error carrying per-field messages.
func NewFieldErrors(code Code, fields FieldErrors) *Error {
	return &Error{code: code, message: "validation failed", fields: fields}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Fields returns the per-field messages, if any.
func (e *Error) Fields() FieldErrors {
	if e == nil {
		return nil
	}
	return e.fields
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// WithField attaches a single field message and returns the error.
func (e *Error) WithField(field, message string) *Error {
	if e == nil {
		return nil
	}
	if e.fields == nil {
		e.fields = FieldErrors{}
	}
	e.fields.Add(field, message)
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if len(e.fields) > 0 {
		return fmt.Sprintf("%s: %s %v", e.code, e.message, map[string][]string(e.fields))
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the provided code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
