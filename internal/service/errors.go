package service

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable class of a service failure.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindDeliveryUnavailable Kind = "DeliveryUnavailable"
	KindGatewayUnavailable  Kind = "PaymentGatewayUnavailable"
	KindVerification        Kind = "VerificationError"
	KindIllegalTransition   Kind = "IllegalTransition"
	KindNotFound            Kind = "NotFound"
	KindForbidden           Kind = "Forbidden"
	KindStorage             Kind = "StorageError"
)

// Retryable reports whether the caller may repeat the same request unchanged.
func (k Kind) Retryable() bool {
	return k == KindGatewayUnavailable
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func validationError(format string, args ...any) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...), nil)
}

// KindOf returns the kind carried by err, or KindStorage for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
