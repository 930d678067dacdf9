package match

import (
	"errors"

	"flightmatch/internal/logging"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindGateway
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationFailure"
	case KindGateway:
		return "GatewayFailure"
	default:
		return "UnexpectedFailure"
	}
}

// Failure is the tagged error produced anywhere in the explain pipeline. The
// stack is captured where the failure is created.
type Failure struct {
	Kind    Kind
	Message string
	Cause   error
	stack   string
}

func newFailure(kind Kind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Cause: cause, stack: logging.CallerStack(3)}
}

// ValidationFailure reports a request that is missing required fields.
func ValidationFailure(message string) *Failure {
	return newFailure(KindValidation, message, nil)
}

// GatewayFailure wraps an error from the model service. The message is the
// cause's own message.
func GatewayFailure(cause error) *Failure {
	return newFailure(KindGateway, cause.Error(), cause)
}

// UnexpectedFailure wraps any other error.
func UnexpectedFailure(cause error) *Failure {
	return newFailure(KindUnexpected, cause.Error(), cause)
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Cause }

// Name is the name recorded in error logs: the cause's name, or the failure
// kind when there is no cause.
func (f *Failure) Name() string {
	if f.Cause != nil {
		return logging.ErrorName(f.Cause)
	}
	return f.Kind.String()
}

func (f *Failure) Stack() string { return f.stack }

// AsFailure returns err as a *Failure, classifying unknown errors as
// unexpected.
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return UnexpectedFailure(err)
}
