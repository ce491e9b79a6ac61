package domain

import (
	"errors"
	"fmt"

	"github.com/apppayai/payflow/internal/domain/models"
)

var (
	// ErrPaymentNotFound is reported when the backend has no record for a
	// payment identifier.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvalidPayload is reported when the backend answers with a
	// non-success envelope or a missing data field.
	ErrInvalidPayload = errors.New("invalid response payload")

	// Execution sentinels. Wallet providers return these (possibly wrapped)
	// so the execution controller can classify the failure.
	ErrNoWallet          = errors.New("no wallet available")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserCancelled     = errors.New("user cancelled")
)

// BackendError is a failed backend call, with the last HTTP status observed
// (zero for transport-level failures).
type BackendError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// LoadError wraps a payment terms fetch/parse failure.
type LoadError struct{ Err error }

func (e *LoadError) Error() string { return "failed to load payment: " + e.Err.Error() }
func (e *LoadError) Unwrap() error { return e.Err }

// DiscoveryError wraps a route discovery failure, network or backend-reported.
type DiscoveryError struct{ Err error }

func (e *DiscoveryError) Error() string { return "route discovery failed: " + e.Err.Error() }
func (e *DiscoveryError) Unwrap() error { return e.Err }

// StatusError wraps a payment status poll failure.
type StatusError struct{ Err error }

func (e *StatusError) Error() string { return "failed to get payment status: " + e.Err.Error() }
func (e *StatusError) Unwrap() error { return e.Err }

// ChannelError is a recoverable quote channel fault. The channel does not
// retry on its own; the subscriber decides.
type ChannelError struct{ Err error }

func (e *ChannelError) Error() string { return "quote channel error: " + e.Err.Error() }
func (e *ChannelError) Unwrap() error { return e.Err }

// ExecutionError is a classified payment execution failure.
type ExecutionError struct {
	Kind models.ErrorType
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("payment execution failed (%s): %v", e.Kind, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ClassifyExecution maps an error from a wallet collaborator onto an
// ErrorType, falling back to generic.
func ClassifyExecution(err error) models.ErrorType {
	var execErr *ExecutionError
	if errors.As(err, &execErr) && execErr.Kind != models.ErrorNone {
		return execErr.Kind
	}
	switch {
	case errors.Is(err, ErrNoWallet):
		return models.ErrorNoWallet
	case errors.Is(err, ErrInsufficientFunds):
		return models.ErrorInsufficientFunds
	case errors.Is(err, ErrUserCancelled):
		return models.ErrorUserCancelled
	default:
		return models.ErrorGeneric
	}
}
