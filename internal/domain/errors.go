package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Not-found errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrJournalNotFound     = errors.New("journal not found")
	ErrTemplateNotFound    = errors.New("transaction template not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBalanceNotFound     = errors.New("balance not found")

	// ErrDuplicateKey classifies backend unique violations so callers can
	// distinguish idempotency conflicts from generic failures.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrOptimisticLocking is returned when a concurrent posting
	// invalidated the balance snapshot read. The condition is retryable;
	// retry policy is left to the caller.
	ErrOptimisticLocking = errors.New("optimistic locking conflict")

	// ErrTooManyParameters is returned when a caller supplies a parameter
	// the template does not declare.
	ErrTooManyParameters = errors.New("too many parameters")

	// ErrEventSubscriberClosed is returned by subscribe calls after the
	// event notifier has shut down. Callers must reconnect with an
	// explicit resume point.
	ErrEventSubscriberClosed = errors.New("event subscriber closed")
)

// UnbalancedTransactionError reports a currency whose debits and credits
// did not sum to zero during template resolution.
type UnbalancedTransactionError struct {
	Currency string
	Residual decimal.Decimal
}

func (e *UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("unbalanced transaction: currency %s residual %s", e.Currency, e.Residual)
}

// ParamTypeMismatchError reports a supplied parameter whose runtime kind
// does not match its declared type.
type ParamTypeMismatchError struct {
	Name     string
	Expected ParamDataType
}

func (e *ParamTypeMismatchError) Error() string {
	return fmt.Sprintf("parameter %q: expected %s", e.Name, e.Expected)
}

// UnknownLayerError reports a layer expression outside the fixed
// SETTLED/PENDING/ENCUMBERED vocabulary.
type UnknownLayerError struct {
	Value string
}

func (e *UnknownLayerError) Error() string {
	return fmt.Sprintf("unknown layer %q", e.Value)
}

// UnknownDirectionError reports a direction expression outside the fixed
// DEBIT/CREDIT vocabulary.
type UnknownDirectionError struct {
	Value string
}

func (e *UnknownDirectionError) Error() string {
	return fmt.Sprintf("unknown direction %q", e.Value)
}

// UnknownCurrencyError reports a currency code the registry cannot resolve.
type UnknownCurrencyError struct {
	Code string
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}
