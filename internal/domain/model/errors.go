package model

import (
	"errors"
	"fmt"
)

// ErrUnclassifiable is returned when a transaction only matches the
// catch-all rule. By policy the transaction is excluded from the output
// batch, logged, and counted; it is never retried.
var ErrUnclassifiable = errors.New("transaction matched no classification rule")

// InvariantError marks a violated chain-shape assumption, e.g. extracted
// fee transfers not summing to gasUsed*gasPrice+gatewayFee. It indicates a
// decoding bug or an unsupported chain variant and aborts the whole batch.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Reason
}

func Invariantf(format string, args ...any) error {
	return &InvariantError{Reason: fmt.Sprintf(format, args...)}
}

// MissingTransferError reports that a rule matched a transaction but the
// transfer its event needs is not there. The transaction is dropped from
// the batch; sibling transactions are unaffected.
type MissingTransferError struct {
	Rule string
	Want string
}

func (e *MissingTransferError) Error() string {
	return fmt.Sprintf("%s: expected %s not found", e.Rule, e.Want)
}
