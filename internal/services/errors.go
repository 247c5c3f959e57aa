package services

import "errors"

type Kind string

const (
	KindInvalidIdentifier      Kind = "INVALID_IDENTIFIER"
	KindAmountTooSmall         Kind = "AMOUNT_TOO_SMALL"
	KindInvalidAmount          Kind = "INVALID_AMOUNT"
	KindInsufficientBalance    Kind = "INSUFFICIENT_BALANCE"
	KindBalanceCeilingExceeded Kind = "BALANCE_CEILING_EXCEEDED"
	KindArithmeticOverflow     Kind = "ARITHMETIC_OVERFLOW"
)

type Category string

const (
	CategoryValidation   Category = "validation"
	CategoryBusinessRule Category = "business_rule"
	CategoryArithmetic   Category = "arithmetic"
)

func (k Kind) Category() Category {
	switch k {
	case KindInvalidIdentifier, KindAmountTooSmall, KindInvalidAmount:
		return CategoryValidation
	case KindInsufficientBalance, KindBalanceCeilingExceeded:
		return CategoryBusinessRule
	default:
		return CategoryArithmetic
	}
}

// Error is a rejected point operation. Two Errors match under errors.Is when
// their kinds match, so the package sentinels work with wrapped, reworded errors.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidIdentifier      = &Error{Kind: KindInvalidIdentifier, Message: "user id must be positive"}
	ErrAmountTooSmall         = &Error{Kind: KindAmountTooSmall, Message: "charge amount is below the minimum"}
	ErrInvalidAmount          = &Error{Kind: KindInvalidAmount, Message: "amount must be positive"}
	ErrInsufficientBalance    = &Error{Kind: KindInsufficientBalance, Message: "insufficient balance"}
	ErrBalanceCeilingExceeded = &Error{Kind: KindBalanceCeilingExceeded, Message: "balance ceiling exceeded"}
	ErrArithmeticOverflow     = &Error{Kind: KindArithmeticOverflow, Message: "balance overflow"}
)

// KindOf extracts the kind of a rejected operation. ok is false for
// infrastructure errors (store failures, cancelled contexts).
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func newError(k Kind, msg string) *Error {
	return &Error{Kind: k, Message: msg}
}
