package library

import (
	"errors"
	"fmt"
)

// ErrorCode tags a LendingError.
type ErrorCode string

const (
	CodeMemberNotFound         ErrorCode = "MEMBER_NOT_FOUND"
	CodeItemNotFound           ErrorCode = "ITEM_NOT_FOUND"
	CodeLoanNotFound           ErrorCode = "LOAN_NOT_FOUND"
	CodeItemUnavailable        ErrorCode = "ITEM_UNAVAILABLE"
	CodeBorrowingLimitExceeded ErrorCode = "BORROWING_LIMIT_EXCEEDED"
	CodeMemberBlocked          ErrorCode = "MEMBER_BLOCKED"
	CodeLoanAlreadyClosed      ErrorCode = "LOAN_ALREADY_CLOSED"
	CodeInvalidArgument        ErrorCode = "INVALID_ARGUMENT"
	CodeDuplicate              ErrorCode = "DUPLICATE"
)

// LendingError is the single error type returned for rule violations.
// Two LendingErrors match under errors.Is when their codes are equal.
type LendingError struct {
	Code    ErrorCode
	Message string
}

func (e *LendingError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LendingError) Is(target error) bool {
	var t *LendingError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrMemberNotFound         = &LendingError{Code: CodeMemberNotFound}
	ErrItemNotFound           = &LendingError{Code: CodeItemNotFound}
	ErrLoanNotFound           = &LendingError{Code: CodeLoanNotFound}
	ErrItemUnavailable        = &LendingError{Code: CodeItemUnavailable}
	ErrBorrowingLimitExceeded = &LendingError{Code: CodeBorrowingLimitExceeded}
	ErrMemberBlocked          = &LendingError{Code: CodeMemberBlocked}
	ErrLoanAlreadyClosed      = &LendingError{Code: CodeLoanAlreadyClosed}
	ErrInvalidArgument        = &LendingError{Code: CodeInvalidArgument}
	ErrDuplicate              = &LendingError{Code: CodeDuplicate}
)

// ErrNothingToLoad is returned by a Gateway that has no persisted data.
var ErrNothingToLoad = errors.New("nothing to load")

func newError(code ErrorCode, format string, args ...any) error {
	return &LendingError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the LendingError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var le *LendingError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}
