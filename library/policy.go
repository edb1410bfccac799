package library

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy holds the fixed borrowing rules of a member category.
type Policy struct {
	MaxConcurrentLoans int
	TermDays           int
}

// PolicyFor returns the policy of c. Unknown categories get the zero policy,
// which allows no loans.
func PolicyFor(c Category) Policy {
	switch c {
	case CategoryStudent:
		return Policy{MaxConcurrentLoans: 3, TermDays: 7}
	case CategoryFaculty:
		return Policy{MaxConcurrentLoans: 5, TermDays: 15}
	}
	return Policy{}
}

// FinePerDay is charged for every whole day a loan is returned late.
var FinePerDay = decimal.NewFromInt(1)

// MaxConcurrentLoans is the loan limit of the member's category.
func (m *Member) MaxConcurrentLoans() int {
	return PolicyFor(m.Category).MaxConcurrentLoans
}

// ComputeDueDate adds the category's loan term to loanDate.
func (m *Member) ComputeDueDate(loanDate time.Time) time.Time {
	return AddDays(loanDate, PolicyFor(m.Category).TermDays)
}

// CalculateFine charges FinePerDay for each calendar day returnDate is past dueDate.
func CalculateFine(dueDate, returnDate time.Time) decimal.Decimal {
	late := DaysBetween(dueDate, returnDate)
	if late <= 0 {
		return decimal.Zero
	}
	return FinePerDay.Mul(decimal.NewFromInt(int64(late)))
}
