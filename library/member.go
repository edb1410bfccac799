package library

import (
	"slices"
	"time"
)

// LoanTable is the arena of loans keyed by id. The engine owns it; members
// refer into it by id.
type LoanTable map[int64]*Loan

// BlockReason explains why a member may not borrow.
type BlockReason int

const (
	NotBlocked BlockReason = iota
	BlockedByLimit
	BlockedByFine
	BlockedByOverdue
	BlockedByStatus
)

func (r BlockReason) String() string {
	switch r {
	case BlockedByLimit:
		return "loan limit reached"
	case BlockedByFine:
		return "unpaid fine"
	case BlockedByOverdue:
		return "overdue item"
	case BlockedByStatus:
		return "blocked status"
	}
	return "not blocked"
}

// IsEligibleToBorrow reports whether the member may open a new loan on today.
func (m *Member) IsEligibleToBorrow(today time.Time, loans LoanTable) bool {
	return m.BlockReason(today, loans) == NotBlocked
}

// BlockReason returns the first rule that stops the member from borrowing.
// The limit is checked first so it can be told apart from the other reasons.
func (m *Member) BlockReason(today time.Time, loans LoanTable) BlockReason {
	if len(m.ActiveLoans) >= m.MaxConcurrentLoans() {
		return BlockedByLimit
	}
	for _, id := range m.FinedLoans {
		if loan, ok := loans[id]; ok && loan.Fine.IsPositive() {
			return BlockedByFine
		}
	}
	today = DateOf(today)
	for _, id := range m.ActiveLoans {
		loan, ok := loans[id]
		if !ok {
			continue
		}
		if loan.Fine.IsPositive() {
			return BlockedByFine
		}
		if loan.IsOpen() && loan.DueDate.Before(today) {
			return BlockedByOverdue
		}
	}
	if m.Status == StatusBlocked {
		return BlockedByStatus
	}
	return NotBlocked
}

func (m *Member) attachLoan(id int64) {
	m.ActiveLoans = append(m.ActiveLoans, id)
}

// detachLoan is a no-op when id is not in the active list.
func (m *Member) detachLoan(id int64) {
	if i := slices.Index(m.ActiveLoans, id); i >= 0 {
		m.ActiveLoans = slices.Delete(m.ActiveLoans, i, i+1)
	}
}

func (m Member) clone() Member {
	m.ActiveLoans = slices.Clone(m.ActiveLoans)
	m.FinedLoans = slices.Clone(m.FinedLoans)
	return m
}
