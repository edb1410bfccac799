package library

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status says whether a member may borrow at all.
type Status int

const (
	StatusActive Status = iota
	StatusBlocked
)

func (s Status) String() string {
	if s == StatusBlocked {
		return "Blocked"
	}
	return "Active"
}

// Category selects the borrowing policy of a member.
type Category int

const (
	CategoryStudent Category = iota + 1
	CategoryFaculty
)

func (c Category) String() string {
	switch c {
	case CategoryStudent:
		return "Student"
	case CategoryFaculty:
		return "Faculty"
	}
	return "Unknown"
}

// ItemKind tags the kind-specific fields of a catalog item.
type ItemKind int

const (
	KindBook ItemKind = iota + 1
	KindMagazine
)

func (k ItemKind) String() string {
	switch k {
	case KindBook:
		return "Book"
	case KindMagazine:
		return "Magazine"
	}
	return "Unknown"
}

// Member represents a registered library member.
// Student members fill EnrollmentNumber and Program, faculty members fill
// StaffNumber and Department.
type Member struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Status   Status   `json:"status"`
	Category Category `json:"category"`

	EnrollmentNumber string `json:"enrollment_number,omitempty"`
	Program          string `json:"program,omitempty"`
	StaffNumber      string `json:"staff_number,omitempty"`
	Department       string `json:"department,omitempty"`

	// ActiveLoans holds ids into the engine's loan table, in borrowing order.
	ActiveLoans []int64 `json:"-"`
	// FinedLoans holds closed loans that charged a fine. Fines are never
	// cleared, so these keep the member from borrowing.
	FinedLoans []int64 `json:"-"`
}

// CatalogItem represents a borrowable book or magazine.
type CatalogItem struct {
	Code            string   `json:"code"`
	Title           string   `json:"title"`
	PublicationYear int      `json:"publication_year"`
	Available       bool     `json:"available"`
	Kind            ItemKind `json:"kind"`

	// Book
	Author  string `json:"author,omitempty"`
	ISBN    string `json:"isbn,omitempty"`
	Edition int    `json:"edition,omitempty"`

	// Magazine
	Publisher string `json:"publisher,omitempty"`
	Volume    int    `json:"volume,omitempty"`
	ISSN      string `json:"issn,omitempty"`
}

// Loan links one member to one catalog item.
// A zero ReturnDate means the loan is still open.
type Loan struct {
	ID         int64           `json:"id"`
	MemberID   string          `json:"member_id"`
	ItemCode   string          `json:"item_code"`
	LoanDate   time.Time       `json:"loan_date"`
	DueDate    time.Time       `json:"due_date"`
	ReturnDate time.Time       `json:"return_date"`
	Fine       decimal.Decimal `json:"fine"`
}

// IsOpen reports whether the loan has not been returned yet.
func (l Loan) IsOpen() bool { return l.ReturnDate.IsZero() }

// OverdueLoan is an open loan past its due date, with the days elapsed since.
type OverdueLoan struct {
	Loan
	DaysOverdue int
}

// Snapshot is the part of the library state that survives a save/load cycle.
type Snapshot struct {
	Members []Member
	Items   []CatalogItem
	// Skipped counts records a gateway could not decode.
	Skipped int
}
