package library

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LendingEngine owns members, catalog items and the loan history, and is the
// only place loans are created or closed. It does no locking; callers that
// share an engine must serialize access (LibraryManager does).
type LendingEngine struct {
	members     map[string]*Member
	memberOrder []string
	items       map[string]*CatalogItem
	itemOrder   []string

	loans    LoanTable
	history  []int64
	nextLoan int64
	log      *slog.Logger
}

// NewLendingEngine returns an empty engine whose first loan gets id 1.
func NewLendingEngine(log *slog.Logger) *LendingEngine {
	if log == nil {
		log = slog.Default()
	}
	return &LendingEngine{
		members:  make(map[string]*Member),
		items:    make(map[string]*CatalogItem),
		loans:    make(LoanTable),
		nextLoan: 1,
		log:      log,
	}
}

// ------------------ Registration ------------------

// RegisterMember adds a member. The zero Status is Active; any loan ids on m
// are ignored.
func (e *LendingEngine) RegisterMember(m Member) error {
	if err := validateMember(m); err != nil {
		return err
	}
	if _, ok := e.members[m.ID]; ok {
		return newError(CodeDuplicate, "member %q is already registered", m.ID)
	}
	m.ActiveLoans, m.FinedLoans = nil, nil
	e.members[m.ID] = &m
	e.memberOrder = append(e.memberOrder, m.ID)
	return nil
}

// RegisterItem adds a catalog item as given, including its availability.
func (e *LendingEngine) RegisterItem(item CatalogItem) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if _, ok := e.items[item.Code]; ok {
		return newError(CodeDuplicate, "item %q is already registered", item.Code)
	}
	e.items[item.Code] = &item
	e.itemOrder = append(e.itemOrder, item.Code)
	return nil
}

// SetMemberStatus blocks or unblocks a member.
func (e *LendingEngine) SetMemberStatus(memberID string, status Status) error {
	m, ok := e.members[memberID]
	if !ok {
		return newError(CodeMemberNotFound, "member %q not found", memberID)
	}
	m.Status = status
	return nil
}

func validateMember(m Member) error {
	if strings.TrimSpace(m.ID) == "" {
		return newError(CodeInvalidArgument, "member id is required")
	}
	if m.Category != CategoryStudent && m.Category != CategoryFaculty {
		return newError(CodeInvalidArgument, "member %q has unknown category", m.ID)
	}
	return checkFields(m.ID, m.Name, m.Address, m.EnrollmentNumber, m.Program, m.StaffNumber, m.Department)
}

func validateItem(item CatalogItem) error {
	if strings.TrimSpace(item.Code) == "" {
		return newError(CodeInvalidArgument, "item code is required")
	}
	if item.Kind != KindBook && item.Kind != KindMagazine {
		return newError(CodeInvalidArgument, "item %q has unknown kind", item.Code)
	}
	return checkFields(item.Code, item.Title, item.Author, item.ISBN, item.Publisher, item.ISSN)
}

// checkFields rejects values that would break a line-oriented record.
func checkFields(fields ...string) error {
	for _, f := range fields {
		if strings.ContainsAny(f, fieldSeparator+"\r\n") {
			return newError(CodeInvalidArgument, "%q must not contain %q or line breaks", f, fieldSeparator)
		}
	}
	return nil
}

// ------------------ Lookup ------------------

func (e *LendingEngine) Member(id string) (Member, error) {
	m, ok := e.members[id]
	if !ok {
		return Member{}, newError(CodeMemberNotFound, "member %q not found", id)
	}
	return m.clone(), nil
}

func (e *LendingEngine) Item(code string) (CatalogItem, error) {
	item, ok := e.items[code]
	if !ok {
		return CatalogItem{}, newError(CodeItemNotFound, "item %q not found", code)
	}
	return *item, nil
}

func (e *LendingEngine) Loan(id int64) (Loan, error) {
	loan, ok := e.loans[id]
	if !ok {
		return Loan{}, newError(CodeLoanNotFound, "loan %d not found", id)
	}
	return *loan, nil
}

// Members returns all members in registration order.
func (e *LendingEngine) Members() []Member {
	out := make([]Member, 0, len(e.memberOrder))
	for _, id := range e.memberOrder {
		out = append(out, e.members[id].clone())
	}
	return out
}

// Items returns all catalog items in registration order.
func (e *LendingEngine) Items() []CatalogItem {
	out := make([]CatalogItem, 0, len(e.itemOrder))
	for _, code := range e.itemOrder {
		out = append(out, *e.items[code])
	}
	return out
}

// ------------------ Circulation ------------------

// OpenLoan lends the item to the member on today.
func (e *LendingEngine) OpenLoan(memberID, itemCode string, today time.Time) (Loan, error) {
	member, ok := e.members[memberID]
	if !ok {
		return Loan{}, newError(CodeMemberNotFound, "member %q not found", memberID)
	}
	item, ok := e.items[itemCode]
	if !ok {
		return Loan{}, newError(CodeItemNotFound, "item %q not found", itemCode)
	}
	if !item.Available {
		return Loan{}, newError(CodeItemUnavailable, "item '%s' is not available for loan", item.Title)
	}

	switch reason := member.BlockReason(today, e.loans); reason {
	case NotBlocked:
	case BlockedByLimit:
		return Loan{}, newError(CodeBorrowingLimitExceeded, "member %q reached the limit of %d concurrent loans",
			member.ID, member.MaxConcurrentLoans())
	default:
		return Loan{}, newError(CodeMemberBlocked, "member %q cannot borrow: %s", member.ID, reason)
	}

	loanDate := DateOf(today)
	loan := &Loan{
		ID:       e.allocateLoanID(),
		MemberID: member.ID,
		ItemCode: item.Code,
		LoanDate: loanDate,
		DueDate:  member.ComputeDueDate(loanDate),
		Fine:     decimal.Zero,
	}

	item.Available = false
	member.attachLoan(loan.ID)
	e.loans[loan.ID] = loan
	e.history = append(e.history, loan.ID)

	e.log.Debug("loan opened", "loan_id", loan.ID, "member_id", member.ID, "item_code", item.Code,
		"due_date", FormatDate(loan.DueDate))
	return *loan, nil
}

func (e *LendingEngine) allocateLoanID() int64 {
	id := e.nextLoan
	e.nextLoan++
	return id
}

// CloseLoan records the return of a loan on today and charges any fine.
// A closed loan never changes again.
func (e *LendingEngine) CloseLoan(loanID int64, today time.Time) (Loan, error) {
	loan, ok := e.loans[loanID]
	if !ok {
		return Loan{}, newError(CodeLoanNotFound, "loan %d not found", loanID)
	}
	if !loan.IsOpen() {
		return Loan{}, newError(CodeLoanAlreadyClosed, "loan %d was already returned on %s",
			loanID, FormatDate(loan.ReturnDate))
	}

	loan.ReturnDate = DateOf(today)
	loan.Fine = CalculateFine(loan.DueDate, loan.ReturnDate)

	if item, ok := e.items[loan.ItemCode]; ok {
		item.Available = true
	}
	if member, ok := e.members[loan.MemberID]; ok {
		member.detachLoan(loan.ID)
		if loan.Fine.IsPositive() {
			member.FinedLoans = append(member.FinedLoans, loan.ID)
		}
	}

	e.log.Debug("loan closed", "loan_id", loan.ID, "return_date", FormatDate(loan.ReturnDate),
		"fine", loan.Fine.StringFixed(2))
	return *loan, nil
}

// ------------------ Queries ------------------

// History returns every loan ever opened, oldest first.
func (e *LendingEngine) History() []Loan {
	out := make([]Loan, 0, len(e.history))
	for _, id := range e.history {
		out = append(out, *e.loans[id])
	}
	return out
}

// ActiveLoans returns the open loans, oldest first.
func (e *LendingEngine) ActiveLoans() []Loan {
	var out []Loan
	for _, id := range e.history {
		if loan := e.loans[id]; loan.IsOpen() {
			out = append(out, *loan)
		}
	}
	return out
}

// OverdueLoans returns the open loans due before today. Fines are not touched.
func (e *LendingEngine) OverdueLoans(today time.Time) []OverdueLoan {
	today = DateOf(today)
	var out []OverdueLoan
	for _, loan := range e.ActiveLoans() {
		if loan.DueDate.Before(today) {
			out = append(out, OverdueLoan{Loan: loan, DaysOverdue: DaysBetween(loan.DueDate, today)})
		}
	}
	return out
}

// ------------------ Snapshot ------------------

// Snapshot copies the persisted part of the state. Loans are not included.
func (e *LendingEngine) Snapshot() Snapshot {
	members := e.Members()
	for i := range members {
		members[i].ActiveLoans, members[i].FinedLoans = nil, nil
	}
	return Snapshot{Members: members, Items: e.Items()}
}

// Restore replaces members and items with those in s. Loan history and the
// loan id counter are kept, and open or fined loans are re-attached to
// members that still exist. Nothing changes when s holds an invalid or
// duplicate record, or a member whose category no longer allows its open
// loans.
func (e *LendingEngine) Restore(s Snapshot) error {
	next := NewLendingEngine(e.log)
	for _, m := range s.Members {
		if err := next.RegisterMember(m); err != nil {
			return err
		}
	}
	for _, item := range s.Items {
		if err := next.RegisterItem(item); err != nil {
			return err
		}
	}

	for _, id := range e.history {
		loan := e.loans[id]
		m, known := next.members[loan.MemberID]
		if !loan.IsOpen() {
			if known && loan.Fine.IsPositive() {
				m.FinedLoans = append(m.FinedLoans, loan.ID)
			}
			continue
		}
		if known {
			if len(m.ActiveLoans) >= m.MaxConcurrentLoans() {
				return newError(CodeInvalidArgument, "member %q holds more open loans than its %s limit of %d",
					m.ID, strings.ToLower(m.Category.String()), m.MaxConcurrentLoans())
			}
			m.attachLoan(loan.ID)
		}
		if item, ok := next.items[loan.ItemCode]; ok && item.Available {
			e.log.Warn("restored item is marked available but has an open loan",
				"item_code", item.Code, "loan_id", loan.ID)
		}
	}

	e.members, e.memberOrder = next.members, next.memberOrder
	e.items, e.itemOrder = next.items, next.itemOrder
	return nil
}
