package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"library-lending/library"
)

// session runs the line-oriented command loop.
type session struct {
	sc          *bufio.Scanner
	out         io.Writer
	mgr         *library.LibraryManager
	interactive bool
}

func newSession(sc *bufio.Scanner, out io.Writer, mgr *library.LibraryManager, interactive bool) *session {
	return &session{sc: sc, out: out, mgr: mgr, interactive: interactive}
}

func (s *session) run() {
	fmt.Fprintln(s.out, "Welcome to the Library Lending System!")
	fmt.Fprintf(s.out, "Session date: %s\n", library.FormatDate(s.mgr.Today()))
	s.handleLoad()
	s.printHelp()

	for {
		if s.interactive {
			fmt.Fprint(s.out, "\n> ")
		}
		if !s.sc.Scan() {
			break
		}
		cmd := strings.ToLower(strings.TrimSpace(s.sc.Text()))

		switch cmd {
		case "":
			continue
		case "add student":
			s.handleAddMember(library.CategoryStudent)
		case "add faculty":
			s.handleAddMember(library.CategoryFaculty)
		case "add book":
			s.handleAddItem(library.KindBook)
		case "add magazine":
			s.handleAddItem(library.KindMagazine)
		case "checkout":
			s.handleCheckout()
		case "return":
			s.handleReturn()
		case "block member":
			s.handleSetStatus(library.StatusBlocked)
		case "unblock member":
			s.handleSetStatus(library.StatusActive)
		case "list members":
			printMembers(s.out, s.mgr)
		case "list items":
			printItems(s.out, s.mgr)
		case "list loans":
			s.handleListLoans()
		case "list overdue":
			s.handleListOverdue()
		case "save":
			s.handleSave()
		case "load":
			s.handleLoad()
		case "help":
			s.printHelp()
		case "exit":
			fmt.Fprintln(s.out, "Goodbye!")
			return
		default:
			fmt.Fprintln(s.out, "Unknown command. Type 'help' to see the available commands.")
		}
	}
}

func (s *session) printHelp() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  Members: add student, add faculty, block member, unblock member, list members")
	fmt.Fprintln(s.out, "  Catalog: add book, add magazine, list items")
	fmt.Fprintln(s.out, "  Circulation: checkout, return, list loans, list overdue")
	fmt.Fprintln(s.out, "  System: save, load, help, exit")
}

// ask prompts for one field. It returns false when input ends.
func (s *session) ask(label string) (string, bool) {
	if s.interactive {
		fmt.Fprintf(s.out, "%s: ", label)
	}
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

func (s *session) askInt(label string) (int, bool) {
	raw, ok := s.ask(label)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid %s: %s\n", strings.ToLower(label), raw)
		return 0, false
	}
	return n, true
}

func (s *session) handleAddMember(category library.Category) {
	m := library.Member{Category: category}
	var ok bool
	if m.ID, ok = s.ask("ID"); !ok {
		return
	}
	if m.Name, ok = s.ask("Name"); !ok {
		return
	}
	if m.Address, ok = s.ask("Address"); !ok {
		return
	}
	if category == library.CategoryStudent {
		if m.EnrollmentNumber, ok = s.ask("Enrollment number"); !ok {
			return
		}
		if m.Program, ok = s.ask("Program"); !ok {
			return
		}
	} else {
		if m.StaffNumber, ok = s.ask("Staff number"); !ok {
			return
		}
		if m.Department, ok = s.ask("Department"); !ok {
			return
		}
	}

	if err := s.mgr.AddMember(m); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Registered %s '%s' with ID %s\n", strings.ToLower(category.String()), m.Name, m.ID)
}

func (s *session) handleAddItem(kind library.ItemKind) {
	item := library.CatalogItem{Kind: kind, Available: true}
	var ok bool
	if item.Code, ok = s.ask("Code"); !ok {
		return
	}
	if item.Title, ok = s.ask("Title"); !ok {
		return
	}
	if item.PublicationYear, ok = s.askInt("Year"); !ok {
		return
	}
	if kind == library.KindBook {
		if item.Author, ok = s.ask("Author"); !ok {
			return
		}
		if item.ISBN, ok = s.ask("ISBN"); !ok {
			return
		}
		if item.Edition, ok = s.askInt("Edition"); !ok {
			return
		}
	} else {
		if item.Publisher, ok = s.ask("Publisher"); !ok {
			return
		}
		if item.Volume, ok = s.askInt("Volume"); !ok {
			return
		}
		if item.ISSN, ok = s.ask("ISSN"); !ok {
			return
		}
	}

	if err := s.mgr.AddItem(item); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Registered %s '%s' with code %s\n", strings.ToLower(kind.String()), item.Title, item.Code)
}

func (s *session) handleCheckout() {
	memberID, ok := s.ask("Member ID")
	if !ok {
		return
	}
	code, ok := s.ask("Item code")
	if !ok {
		return
	}

	loan, err := s.mgr.Checkout(memberID, code)
	if err != nil {
		fmt.Fprintf(s.out, "Error checking out item: %v\n", err)
		return
	}
	item, _ := s.mgr.GetItem(code)
	fmt.Fprintf(s.out, "Loan #%d: '%s' checked out to %s\n", loan.ID, item.Title, memberID)
	fmt.Fprintf(s.out, "Due date: %s\n", library.FormatDate(loan.DueDate))
}

func (s *session) handleReturn() {
	raw, ok := s.ask("Loan ID")
	if !ok {
		return
	}
	loanID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid loan ID: %s\n", raw)
		return
	}

	loan, err := s.mgr.Return(loanID)
	if err != nil {
		fmt.Fprintf(s.out, "Error returning item: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Loan #%d returned on %s\n", loan.ID, library.FormatDate(loan.ReturnDate))
	if loan.Fine.IsPositive() {
		fmt.Fprintf(s.out, "Late return: fine of %s charged\n", loan.Fine.StringFixed(2))
	} else {
		fmt.Fprintln(s.out, "Returned on time, no fine")
	}
}

func (s *session) handleSetStatus(status library.Status) {
	memberID, ok := s.ask("Member ID")
	if !ok {
		return
	}
	if err := s.mgr.SetMemberStatus(memberID, status); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Member %s is now %s\n", memberID, strings.ToLower(status.String()))
}

func (s *session) handleListLoans() {
	loans := s.mgr.ActiveLoans()
	if len(loans) == 0 {
		fmt.Fprintln(s.out, "No active loans.")
		return
	}
	printLoanHeader(s.out, "")
	for _, loan := range loans {
		printLoanRow(s.out, s.mgr, loan, "")
	}
}

func (s *session) handleListOverdue() {
	overdue := s.mgr.OverdueLoans()
	if len(overdue) == 0 {
		fmt.Fprintln(s.out, "No overdue loans.")
		return
	}
	printLoanHeader(s.out, "Days Late")
	for _, o := range overdue {
		printLoanRow(s.out, s.mgr, o.Loan, strconv.Itoa(o.DaysOverdue))
	}
}

func (s *session) handleSave() {
	if err := s.mgr.SaveData(); err != nil {
		fmt.Fprintf(s.out, "Error saving data: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Data saved.")
}

func (s *session) handleLoad() {
	report := s.mgr.LoadData()
	if report.NothingLoaded {
		fmt.Fprintln(s.out, "Nothing loaded.")
		return
	}
	fmt.Fprintf(s.out, "Loaded %d member(s) and %d item(s)", report.Members, report.Items)
	if report.Skipped > 0 {
		fmt.Fprintf(s.out, ", skipped %d malformed record(s)", report.Skipped)
	}
	fmt.Fprintln(s.out, ".")
}

// ------------------ Tables ------------------

func printMembers(out io.Writer, mgr *library.LibraryManager) {
	members := mgr.GetAllMembers()
	if len(members) == 0 {
		fmt.Fprintln(out, "No members registered.")
		return
	}

	fmt.Fprintf(out, "%-10s %-25s %-9s %-8s %-6s %s\n", "ID", "Name", "Category", "Status", "Loans", "Details")
	fmt.Fprintln(out, strings.Repeat("-", 90))
	for _, m := range members {
		details := fmt.Sprintf("enrollment %s, %s", m.EnrollmentNumber, m.Program)
		if m.Category == library.CategoryFaculty {
			details = fmt.Sprintf("staff %s, %s", m.StaffNumber, m.Department)
		}
		fmt.Fprintf(out, "%-10s %-25s %-9s %-8s %-6s %s\n",
			truncateString(m.ID, 10),
			truncateString(m.Name, 25),
			m.Category,
			m.Status,
			fmt.Sprintf("%d/%d", len(m.ActiveLoans), m.MaxConcurrentLoans()),
			details)
	}
}

func printItems(out io.Writer, mgr *library.LibraryManager) {
	items := mgr.GetAllItems()
	if len(items) == 0 {
		fmt.Fprintln(out, "No items in catalog.")
		return
	}

	fmt.Fprintf(out, "%-8s %-9s %-30s %-5s %-10s %s\n", "Code", "Kind", "Title", "Year", "Available", "Details")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, it := range items {
		details := fmt.Sprintf("%s, ISBN %s, ed. %d", it.Author, it.ISBN, it.Edition)
		if it.Kind == library.KindMagazine {
			details = fmt.Sprintf("%s, vol. %d, ISSN %s", it.Publisher, it.Volume, it.ISSN)
		}
		availStr := "Yes"
		if !it.Available {
			availStr = "No"
		}
		fmt.Fprintf(out, "%-8s %-9s %-30s %-5d %-10s %s\n",
			truncateString(it.Code, 8),
			it.Kind,
			truncateString(it.Title, 30),
			it.PublicationYear,
			availStr,
			details)
	}
}

func printLoanHeader(out io.Writer, extra string) {
	fmt.Fprintf(out, "%-6s %-20s %-25s %-10s %-10s %s\n", "Loan", "Member", "Item", "Loaned", "Due", extra)
	fmt.Fprintln(out, strings.Repeat("-", 90))
}

func printLoanRow(out io.Writer, mgr *library.LibraryManager, loan library.Loan, extra string) {
	memberInfo := loan.MemberID
	if m, err := mgr.GetMember(loan.MemberID); err == nil {
		memberInfo = fmt.Sprintf("%s (%s)", m.Name, m.ID)
	}
	itemInfo := loan.ItemCode
	if it, err := mgr.GetItem(loan.ItemCode); err == nil {
		itemInfo = it.Title
	}
	fmt.Fprintf(out, "%-6d %-20s %-25s %-10s %-10s %s\n",
		loan.ID,
		truncateString(memberInfo, 20),
		truncateString(itemInfo, 25),
		library.FormatDate(loan.LoanDate),
		library.FormatDate(loan.DueDate),
		extra)
}

// truncateString cuts s to maxLength runes, marking the cut with "...".
func truncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
