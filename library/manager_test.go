package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"library-lending/config"
)

// mutableClock lets a test move the date between calls.
type mutableClock struct{ today time.Time }

func (c *mutableClock) Today() time.Time { return c.today }

func newManager(t *testing.T, clock Clock) (*LibraryManager, string) {
	t.Helper()
	dir := t.TempDir()
	store := NewFlatFileStore(filepath.Join(dir, "usuarios.csv"), filepath.Join(dir, "acervo.csv"), nil)
	mgr := NewLibraryManager(store, WithClock(clock))
	t.Cleanup(func() { mgr.Close() })
	return mgr, dir
}

func TestCheckoutAndReturnUseTheClock(t *testing.T) {
	clock := &mutableClock{today: Date(2024, time.March, 1)}
	mgr, _ := newManager(t, clock)
	if err := mgr.AddMember(student("A100")); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := mgr.AddItem(book("L001")); err != nil {
		t.Fatalf("add item: %v", err)
	}

	loan, err := mgr.Checkout("A100", "L001")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !loan.DueDate.Equal(Date(2024, time.March, 8)) {
		t.Fatalf("due date: got %s", FormatDate(loan.DueDate))
	}

	clock.today = Date(2024, time.March, 10)
	overdue := mgr.OverdueLoans()
	if len(overdue) != 1 || overdue[0].DaysOverdue != 2 {
		t.Fatalf("want one loan 2 days overdue, got %+v", overdue)
	}

	returned, err := mgr.Return(loan.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Fine.String() != "2" {
		t.Fatalf("want fine 2, got %s", returned.Fine)
	}
	if len(mgr.ActiveLoans()) != 0 {
		t.Fatalf("loan still active")
	}
	item, err := mgr.GetItem("L001")
	if err != nil || !item.Available {
		t.Fatalf("item not available after return: %+v, %v", item, err)
	}
	if _, err := mgr.Checkout("A100", "L001"); !errors.Is(err, ErrMemberBlocked) {
		t.Fatalf("fined member should be blocked, got %v", err)
	}
}

func TestLoadWithoutSavedData(t *testing.T) {
	mgr, _ := newManager(t, FixedClock(Date(2024, time.March, 1)))
	if err := mgr.AddMember(faculty("P200")); err != nil {
		t.Fatalf("add member: %v", err)
	}

	report := mgr.LoadData()
	if !report.NothingLoaded {
		t.Fatalf("expected nothing loaded, got %+v", report)
	}
	if _, err := mgr.GetMember("P200"); err != nil {
		t.Fatalf("state was replaced: %v", err)
	}
}

func TestLoadWithInvalidDataKeepsState(t *testing.T) {
	mgr, dir := newManager(t, FixedClock(Date(2024, time.March, 1)))
	if err := mgr.AddItem(book("L001")); err != nil {
		t.Fatalf("add item: %v", err)
	}
	// A directory where the file should be cannot be read as records.
	if err := os.Mkdir(filepath.Join(dir, "acervo.csv"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	report := mgr.LoadData()
	if !report.NothingLoaded || report.Reason == "" {
		t.Fatalf("expected a failed load with a reason, got %+v", report)
	}
	if len(mgr.GetAllItems()) != 1 {
		t.Fatalf("state was replaced")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	mgr, dir := newManager(t, FixedClock(Date(2024, time.March, 1)))
	for _, m := range []Member{student("A100"), faculty("P200")} {
		if err := mgr.AddMember(m); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}
	for _, it := range []CatalogItem{book("L001"), magazine("R001")} {
		if err := mgr.AddItem(it); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}
	loan, err := mgr.Checkout("P200", "R001")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if err := mgr.SetMemberStatus("A100", StatusBlocked); err != nil {
		t.Fatalf("block: %v", err)
	}
	if err := mgr.SaveData(); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh manager over the same files sees the saved state.
	store := NewFlatFileStore(filepath.Join(dir, "usuarios.csv"), filepath.Join(dir, "acervo.csv"), nil)
	fresh := NewLibraryManager(store, WithClock(FixedClock(Date(2024, time.March, 1))))
	report := fresh.LoadData()
	if report.NothingLoaded || report.Members != 2 || report.Items != 2 || report.Skipped != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	m, err := fresh.GetMember("A100")
	if err != nil || m.Status != StatusBlocked {
		t.Fatalf("blocked status lost: %+v, %v", m, err)
	}
	item, err := fresh.GetItem("R001")
	if err != nil || item.Available {
		t.Fatalf("availability lost: %+v, %v", item, err)
	}
	if _, err := fresh.GetLoan(loan.ID); !errors.Is(err, ErrLoanNotFound) {
		t.Fatalf("loans are not persisted, got %v", err)
	}

	// Reloading into the first manager keeps its loan attached.
	if report := mgr.LoadData(); report.NothingLoaded {
		t.Fatalf("reload failed: %+v", report)
	}
	p, _ := mgr.GetMember("P200")
	if len(p.ActiveLoans) != 1 || p.ActiveLoans[0] != loan.ID {
		t.Fatalf("open loan not re-attached: %+v", p.ActiveLoans)
	}
}

func TestOpenStoreSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := config.StorageConfig{
		Dir: dir, MembersFile: "usuarios.csv", ItemsFile: "acervo.csv", SQLitePath: "library.db",
	}

	store, err := OpenStore(cfg, nil)
	if err != nil {
		t.Fatalf("default backend: %v", err)
	}
	if _, ok := store.(*FlatFileStore); !ok {
		t.Fatalf("want *FlatFileStore, got %T", store)
	}

	cfg.Backend = config.BackendSQLite
	store, err = OpenStore(cfg, nil)
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("want *SQLiteStore, got %T", store)
	}
	if _, err := os.Stat(filepath.Join(dir, "library.db")); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	cfg.Backend = "redis"
	if _, err := OpenStore(cfg, nil); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLendingErrorCodes(t *testing.T) {
	mgr, _ := newManager(t, FixedClock(Date(2024, time.March, 1)))
	_, err := mgr.Checkout("nobody", "L001")
	if CodeOf(err) != CodeMemberNotFound {
		t.Fatalf("want %s, got %s", CodeMemberNotFound, CodeOf(err))
	}
	var le *LendingError
	if !errors.As(err, &le) || le.Message == "" {
		t.Fatalf("want a *LendingError with a message, got %v", err)
	}
	if errors.Is(err, ErrItemNotFound) {
		t.Fatalf("codes must not match across kinds")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
}

func TestLoadSkipsBlankIDsAndKeepsValidRecords(t *testing.T) {
	mgr, dir := newManager(t, FixedClock(Date(2024, time.March, 1)))
	lines := "Aluno;A100;Ryan;Rua A;Ativo;2023001;Eng. Comp.\nAluno; ;Blank;Rua B;Ativo;1;x\n"
	if err := os.WriteFile(filepath.Join(dir, "usuarios.csv"), []byte(lines), 0o644); err != nil {
		t.Fatalf("write members: %v", err)
	}

	report := mgr.LoadData()
	if report.NothingLoaded || report.Members != 1 || report.Skipped != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, err := mgr.GetMember("A100"); err != nil {
		t.Fatalf("valid member lost: %v", err)
	}
}
