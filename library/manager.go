package library

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Clock supplies the current calendar date.
type Clock interface {
	Today() time.Time
}

type systemClock struct{}

func (systemClock) Today() time.Time { return DateOf(time.Now()) }

// FixedClock always reports the same date.
type FixedClock time.Time

func (c FixedClock) Today() time.Time { return DateOf(time.Time(c)) }

// LoadReport describes the outcome of LibraryManager.Load.
type LoadReport struct {
	Members       int
	Items         int
	Skipped       int
	NothingLoaded bool
	// Reason is set when NothingLoaded is true.
	Reason string
}

// LibraryManager is a thin façade over the LendingEngine and a Gateway,
// keeping CLI code simple. All methods are serialized by one mutex.
type LibraryManager struct {
	mu     sync.Mutex
	engine *LendingEngine
	store  Gateway
	clock  Clock
	log    *slog.Logger
}

// Option configures a LibraryManager.
type Option func(*LibraryManager)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(lm *LibraryManager) { lm.clock = c }
}

// WithLogger sets the logger used by the manager and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(lm *LibraryManager) { lm.log = l }
}

// NewLibraryManager returns a manager with an empty engine persisting to store.
func NewLibraryManager(store Gateway, opts ...Option) *LibraryManager {
	lm := &LibraryManager{store: store, clock: systemClock{}, log: slog.Default()}
	for _, opt := range opts {
		opt(lm)
	}
	if lm.log == nil {
		lm.log = slog.Default()
	}
	lm.engine = NewLendingEngine(lm.log)
	return lm
}

// Close closes the underlying store.
func (lm *LibraryManager) Close() error { return lm.store.Close() }

// Today is the date the manager passes to the engine.
func (lm *LibraryManager) Today() time.Time { return lm.clock.Today() }

// ------------------ Registration ------------------

func (lm *LibraryManager) AddMember(m Member) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.RegisterMember(m)
}

func (lm *LibraryManager) AddItem(item CatalogItem) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.RegisterItem(item)
}

func (lm *LibraryManager) SetMemberStatus(memberID string, status Status) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.SetMemberStatus(memberID, status)
}

// ------------------ Lookup ------------------

func (lm *LibraryManager) GetMember(id string) (Member, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.Member(id)
}

func (lm *LibraryManager) GetItem(code string) (CatalogItem, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.Item(code)
}

func (lm *LibraryManager) GetLoan(id int64) (Loan, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.Loan(id)
}

func (lm *LibraryManager) GetAllMembers() []Member {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.Members()
}

func (lm *LibraryManager) GetAllItems() []CatalogItem {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.Items()
}

// ------------------ Circulation ------------------

// Checkout lends an item to a member today.
func (lm *LibraryManager) Checkout(memberID, itemCode string) (Loan, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.OpenLoan(memberID, itemCode, lm.clock.Today())
}

// Return closes a loan today and yields it with its fine.
func (lm *LibraryManager) Return(loanID int64) (Loan, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.CloseLoan(loanID, lm.clock.Today())
}

func (lm *LibraryManager) ActiveLoans() []Loan {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.ActiveLoans()
}

// OverdueLoans lists open loans that are overdue today.
func (lm *LibraryManager) OverdueLoans() []OverdueLoan {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.engine.OverdueLoans(lm.clock.Today())
}

// ------------------ Persistence ------------------

// SaveData writes members and items to the store.
func (lm *LibraryManager) SaveData() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	snap := lm.engine.Snapshot()
	if err := lm.store.Save(snap); err != nil {
		return fmt.Errorf("save data: %w", err)
	}
	lm.log.Info("data saved", "members", len(snap.Members), "items", len(snap.Items))
	return nil
}

// LoadData replaces members and items with the stored ones. Missing or
// unreadable data is never an error: the report says nothing was loaded and
// the in-memory state is left as it was.
func (lm *LibraryManager) LoadData() LoadReport {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	snap, err := lm.store.Load()
	if err == nil {
		err = lm.engine.Restore(snap)
	}
	if err != nil {
		reason := err.Error()
		if errors.Is(err, ErrNothingToLoad) {
			lm.log.Info("no saved data found")
		} else {
			lm.log.Warn("load failed, keeping current data", "error", err)
		}
		return LoadReport{NothingLoaded: true, Reason: reason}
	}

	lm.log.Info("data loaded", "members", len(snap.Members), "items", len(snap.Items), "skipped", snap.Skipped)
	return LoadReport{Members: len(snap.Members), Items: len(snap.Items), Skipped: snap.Skipped}
}
