package library

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a Gateway backed by a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger

	insertMemberStmt *sql.Stmt
	insertItemStmt   *sql.Stmt
}

// NewSQLiteStore opens (or creates) the SQLite database at dbPath, applies
// schema migrations, and prepares common statements.
func NewSQLiteStore(dbPath string, log *slog.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = slog.Default()
	}
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db, log: log}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases prepared statements and closes the DB.
func (s *SQLiteStore) Close() error {
	if s.insertMemberStmt != nil {
		s.insertMemberStmt.Close()
	}
	if s.insertItemStmt != nil {
		s.insertItemStmt.Close()
	}
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS members (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            category TEXT NOT NULL CHECK (category IN ('Aluno','Professor')),
            name TEXT NOT NULL,
            address TEXT NOT NULL,
            blocked BOOLEAN NOT NULL DEFAULT 0,
            enrollment_number TEXT NOT NULL DEFAULT '',
            program TEXT NOT NULL DEFAULT '',
            staff_number TEXT NOT NULL DEFAULT '',
            department TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS items (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            code TEXT NOT NULL UNIQUE,
            kind TEXT NOT NULL CHECK (kind IN ('Livro','Revista')),
            title TEXT NOT NULL,
            year INTEGER NOT NULL,
            available BOOLEAN NOT NULL DEFAULT 1,
            author TEXT NOT NULL DEFAULT '',
            isbn TEXT NOT NULL DEFAULT '',
            edition INTEGER NOT NULL DEFAULT 0,
            publisher TEXT NOT NULL DEFAULT '',
            volume INTEGER NOT NULL DEFAULT 0,
            issn TEXT NOT NULL DEFAULT ''
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (s *SQLiteStore) prepareStatements() error {
	var err error
	if s.insertMemberStmt, err = s.db.Prepare(`INSERT INTO members(
            id,category,name,address,blocked,enrollment_number,program,staff_number,department)
        VALUES(?,?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if s.insertItemStmt, err = s.db.Prepare(`INSERT INTO items(
            code,kind,title,year,available,author,isbn,edition,publisher,volume,issn)
        VALUES(?,?,?,?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Gateway
// ---------------------------------------------------------------------------

// Save replaces the stored members and items in one transaction.
func (s *SQLiteStore) Save(snap Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM members`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM items`); err != nil {
		return err
	}

	insertMember := tx.Stmt(s.insertMemberStmt)
	for _, m := range snap.Members {
		var tag string
		switch m.Category {
		case CategoryStudent:
			tag = tagStudent
		case CategoryFaculty:
			tag = tagFaculty
		default:
			return fmt.Errorf("member %q has unknown category", m.ID)
		}
		if _, err := insertMember.Exec(m.ID, tag, m.Name, m.Address, m.Status == StatusBlocked,
			m.EnrollmentNumber, m.Program, m.StaffNumber, m.Department); err != nil {
			return fmt.Errorf("save member %q: %w", m.ID, err)
		}
	}

	insertItem := tx.Stmt(s.insertItemStmt)
	for _, it := range snap.Items {
		var tag string
		switch it.Kind {
		case KindBook:
			tag = tagBook
		case KindMagazine:
			tag = tagMagazine
		default:
			return fmt.Errorf("item %q has unknown kind", it.Code)
		}
		if _, err := insertItem.Exec(it.Code, tag, it.Title, it.PublicationYear, it.Available,
			it.Author, it.ISBN, it.Edition, it.Publisher, it.Volume, it.ISSN); err != nil {
			return fmt.Errorf("save item %q: %w", it.Code, err)
		}
	}

	return tx.Commit()
}

// Load reads all members and items in insertion order.
func (s *SQLiteStore) Load() (Snapshot, error) {
	var snap Snapshot

	rows, err := s.db.Query(`SELECT id,category,name,address,blocked,enrollment_number,program,staff_number,department
        FROM members ORDER BY seq`)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			m       Member
			tag     string
			blocked bool
		)
		if err := rows.Scan(&m.ID, &tag, &m.Name, &m.Address, &blocked,
			&m.EnrollmentNumber, &m.Program, &m.StaffNumber, &m.Department); err != nil {
			return Snapshot{}, err
		}
		if strings.TrimSpace(m.ID) == "" {
			s.log.Warn("skipping member row", "reason", "empty id")
			snap.Skipped++
			continue
		}
		switch tag {
		case tagStudent:
			m.Category = CategoryStudent
		case tagFaculty:
			m.Category = CategoryFaculty
		default:
			s.log.Warn("skipping member row", "id", m.ID, "category", tag)
			snap.Skipped++
			continue
		}
		if blocked {
			m.Status = StatusBlocked
		}
		snap.Members = append(snap.Members, m)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	itemRows, err := s.db.Query(`SELECT code,kind,title,year,available,author,isbn,edition,publisher,volume,issn
        FROM items ORDER BY seq`)
	if err != nil {
		return Snapshot{}, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var (
			it  CatalogItem
			tag string
		)
		if err := itemRows.Scan(&it.Code, &tag, &it.Title, &it.PublicationYear, &it.Available,
			&it.Author, &it.ISBN, &it.Edition, &it.Publisher, &it.Volume, &it.ISSN); err != nil {
			return Snapshot{}, err
		}
		if strings.TrimSpace(it.Code) == "" {
			s.log.Warn("skipping item row", "reason", "empty code")
			snap.Skipped++
			continue
		}
		switch tag {
		case tagBook:
			it.Kind = KindBook
		case tagMagazine:
			it.Kind = KindMagazine
		default:
			s.log.Warn("skipping item row", "code", it.Code, "kind", tag)
			snap.Skipped++
			continue
		}
		snap.Items = append(snap.Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return Snapshot{}, err
	}

	if len(snap.Members) == 0 && len(snap.Items) == 0 && snap.Skipped == 0 {
		return Snapshot{}, ErrNothingToLoad
	}
	return snap, nil
}
