package library

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const fieldSeparator = ";"

// Record tags written in the first field of every line.
const (
	tagStudent  = "Aluno"
	tagFaculty  = "Professor"
	tagBook     = "Livro"
	tagMagazine = "Revista"

	statusActiveText  = "Ativo"
	statusBlockedText = "Bloqueado"
)

// Gateway persists the members and catalog items of a library.
// Load returns ErrNothingToLoad when there is no saved data.
type Gateway interface {
	Save(s Snapshot) error
	Load() (Snapshot, error)
	Close() error
}

// FlatFileStore keeps members and items in two semicolon-delimited files,
// one record per line.
type FlatFileStore struct {
	membersPath string
	itemsPath   string
	log         *slog.Logger
}

// NewFlatFileStore returns a store for the two given files. Nothing is read
// or created until Load or Save.
func NewFlatFileStore(membersPath, itemsPath string, log *slog.Logger) *FlatFileStore {
	if log == nil {
		log = slog.Default()
	}
	return &FlatFileStore{membersPath: membersPath, itemsPath: itemsPath, log: log}
}

func (f *FlatFileStore) Close() error { return nil }

// Save rewrites both files. Each is written to a temporary file first and
// renamed over the old one.
func (f *FlatFileStore) Save(s Snapshot) error {
	if err := writeLines(f.membersPath, func(w io.Writer) error { return EncodeMembers(w, s.Members) }); err != nil {
		return fmt.Errorf("save members: %w", err)
	}
	if err := writeLines(f.itemsPath, func(w io.Writer) error { return EncodeItems(w, s.Items) }); err != nil {
		return fmt.Errorf("save items: %w", err)
	}
	return nil
}

// Load reads both files. A missing file contributes nothing; undecodable
// lines are logged and counted in Snapshot.Skipped.
func (f *FlatFileStore) Load() (Snapshot, error) {
	var s Snapshot
	found := 0

	err := readLines(f.membersPath, func(r io.Reader) error {
		members, skipped, err := DecodeMembers(r, f.log)
		s.Members, s.Skipped = members, s.Skipped+skipped
		return err
	})
	switch {
	case err == nil:
		found++
	case !errors.Is(err, fs.ErrNotExist):
		return Snapshot{}, fmt.Errorf("load members: %w", err)
	}

	err = readLines(f.itemsPath, func(r io.Reader) error {
		items, skipped, err := DecodeItems(r, f.log)
		s.Items, s.Skipped = items, s.Skipped+skipped
		return err
	})
	switch {
	case err == nil:
		found++
	case !errors.Is(err, fs.ErrNotExist):
		return Snapshot{}, fmt.Errorf("load items: %w", err)
	}

	if found == 0 {
		return Snapshot{}, ErrNothingToLoad
	}
	return s, nil
}

func writeLines(path string, encode func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := encode(bw); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readLines(path string, decode func(io.Reader) error) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer file.Close()
	return decode(file)
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// EncodeMembers writes one line per member:
// Category;id;name;address;status;field1;field2
func EncodeMembers(w io.Writer, members []Member) error {
	for _, m := range members {
		var tag, f1, f2 string
		switch m.Category {
		case CategoryStudent:
			tag, f1, f2 = tagStudent, m.EnrollmentNumber, m.Program
		case CategoryFaculty:
			tag, f1, f2 = tagFaculty, m.StaffNumber, m.Department
		default:
			return fmt.Errorf("member %q has unknown category", m.ID)
		}
		line := strings.Join([]string{tag, m.ID, m.Name, m.Address, formatStatus(m.Status), f1, f2}, fieldSeparator)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMembers reads member lines, skipping blank, malformed and duplicate ones.
func DecodeMembers(r io.Reader, log *slog.Logger) (members []Member, skipped int, err error) {
	if log == nil {
		log = slog.Default()
	}
	sc := bufio.NewScanner(r)
	seen := make(map[string]bool)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m, err := parseMember(line)
		if err == nil && seen[m.ID] {
			err = fmt.Errorf("duplicate id %q", m.ID)
		}
		if err != nil {
			log.Warn("skipping member record", "line", lineNo, "error", err)
			skipped++
			continue
		}
		seen[m.ID] = true
		members = append(members, m)
	}
	return members, skipped, sc.Err()
}

func parseMember(line string) (Member, error) {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) != 7 {
		return Member{}, fmt.Errorf("want 7 fields, got %d", len(parts))
	}
	m := Member{
		ID:      parts[1],
		Name:    parts[2],
		Address: parts[3],
		Status:  parseStatus(parts[4]),
	}
	if strings.TrimSpace(m.ID) == "" {
		return Member{}, errors.New("empty id")
	}
	switch parts[0] {
	case tagStudent:
		m.Category = CategoryStudent
		m.EnrollmentNumber, m.Program = parts[5], parts[6]
	case tagFaculty:
		m.Category = CategoryFaculty
		m.StaffNumber, m.Department = parts[5], parts[6]
	default:
		return Member{}, fmt.Errorf("unknown member category %q", parts[0])
	}
	return m, nil
}

func formatStatus(s Status) string {
	if s == StatusBlocked {
		return statusBlockedText
	}
	return statusActiveText
}

// parseStatus treats anything but "Bloqueado" (or "Blocked") as active.
func parseStatus(s string) Status {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, statusBlockedText) || strings.EqualFold(s, "blocked") {
		return StatusBlocked
	}
	return StatusActive
}

// ---------------------------------------------------------------------------
// Catalog items
// ---------------------------------------------------------------------------

// EncodeItems writes one line per item:
// Kind;code;title;year;available;field1;field2;field3
func EncodeItems(w io.Writer, items []CatalogItem) error {
	for _, it := range items {
		var tag, f1, f2, f3 string
		switch it.Kind {
		case KindBook:
			tag, f1, f2, f3 = tagBook, it.Author, it.ISBN, strconv.Itoa(it.Edition)
		case KindMagazine:
			tag, f1, f2, f3 = tagMagazine, it.Publisher, strconv.Itoa(it.Volume), it.ISSN
		default:
			return fmt.Errorf("item %q has unknown kind", it.Code)
		}
		line := strings.Join([]string{
			tag, it.Code, it.Title, strconv.Itoa(it.PublicationYear), strconv.FormatBool(it.Available), f1, f2, f3,
		}, fieldSeparator)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// DecodeItems reads item lines, skipping blank, malformed and duplicate ones.
func DecodeItems(r io.Reader, log *slog.Logger) (items []CatalogItem, skipped int, err error) {
	if log == nil {
		log = slog.Default()
	}
	sc := bufio.NewScanner(r)
	seen := make(map[string]bool)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		it, err := parseItem(line)
		if err == nil && seen[it.Code] {
			err = fmt.Errorf("duplicate code %q", it.Code)
		}
		if err != nil {
			log.Warn("skipping item record", "line", lineNo, "error", err)
			skipped++
			continue
		}
		seen[it.Code] = true
		items = append(items, it)
	}
	return items, skipped, sc.Err()
}

func parseItem(line string) (CatalogItem, error) {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) != 8 {
		return CatalogItem{}, fmt.Errorf("want 8 fields, got %d", len(parts))
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return CatalogItem{}, fmt.Errorf("year: %w", err)
	}
	available, err := strconv.ParseBool(strings.TrimSpace(parts[4]))
	if err != nil {
		return CatalogItem{}, fmt.Errorf("available: %w", err)
	}
	it := CatalogItem{
		Code:            parts[1],
		Title:           parts[2],
		PublicationYear: year,
		Available:       available,
	}
	if strings.TrimSpace(it.Code) == "" {
		return CatalogItem{}, errors.New("empty code")
	}
	switch parts[0] {
	case tagBook:
		edition, err := strconv.Atoi(strings.TrimSpace(parts[7]))
		if err != nil {
			return CatalogItem{}, fmt.Errorf("edition: %w", err)
		}
		it.Kind = KindBook
		it.Author, it.ISBN, it.Edition = parts[5], parts[6], edition
	case tagMagazine:
		volume, err := strconv.Atoi(strings.TrimSpace(parts[6]))
		if err != nil {
			return CatalogItem{}, fmt.Errorf("volume: %w", err)
		}
		it.Kind = KindMagazine
		it.Publisher, it.Volume, it.ISSN = parts[5], volume, parts[7]
	default:
		return CatalogItem{}, fmt.Errorf("unknown item kind %q", parts[0])
	}
	return it, nil
}
