package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"library-lending/config"
	"library-lending/library"
	"library-lending/logging"
)

// fixture is the YAML layout accepted by the seeder.
type fixture struct {
	Students []struct {
		ID               string `yaml:"id"`
		Name             string `yaml:"name"`
		Address          string `yaml:"address"`
		EnrollmentNumber string `yaml:"enrollment_number"`
		Program          string `yaml:"program"`
	} `yaml:"students"`
	Faculty []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Address     string `yaml:"address"`
		StaffNumber string `yaml:"staff_number"`
		Department  string `yaml:"department"`
	} `yaml:"faculty"`
	Books []struct {
		Code    string `yaml:"code"`
		Title   string `yaml:"title"`
		Year    int    `yaml:"year"`
		Author  string `yaml:"author"`
		ISBN    string `yaml:"isbn"`
		Edition int    `yaml:"edition"`
	} `yaml:"books"`
	Magazines []struct {
		Code      string `yaml:"code"`
		Title     string `yaml:"title"`
		Year      int    `yaml:"year"`
		Publisher string `yaml:"publisher"`
		Volume    int    `yaml:"volume"`
		ISSN      string `yaml:"issn"`
	} `yaml:"magazines"`
}

// demoFixture is used when no fixture file is given.
const demoFixture = `
students:
  - {id: A100, name: Ryan Lopes, address: Rua A, enrollment_number: "2023001", program: Eng. Comp.}
faculty:
  - {id: P200, name: Jhonatan G., address: Rua B, staff_number: "0554", department: TI}
books:
  - {code: L001, title: POO com Java, year: 2022, author: Autor X, isbn: "12345", edition: 3}
  - {code: L002, title: Design Patterns, year: 2020, author: Autor Z, isbn: "67890", edition: 1}
magazines:
  - {code: R001, title: Java Magazine, year: 2023, publisher: Editora Y, volume: 50, issn: "98765"}
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run registers the fixture in args[0] (or the demo data) on top of what the
// configured store already holds, then saves it.
func run(args []string, out io.Writer) error {
	raw := []byte(demoFixture)
	if len(args) > 0 {
		var err error
		if raw, err = os.ReadFile(args[0]); err != nil {
			return fmt.Errorf("read fixture: %w", err)
		}
	}

	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log, os.Stderr)

	store, err := library.OpenStore(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	mgr := library.NewLibraryManager(store, library.WithLogger(logger))
	defer mgr.Close()

	if report := mgr.LoadData(); !report.NothingLoaded {
		fmt.Fprintf(out, "Existing data: %d member(s), %d item(s)\n", report.Members, report.Items)
	}

	successCount, errorCount := 0, 0
	for _, m := range fx.members() {
		fmt.Fprintf(out, "Registering member %s (%s)... ", m.ID, m.Name)
		if err := mgr.AddMember(m); err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Fprintln(out, "SUCCESS")
		successCount++
	}
	for _, it := range fx.items() {
		fmt.Fprintf(out, "Registering item %s (%s)... ", it.Code, it.Title)
		if err := mgr.AddItem(it); err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Fprintln(out, "SUCCESS")
		successCount++
	}

	if err := mgr.SaveData(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nSeed complete!\n")
	fmt.Fprintf(out, "Successfully registered: %d records\n", successCount)
	fmt.Fprintf(out, "Errors: %d\n", errorCount)

	fmt.Fprintln(out, "\nCatalog:")
	fmt.Fprintf(out, "%-6s %-40s %-10s\n", "Code", "Title", "Kind")
	fmt.Fprintln(out, strings.Repeat("-", 58))
	for _, it := range mgr.GetAllItems() {
		fmt.Fprintf(out, "%-6s %-40s %-10s\n", it.Code, truncateString(it.Title, 40), it.Kind)
	}
	return nil
}

func (fx fixture) members() []library.Member {
	var members []library.Member
	for _, s := range fx.Students {
		members = append(members, library.Member{
			ID: s.ID, Name: s.Name, Address: s.Address, Category: library.CategoryStudent,
			EnrollmentNumber: s.EnrollmentNumber, Program: s.Program,
		})
	}
	for _, f := range fx.Faculty {
		members = append(members, library.Member{
			ID: f.ID, Name: f.Name, Address: f.Address, Category: library.CategoryFaculty,
			StaffNumber: f.StaffNumber, Department: f.Department,
		})
	}
	return members
}

func (fx fixture) items() []library.CatalogItem {
	var items []library.CatalogItem
	for _, b := range fx.Books {
		items = append(items, library.CatalogItem{
			Code: b.Code, Title: b.Title, PublicationYear: b.Year, Available: true, Kind: library.KindBook,
			Author: b.Author, ISBN: b.ISBN, Edition: b.Edition,
		})
	}
	for _, m := range fx.Magazines {
		items = append(items, library.CatalogItem{
			Code: m.Code, Title: m.Title, PublicationYear: m.Year, Available: true, Kind: library.KindMagazine,
			Publisher: m.Publisher, Volume: m.Volume, ISSN: m.ISSN,
		})
	}
	return items
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
