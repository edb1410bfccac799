package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMembers_LineFormat(t *testing.T) {
	blocked := faculty("P200")
	blocked.Status = StatusBlocked

	var sb strings.Builder
	require.NoError(t, EncodeMembers(&sb, []Member{student("A100"), blocked}))

	want := "Aluno;A100;Student A100;Rua A;Ativo;2023001;Eng. Comp.\n" +
		"Professor;P200;Faculty P200;Rua B;Bloqueado;0554;TI\n"
	assert.Equal(t, want, sb.String())
}

func TestEncodeItems_LineFormat(t *testing.T) {
	lent := magazine("R001")
	lent.Available = false

	var sb strings.Builder
	require.NoError(t, EncodeItems(&sb, []CatalogItem{book("L001"), lent}))

	want := "Livro;L001;Book L001;2022;true;Autor X;12345;3\n" +
		"Revista;R001;Magazine R001;2023;false;Editora Y;50;98765\n"
	assert.Equal(t, want, sb.String())
}

func TestEncode_UnknownVariant(t *testing.T) {
	var sb strings.Builder
	assert.Error(t, EncodeMembers(&sb, []Member{{ID: "X"}}))
	assert.Error(t, EncodeItems(&sb, []CatalogItem{{Code: "X"}}))
}

func TestDecodeMembers_SkipsBadLines(t *testing.T) {
	input := strings.Join([]string{
		"Aluno;A100;Ryan;Rua A;Ativo;2023001;Eng. Comp.",
		"",
		"Professor;P200;Jhonatan;Rua B;bloqueado;0554;TI",
		"Aluno;short;line",
		"Visitante;V1;Guest;Rua C;Ativo;x;y",
		"Aluno;;No id;Rua D;Ativo;x;y",
		"Aluno; ;Blank id;Rua D;Ativo;x;y",
		"Aluno;A100;Duplicate;Rua E;Ativo;x;y",
		"Professor;P300;Ana;Rua F;Ativo;0999;Math\r",
	}, "\n")

	members, skipped, err := DecodeMembers(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, 5, skipped)
	require.Len(t, members, 3)

	assert.Equal(t, "A100", members[0].ID)
	assert.Equal(t, "Ryan", members[0].Name)
	assert.Equal(t, CategoryStudent, members[0].Category)
	assert.Equal(t, StatusActive, members[0].Status)

	assert.Equal(t, CategoryFaculty, members[1].Category)
	assert.Equal(t, StatusBlocked, members[1].Status)
	assert.Equal(t, "0554", members[1].StaffNumber)

	assert.Equal(t, "Math", members[2].Department)
}

func TestDecodeItems_SkipsBadLines(t *testing.T) {
	input := strings.Join([]string{
		"Livro;L001;POO com Java;2022;true;Autor X;12345;3",
		"Livro;L002;Bad year;20x2;true;Autor Z;67890;1",
		"Livro;L003;Bad flag;2020;maybe;Autor Z;67890;1",
		"Livro;L004;Bad edition;2020;true;Autor Z;67890;first",
		"Revista;R001;Java Magazine;2023;false;Editora Y;50;98765",
		"Revista;R002;Bad volume;2023;true;Editora Y;L;98765",
		"Revista;R001;Duplicate;2023;true;Editora Y;51;98765",
		"Jornal;J1;News;2024;true;a;b;c",
		"Livro;  ;Blank code;2020;true;Autor Z;67890;1",
		"   ",
	}, "\n")

	items, skipped, err := DecodeItems(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, 7, skipped)
	require.Len(t, items, 2)

	assert.Equal(t, CatalogItem{
		Code: "L001", Title: "POO com Java", PublicationYear: 2022, Available: true, Kind: KindBook,
		Author: "Autor X", ISBN: "12345", Edition: 3,
	}, items[0])
	assert.Equal(t, CatalogItem{
		Code: "R001", Title: "Java Magazine", PublicationYear: 2023, Available: false, Kind: KindMagazine,
		Publisher: "Editora Y", Volume: 50, ISSN: "98765",
	}, items[1])
}

func tempFlatFiles(t *testing.T) (*FlatFileStore, string, string) {
	t.Helper()
	dir := t.TempDir()
	membersPath := filepath.Join(dir, "usuarios.csv")
	itemsPath := filepath.Join(dir, "acervo.csv")
	return NewFlatFileStore(membersPath, itemsPath, nil), membersPath, itemsPath
}

func TestFlatFileStore_RoundTrip(t *testing.T) {
	store, membersPath, _ := tempFlatFiles(t)

	blocked := student("A101")
	blocked.Status = StatusBlocked
	lent := book("L002")
	lent.Available = false
	snap := Snapshot{
		Members: []Member{student("A100"), blocked, faculty("P200")},
		Items:   []CatalogItem{book("L001"), lent, magazine("R001")},
	}
	require.NoError(t, store.Save(snap))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	raw, err := os.ReadFile(membersPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Aluno;A101;Student A101;Rua A;Bloqueado;2023001;Eng. Comp.")
}

func TestFlatFileStore_SaveOverwrites(t *testing.T) {
	store, _, itemsPath := tempFlatFiles(t)

	require.NoError(t, store.Save(Snapshot{Items: []CatalogItem{book("L001"), book("L002")}}))
	require.NoError(t, store.Save(Snapshot{Items: []CatalogItem{book("L003")}}))

	raw, err := os.ReadFile(itemsPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "\n"))

	// No temporary files are left next to the data files.
	entries, err := os.ReadDir(filepath.Dir(itemsPath))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFlatFileStore_MissingFiles(t *testing.T) {
	store, _, itemsPath := tempFlatFiles(t)

	_, err := store.Load()
	require.ErrorIs(t, err, ErrNothingToLoad)

	// One file present is enough.
	require.NoError(t, os.WriteFile(itemsPath, []byte("Livro;L001;POO com Java;2022;true;Autor X;12345;3\n"), 0o644))
	snap, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Members)
	assert.Len(t, snap.Items, 1)
}

func TestFlatFileStore_CountsSkippedAcrossFiles(t *testing.T) {
	store, membersPath, itemsPath := tempFlatFiles(t)
	require.NoError(t, os.WriteFile(membersPath, []byte("Aluno;A100;Ryan;Rua A;Ativo;1;x\ngarbage\n"), 0o644))
	require.NoError(t, os.WriteFile(itemsPath, []byte("garbage\nLivro;L001;T;2022;true;A;1;1\n"), 0o644))

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Skipped)
	assert.Len(t, snap.Members, 1)
	assert.Len(t, snap.Items, 1)
}
