// ABOUTME: Tests for role resolution, analysis summaries, and memberships
// ABOUTME: Covers explicit selections, inference fallback, and program collection
package analysis

import (
	"reflect"
	"testing"

	"github.com/harper/facultymatch/internal/dataset"
	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
)

func facultyTable() *dataset.Table {
	return &dataset.Table{
		Headers: []string{"Name", "Email", "Program", "Research Interests"},
		Rows: [][]string{
			{"Ada Lovelace", "ada@x.edu", "Neuroscience", "Computational models of cortical circuits and memory."},
			{"Alan Turing", "alan@x.edu", "neuroscience", "Short"},
			{"Grace Hopper", "", "Immunology", ""},
			{"", "", "", ""},
		},
	}
}

func TestResolveRoles_Inferred(t *testing.T) {
	roles, err := ResolveRoles(facultyTable(), nil)
	if err != nil {
		t.Fatalf("ResolveRoles() error = %v", err)
	}
	if !reflect.DeepEqual(roles.Embedding, []int{3}) {
		t.Errorf("Embedding = %v, want [3]", roles.Embedding)
	}
	if !reflect.DeepEqual(roles.Identifier, []int{0, 1}) {
		t.Errorf("Identifier = %v, want [0 1]", roles.Identifier)
	}
	if !reflect.DeepEqual(roles.Program, []int{2}) {
		t.Errorf("Program = %v, want [2]", roles.Program)
	}
}

func TestResolveRoles_ExplicitSelection(t *testing.T) {
	selection := &models.ColumnSelection{
		EmbeddingColumns:  []string{"name"},
		IdentifierColumns: []string{"EMAIL", "email"},
		ProgramColumns:    []string{"Research Interests"},
	}
	roles, err := ResolveRoles(facultyTable(), selection)
	if err != nil {
		t.Fatalf("ResolveRoles() error = %v", err)
	}
	want := Roles{Embedding: []int{0}, Identifier: []int{1}, Program: []int{3}}
	if !reflect.DeepEqual(roles, want) {
		t.Errorf("roles = %+v, want %+v", roles, want)
	}
}

func TestResolveRoles_PartialSelectionInfersTheRest(t *testing.T) {
	tests := []struct {
		name      string
		selection *models.ColumnSelection
		want      Roles
	}{
		{
			name:      "embedding only",
			selection: &models.ColumnSelection{EmbeddingColumns: []string{"Program"}},
			want:      Roles{Embedding: []int{2}, Identifier: []int{0, 1}, Program: []int{2}},
		},
		{
			name:      "identifier only",
			selection: &models.ColumnSelection{IdentifierColumns: []string{"Email"}},
			want:      Roles{Embedding: []int{3}, Identifier: []int{1}, Program: []int{2}},
		},
		{
			name:      "program only",
			selection: &models.ColumnSelection{ProgramColumns: []string{"name"}},
			want:      Roles{Embedding: []int{3}, Identifier: []int{0, 1}, Program: []int{0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles, err := ResolveRoles(facultyTable(), tt.selection)
			if err != nil {
				t.Fatalf("ResolveRoles() error = %v", err)
			}
			if !reflect.DeepEqual(roles, tt.want) {
				t.Errorf("roles = %+v, want %+v", roles, tt.want)
			}
		})
	}
}

func TestResolveRoles_Errors(t *testing.T) {
	tests := []struct {
		name      string
		table     *dataset.Table
		selection *models.ColumnSelection
	}{
		{"no columns", &dataset.Table{}, nil},
		{"unknown embedding column", facultyTable(), &models.ColumnSelection{EmbeddingColumns: []string{"Bio"}}},
		{"unknown identifier column", facultyTable(), &models.ColumnSelection{IdentifierColumns: []string{"NetID"}}},
		{"unknown program column", facultyTable(), &models.ColumnSelection{ProgramColumns: []string{"Track"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveRoles(tt.table, tt.selection)
			if !errs.Is(err, errs.KindConfiguration) {
				t.Errorf("error = %v, want configuration error", err)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	meta, err := Analyze(facultyTable(), nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	a := meta.Analysis
	if !reflect.DeepEqual(a.EmbeddingColumns, []string{"Research Interests"}) {
		t.Errorf("EmbeddingColumns = %v", a.EmbeddingColumns)
	}
	if !reflect.DeepEqual(a.IdentifierColumns, []string{"Name", "Email"}) {
		t.Errorf("IdentifierColumns = %v", a.IdentifierColumns)
	}
	if !reflect.DeepEqual(a.AvailablePrograms, []string{"Immunology", "Neuroscience"}) {
		t.Errorf("AvailablePrograms = %v", a.AvailablePrograms)
	}
	if len(meta.Memberships) != 3 {
		t.Fatalf("len(Memberships) = %d, want 3 (blank row dropped)", len(meta.Memberships))
	}
	if meta.UpdatedAt == "" {
		t.Error("UpdatedAt should be set")
	}
}

func TestBuildMemberships(t *testing.T) {
	headers := []string{"Name", "", "Program", "Track"}
	rows := [][]string{
		{" Ada ", "A1", "Neuro", "Bio"},
		{"", "", "", ""},
		{"", "", "", "Bio"},
	}

	got := BuildMemberships(headers, rows, []int{0, 1}, []int{2, 3})
	want := []models.Membership{
		{RowIndex: 0, Identifiers: map[string]string{"Name": "Ada", "Column 2": "A1"}, Programs: []string{"Bio", "Neuro"}},
		{RowIndex: 2, Identifiers: map[string]string{}, Programs: []string{"Bio"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildMemberships() = %+v, want %+v", got, want)
	}
}

func TestCollectPrograms(t *testing.T) {
	rows := [][]string{{"beta", "Alpha"}, {"BETA", ""}, {"gamma", "alpha"}}
	got := CollectPrograms(rows, []int{0, 1})
	want := []string{"Alpha", "beta", "gamma"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectPrograms() = %v, want %v", got, want)
	}
}
