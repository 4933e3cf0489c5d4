// ABOUTME: Resolves which dataset columns feed embeddings, identifiers, and programs
// ABOUTME: Explicit selections win; otherwise column inference supplies defaults
package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/harper/facultymatch/internal/columns"
	"github.com/harper/facultymatch/internal/dataset"
	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/util"
)

const datasetSource = "faculty dataset"

// Roles holds resolved column indexes per role.
type Roles struct {
	Embedding  []int
	Identifier []int
	Program    []int
}

// ResolveRoles applies selection to the table headers. Roles the selection
// leaves empty fall back to inference one by one.
func ResolveRoles(table *dataset.Table, selection *models.ColumnSelection) (Roles, error) {
	if table == nil || len(table.Headers) == 0 {
		return Roles{}, errs.Configuration("The faculty dataset does not include any columns.")
	}
	if selection == nil {
		selection = &models.ColumnSelection{}
	}

	count := len(table.Headers)
	inferred := columns.Infer(table.Headers, table.Rows)
	headers := columns.NewHeaderIndex(table.Headers)
	resolve := func(selected []string, fallback []int) ([]int, error) {
		if len(selected) == 0 {
			return columns.Clamp(fallback, count), nil
		}
		return headers.Indexes(util.DedupeFold(selected), datasetSource)
	}

	var roles Roles
	var err error
	if roles.Embedding, err = resolve(selection.EmbeddingColumns, inferred.Embedding); err != nil {
		return Roles{}, err
	}
	if roles.Identifier, err = resolve(selection.IdentifierColumns, inferred.Identifier); err != nil {
		return Roles{}, err
	}
	if roles.Program, err = resolve(selection.ProgramColumns, inferred.Category); err != nil {
		return Roles{}, err
	}

	if len(roles.Embedding) == 0 {
		return Roles{}, errs.Configuration("Select at least one column containing faculty research interests or other embedding content.")
	}
	if len(roles.Identifier) == 0 {
		return Roles{}, errs.Configuration("Select at least one column that uniquely identifies each faculty member.")
	}
	return roles, nil
}

// Analyze resolves roles and derives the analysis summary and the
// row membership side table.
func Analyze(table *dataset.Table, selection *models.ColumnSelection) (*models.DatasetMetadata, error) {
	roles, err := ResolveRoles(table, selection)
	if err != nil {
		return nil, err
	}

	return &models.DatasetMetadata{
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Analysis: models.DatasetAnalysis{
			EmbeddingColumns:  columns.Labels(table.Headers, roles.Embedding),
			IdentifierColumns: columns.Labels(table.Headers, roles.Identifier),
			ProgramColumns:    columns.Labels(table.Headers, roles.Program),
			AvailablePrograms: CollectPrograms(table.Rows, roles.Program),
		},
		Memberships: BuildMemberships(table.Headers, table.Rows, roles.Identifier, roles.Program),
	}, nil
}

// CollectPrograms lists the distinct program values, compared
// case-insensitively and sorted by their folded form.
func CollectPrograms(rows [][]string, programIndexes []int) []string {
	var values []string
	for _, row := range rows {
		values = append(values, columns.Values(row, programIndexes)...)
	}
	values = util.DedupeFold(values)
	sort.SliceStable(values, func(i, j int) bool {
		return util.FoldKey(values[i]) < util.FoldKey(values[j])
	})
	return values
}

// Identifiers maps header labels to the row's non-empty identifier values.
// The first column with a given label wins.
func Identifiers(headers, row []string, identifierIndexes []int) map[string]string {
	identifiers := make(map[string]string, len(identifierIndexes))
	for _, index := range identifierIndexes {
		if index < 0 || index >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[index])
		if value == "" {
			continue
		}
		label := columns.HeaderLabel(headers, index)
		if _, ok := identifiers[label]; !ok {
			identifiers[label] = value
		}
	}
	return identifiers
}

// BuildMemberships derives the row index to identifiers and programs table.
// Rows with neither are left out.
func BuildMemberships(headers []string, rows [][]string, identifierIndexes, programIndexes []int) []models.Membership {
	memberships := make([]models.Membership, 0, len(rows))
	for rowIndex, row := range rows {
		identifiers := Identifiers(headers, row, identifierIndexes)

		set := make(map[string]struct{})
		for _, value := range columns.Values(row, programIndexes) {
			set[value] = struct{}{}
		}
		programs := make([]string, 0, len(set))
		for p := range set {
			programs = append(programs, p)
		}
		sort.Strings(programs)

		if len(identifiers) == 0 && len(programs) == 0 {
			continue
		}
		memberships = append(memberships, models.Membership{
			RowIndex:    rowIndex,
			Identifiers: identifiers,
			Programs:    programs,
		})
	}
	return memberships
}
