// ABOUTME: Narrows the faculty candidate pool by program or by an uploaded roster
// ABOUTME: Produces row sets for ranking plus non-fatal warnings
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harper/facultymatch/internal/columns"
	"github.com/harper/facultymatch/internal/dataset"
	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/ranking"
	"github.com/harper/facultymatch/internal/util"
)

// Scope is a filtered candidate pool. A nil Rows means every row.
type Scope struct {
	Rows     ranking.RowSet
	Warnings []string
}

// FilterByPrograms allows rows whose programs include any of programs,
// compared case-insensitively.
func FilterByPrograms(memberships []models.Membership, programs []string) (Scope, error) {
	programs = util.DedupeFold(programs)
	if len(programs) == 0 {
		return Scope{}, errs.Configuration("Provide at least one program to limit the faculty list.")
	}

	wanted := make(map[string]struct{}, len(programs))
	for _, p := range programs {
		wanted[util.FoldKey(p)] = struct{}{}
	}

	scope := Scope{Rows: ranking.NewRowSet()}
	for _, m := range memberships {
		for _, p := range m.Programs {
			if _, ok := wanted[util.FoldKey(p)]; ok {
				scope.Rows[m.RowIndex] = struct{}{}
				break
			}
		}
	}
	if len(scope.Rows) == 0 {
		scope.Warnings = append(scope.Warnings, "No faculty members in the dataset matched the selected programs.")
	}
	return scope, nil
}

type rosterColumn struct {
	identifier string
	column     int
}

// AutoRosterMapping pairs each identifier column with the roster column
// of the same name, ignoring case and punctuation.
func AutoRosterMapping(identifierColumns, rosterHeaders []string) map[string]string {
	byLabel := make(map[string]string, len(rosterHeaders))
	for i := range rosterHeaders {
		label := columns.HeaderLabel(rosterHeaders, i)
		key := util.NormalizeIdentifierLabel(label)
		if _, ok := byLabel[key]; !ok && key != "" {
			byLabel[key] = label
		}
	}
	mapping := make(map[string]string)
	for _, id := range identifierColumns {
		if label, ok := byLabel[util.NormalizeIdentifierLabel(id)]; ok {
			mapping[id] = label
		}
	}
	return mapping
}

// FilterByRoster allows rows whose identifier values, under mapping from
// faculty identifier label to roster column label, match a roster row.
func FilterByRoster(memberships []models.Membership, identifierColumns []string, roster *dataset.Table, mapping map[string]string) (Scope, error) {
	if roster == nil {
		return Scope{}, errs.Configuration("Provide a faculty roster spreadsheet to limit the faculty list.")
	}

	resolved, warnings := resolveRosterColumns(identifierColumns, roster.Headers, mapping)
	if len(resolved) == 0 {
		return Scope{Warnings: warnings}, errs.Configuration("Map at least one roster column to a faculty identifier.")
	}

	rosterKeys := make(map[string]bool)
	for _, row := range roster.Rows {
		values := make([]string, len(resolved))
		for i, rc := range resolved {
			if rc.column < len(row) {
				values[i] = row[rc.column]
			}
		}
		if key, ok := rosterKey(values); ok {
			rosterKeys[key] = false
		}
	}

	scope := Scope{Rows: ranking.NewRowSet()}
	for _, m := range memberships {
		values := make([]string, len(resolved))
		for i, rc := range resolved {
			values[i] = m.Identifiers[rc.identifier]
		}
		key, ok := rosterKey(values)
		if !ok {
			continue
		}
		if _, listed := rosterKeys[key]; listed {
			scope.Rows[m.RowIndex] = struct{}{}
			rosterKeys[key] = true
		}
	}

	unmatched := 0
	for _, matched := range rosterKeys {
		if !matched {
			unmatched++
		}
	}
	if unmatched > 0 {
		warnings = append(warnings, fmt.Sprintf("%d %s did not match any faculty member in the dataset.",
			unmatched, util.Plural(unmatched, "roster entry", "roster entries")))
	}
	if len(scope.Rows) == 0 {
		warnings = append(warnings, "No faculty members in the dataset matched the roster.")
	}
	scope.Warnings = warnings
	return scope, nil
}

func resolveRosterColumns(identifierColumns, rosterHeaders []string, mapping map[string]string) ([]rosterColumn, []string) {
	var warnings []string

	known := make(map[string]string, len(identifierColumns))
	for _, id := range identifierColumns {
		known[util.FoldKey(id)] = id
	}
	headerIndex := columns.NewHeaderIndex(rosterHeaders)
	normalizedHeaders := make(map[string]int, len(rosterHeaders))
	for i := range rosterHeaders {
		key := util.NormalizeIdentifierLabel(columns.HeaderLabel(rosterHeaders, i))
		if _, ok := normalizedHeaders[key]; !ok {
			normalizedHeaders[key] = i
		}
	}

	identifiers := make([]string, 0, len(mapping))
	for id := range mapping {
		identifiers = append(identifiers, id)
	}
	sort.Strings(identifiers)

	var resolved []rosterColumn
	for _, id := range identifiers {
		rosterLabel := strings.TrimSpace(mapping[id])
		if rosterLabel == "" {
			continue
		}
		canonical, ok := known[util.FoldKey(id)]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("The faculty identifier '%s' is not part of the dataset analysis.", id))
			continue
		}
		column, ok := headerIndex.Lookup(rosterLabel)
		if !ok {
			column, ok = normalizedHeaders[util.NormalizeIdentifierLabel(rosterLabel)]
		}
		if !ok {
			warnings = append(warnings, fmt.Sprintf("The roster does not contain a column named '%s'.", rosterLabel))
			continue
		}
		resolved = append(resolved, rosterColumn{identifier: canonical, column: column})
	}
	return resolved, warnings
}

// rosterKey joins normalized values. All-blank tuples have no key.
func rosterKey(values []string) (string, bool) {
	normalized := make([]string, len(values))
	present := false
	for i, v := range values {
		normalized[i] = util.NormalizeIdentifierValue(v)
		if normalized[i] != "" {
			present = true
		}
	}
	return strings.Join(normalized, "|"), present
}
