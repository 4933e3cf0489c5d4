// ABOUTME: Candidate scope resolution for matching requests
// ABOUTME: Narrows faculty rows by program or by an uploaded roster spreadsheet
package core

import (
	"context"
	"fmt"

	"github.com/harper/facultymatch/internal/analysis"
	"github.com/harper/facultymatch/internal/dataset"
	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/util"
)

var spreadsheetExtensions = []string{"tsv", "txt", "csv", "xlsx", "xls"}

// ScopeOptions narrows the faculty candidate pool. The zero value allows
// every faculty row. Programs and a roster are mutually exclusive.
type ScopeOptions struct {
	Programs   []string
	RosterPath string
	// RosterMapping maps faculty identifier columns to roster columns.
	// Empty means pair columns that share a name.
	RosterMapping map[string]string
}

// Describe renders the scope for a request summary.
func (o ScopeOptions) Describe() string {
	switch {
	case o.RosterPath != "":
		return "the provided faculty roster spreadsheet"
	case len(o.Programs) > 0:
		n := len(util.DedupeFold(o.Programs))
		return fmt.Sprintf("faculty filtered to %d %s", n, util.Plural(n, "program", "programs"))
	default:
		return "the complete faculty roster"
	}
}

// ResolveScope turns opts into a row set using the saved dataset analysis.
func (s *Service) ResolveScope(ctx context.Context, opts ScopeOptions) (analysis.Scope, error) {
	if opts.RosterPath != "" && len(opts.Programs) > 0 {
		return analysis.Scope{}, errs.Configuration("Limit the faculty list by program or by roster, not both.")
	}
	if opts.RosterPath == "" && len(opts.Programs) == 0 {
		return analysis.Scope{}, nil
	}

	meta, err := s.store.LoadMetadata(ctx)
	if err != nil {
		return analysis.Scope{}, err
	}

	if len(opts.Programs) > 0 {
		if meta == nil {
			return analysis.Scope{}, errs.Configuration("The faculty dataset metadata is unavailable. Refresh the dataset analysis before filtering by program.")
		}
		return analysis.FilterByPrograms(meta.Memberships, opts.Programs)
	}

	path, err := resolveExistingPath(opts.RosterPath, false, "Faculty list")
	if err != nil {
		return analysis.Scope{}, err
	}
	var warnings []string
	if warning := validateExtension(path, spreadsheetExtensions, "faculty list"); warning != "" {
		warnings = append(warnings, warning)
	}
	if meta == nil {
		return analysis.Scope{}, errs.Configuration("The faculty dataset metadata is unavailable. Refresh the dataset analysis before limiting faculty by roster.")
	}

	roster, err := dataset.ReadTable(path, 0)
	if err != nil {
		return analysis.Scope{}, err
	}
	mapping := opts.RosterMapping
	if len(mapping) == 0 {
		mapping = analysis.AutoRosterMapping(meta.Analysis.IdentifierColumns, roster.Headers)
	}

	scope, err := analysis.FilterByRoster(meta.Memberships, meta.Analysis.IdentifierColumns, roster, mapping)
	scope.Warnings = append(warnings, scope.Warnings...)
	if err != nil {
		return scope, err
	}
	s.logger.Debug("roster scope resolved", "path", path, "rows", len(scope.Rows))
	return scope, nil
}
