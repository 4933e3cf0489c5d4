// ABOUTME: Parses PROGRESS lines from the worker's stderr stream
// ABOUTME: Anything unparseable is treated as diagnostic text instead
package worker

import (
	"encoding/json"
	"strings"

	"github.com/harper/facultymatch/internal/models"
)

const progressMarker = "PROGRESS "

// parseProgressLine returns the progress record carried by line, if any.
// A zero totalRows is replaced by expected when expected is positive.
func parseProgressLine(line string, expected int) (models.Progress, bool) {
	rest, ok := strings.CutPrefix(line, progressMarker)
	if !ok {
		return models.Progress{}, false
	}
	var p models.Progress
	if err := json.Unmarshal([]byte(strings.TrimSpace(rest)), &p); err != nil {
		return models.Progress{}, false
	}
	if p.Phase == "" {
		return models.Progress{}, false
	}
	if p.TotalRows == 0 && expected > 0 {
		p.TotalRows = expected
	}
	return p, true
}
