// ABOUTME: Input path validation shared by the matching flows
// ABOUTME: Expands ~, checks file or directory kind, and flags unexpected extensions
package core

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/facultymatch/internal/errs"
)

func resolveExistingPath(raw string, wantDir bool, label string) (string, error) {
	provided := strings.TrimSpace(raw)
	if provided == "" {
		return "", errs.Configuration("%s path is required.", label)
	}

	path := expandHome(provided)
	info, err := os.Stat(path)
	if err != nil {
		return "", errs.Resource(path, err, "%s was not found", label)
	}
	if wantDir && !info.IsDir() {
		return "", errs.Configuration("%s is expected to be a directory: %s", label, path)
	}
	if !wantDir && info.IsDir() {
		return "", errs.Configuration("%s is expected to be a file: %s", label, path)
	}
	return path, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// validateExtension returns a warning when path does not carry one of allowed.
func validateExtension(path string, allowed []string, label string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "The selected " + label + " does not include an extension. Confirm it is supported."
	}
	for _, a := range allowed {
		if strings.EqualFold(ext, a) {
			return ""
		}
	}
	return "The selected " + label + " uses '." + ext + "', which is outside the expected extensions: " +
		strings.Join(allowed, ", ") + "."
}
