package pages

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DerivePath converts a file path under root to its route path.
// The result always starts with "/" and uses "/" between segments.
func DerivePath(root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", fmt.Errorf("deriving route path for %s: %w", file, err)
	}

	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("deriving route path: %s is not under %s", file, root)
	}

	return "/" + rel, nil
}
