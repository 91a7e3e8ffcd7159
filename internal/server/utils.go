package server

import (
	"fmt"
	"path"
	"strings"
)

// resolvePath turns a decoded request path into a rooted, cleaned name on the
// document root filesystem. Paths that would climb above the root are rejected
// rather than silently clamped.
func resolvePath(urlPath string) (string, error) {
	if strings.ContainsRune(urlPath, 0) {
		return "", fmt.Errorf("%w: invalid character in path", ErrForbidden)
	}

	// Treat backslashes as separators so Windows-style traversal is caught too
	rel := strings.ReplaceAll(urlPath, "\\", "/")
	rel = strings.TrimLeft(rel, "/")

	cleaned := path.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: path traversal attempt detected", ErrForbidden)
	}

	return path.Clean("/" + cleaned), nil
}
