package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/claims-validator/constants"
)

// IsClaimFile reports whether path has a claim upload extension.
func IsClaimFile(path string) bool {
	return constants.MapExtToFormat(constants.ClaimFileExtensions, filepath.Ext(path)) != ""
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
