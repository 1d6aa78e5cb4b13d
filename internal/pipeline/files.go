package pipeline

import (
	"path/filepath"
	"strings"
)

// SanitizeFilename strips directory components from an uploaded file name.
func SanitizeFilename(name string) string {
	// Treat backslashes as separators too; uploads may come from Windows.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
