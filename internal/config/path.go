package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath substitutes $VAR and ${VAR} references and resolves a leading
// ~ to the home directory. A path that cannot be resolved is returned with
// only its variables expanded.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)

	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && !os.IsPathSeparator(rest[0])) {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
