package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Expand expands a home directory prefix (~) and environment variables in a
// path and returns it as an absolute path.
func Expand(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	path = os.ExpandEnv(path)

	return filepath.Abs(path)
}
