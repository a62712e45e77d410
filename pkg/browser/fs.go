package browser

import (
	"fmt"
	"os"
	"path/filepath"
)

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	return nil
}
