package registry

import (
	"os"
	"path/filepath"
)

// manifestFiles are the project-root markers checked, in priority
// order (spec §6.4).
var manifestFiles = []string{
	"package.json",
	"requirements.txt",
	"pyproject.toml",
	"go.mod",
	"Cargo.toml",
}

// DetectRoot walks upward from start looking for a manifest file,
// returning the first directory that has one. If nothing is found by
// the filesystem root, start itself is returned — an un-rooted
// directory is still a valid, if manifest-less, project.
func DetectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range manifestFiles {
			if fileExists(filepath.Join(dir, name)) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return filepath.Abs(start)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
