package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/veranemoloko/novel-downloader/internal/assembly"
)

// FileStorage writes finished artifacts into a single directory.
type FileStorage struct {
	dir string
}

// NewFileStorage creates a new FileStorage instance with the given directory.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

var nameReplacer = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_", "\x00", "_",
)

// ArtifactName is the file name used for a novel: "{name}___{author}.txt".
// Path separators and characters invalid on common filesystems are replaced.
func ArtifactName(name, author string) string {
	return nameReplacer.Replace(name) + "___" + nameReplacer.Replace(author) + ".txt"
}

// Path joins filename onto the storage directory.
func (s *FileStorage) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// WriteArtifact renders the header and blocks into the novel's artifact and
// returns its path and size. The file is written under a temporary name and
// renamed into place, so a reader never sees a partial artifact; an existing
// artifact for the same novel is replaced.
func (s *FileStorage) WriteArtifact(name, author string, blocks []string) (string, int64, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create storage dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".artifact-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := assembly.Render(tmp, name, author, blocks)
	if err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("render artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", 0, fmt.Errorf("chmod artifact: %w", err)
	}

	path := s.Path(ArtifactName(name, author))
	if err := os.Rename(tmpName, path); err != nil {
		return "", 0, fmt.Errorf("rename artifact: %w", err)
	}
	return path, n, nil
}
