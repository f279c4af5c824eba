package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"review-analyzer/internal/domain"
)

// ErrNotFound возвращается, если артефакт ещё не сохранён.
var ErrNotFound = errors.New("artifact not found")

// ErrInvalidName возвращается для пустого имени или имени с путём.
var ErrInvalidName = errors.New("invalid artifact name")

// FileStore хранит артефакты в локальном каталоге.
type FileStore struct {
	dir string
}

var _ domain.ArtifactStore = (*FileStore)(nil)

// NewFileStore создаёт хранилище; каталог создаётся при первой записи.
func NewFileStore(dir string) *FileStore {
	if strings.TrimSpace(dir) == "" {
		dir = "outputs"
	}
	return &FileStore{dir: dir}
}

// Save записывает файл, перезаписывая предыдущую версию.
func (s *FileStore) Save(_ context.Context, name string, data []byte) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.dir, clean)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("replace artifact: %w", err)
	}
	return path, nil
}

// Open открывает сохранённый файл.
func (s *FileStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, clean))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}
