package docstore

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/cipherkeeper/internal/filex"
)

// DefaultFilePath is used when no path is configured.
const DefaultFilePath = "data/db.json"

// FileBackend stores the document in a single JSON file. Saves write a
// temporary file next to it and rename it into place.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileBackend{path: path}
}

func (f *FileBackend) Path() string {
	return f.path
}

func (f *FileBackend) Load(context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoDocument
	}
	return data, err
}

func (f *FileBackend) Save(_ context.Context, data []byte) error {
	return filex.WriteAtomic(f.path, data, 0o600)
}
