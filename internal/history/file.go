package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trackinspect/pkrec/internal/session"
)

// fileDocument is the on-disk shape of history.json.
type fileDocument struct {
	Version  int                     `json:"version"`
	Sessions []session.SessionRecord `json:"sessions"`
}

const fileVersion = 1

// FilePort stores the history as a single JSON document.
type FilePort struct {
	path string
}

// NewFilePort returns a port writing to history.json inside dir, creating
// dir if needed.
func NewFilePort(dir string) (*FilePort, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FilePort{path: filepath.Join(dir, "history.json")}, nil
}

// Path returns the history file location.
func (p *FilePort) Path() string { return p.path }

// Load reads history.json. A missing file is an empty history.
func (p *FilePort) Load() ([]session.SessionRecord, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return doc.Sessions, nil
}

// Save overwrites history.json atomically via a temp file + os.Rename.
func (p *FilePort) Save(records []session.SessionRecord) (err error) {
	if records == nil {
		records = []session.SessionRecord{}
	}
	data, err := json.Marshal(fileDocument{Version: fileVersion, Sessions: records})
	if err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(p.path), "history-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist history: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	if err = os.Rename(tmpName, p.path); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}
