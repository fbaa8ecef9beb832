package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"binance-momentum-bot-go/internal/models"
)

// fileRepository persists the state as one JSON document using the
// write-temp-then-rename pattern: the new state is fully written and fsynced
// to a temporary file in the same directory, then installed over the current
// record with a single atomic rename. An advisory exclusive lock on a
// sidecar lock file is held only for the duration of the write.
type fileRepository struct {
	path     string
	lockPath string
}

// NewFileRepository creates a file-backed repository at path, creating the
// parent directory if needed.
func NewFileRepository(path string) (StateRepository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &fileRepository{
		path:     path,
		lockPath: path + ".lock",
	}, nil
}

func (r *fileRepository) Save(state *models.BotState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("install state file: %w", err)
	}
	return nil
}

func (r *fileRepository) Load() (*models.BotState, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var state models.BotState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	return &state, nil
}

func (r *fileRepository) Close() error {
	return nil
}

// lock takes an advisory exclusive lock for the write. Returns the unlock
// function.
func (r *fileRepository) lock() (func(), error) {
	f, err := os.OpenFile(r.lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquire state lock: %w", err)
	}
	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}
