package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"binance-momentum-bot-go/internal/models"
)

// Source supplies externally submitted manual override signals. The core
// only ever reads pending signals and marks them consumed; it never creates
// them.
type Source interface {
	// PollPending returns unconsumed signals in issue order.
	PollPending(ctx context.Context) ([]models.ManualSignal, error)

	// MarkConsumed marks a signal consumed so it can never fire again.
	MarkConsumed(ctx context.Context, id string) error
}

// FileSource reads a JSON queue file that an operator (or a chat-command
// bridge) appends signals to. Consumption rewrites the file atomically with
// the temp-then-rename pattern so a crash mid-consume cannot resurrect a
// signal half-applied.
type FileSource struct {
	path string
}

// NewFileSource uses path as the queue file; a missing file means an empty
// queue.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) PollPending(ctx context.Context) ([]models.ManualSignal, error) {
	all, err := s.read()
	if err != nil {
		return nil, err
	}
	var pending []models.ManualSignal
	for _, sig := range all {
		if !sig.Consumed {
			pending = append(pending, sig)
		}
	}
	return pending, nil
}

func (s *FileSource) MarkConsumed(ctx context.Context, id string) error {
	all, err := s.read()
	if err != nil {
		return err
	}
	found := false
	for i := range all {
		if all[i].ID == id {
			all[i].Consumed = true
			found = true
		}
	}
	if !found {
		return fmt.Errorf("manual signal %s not found", id)
	}
	return s.write(all)
}

func (s *FileSource) read() ([]models.ManualSignal, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read signal queue: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var signals []models.ManualSignal
	if err := json.Unmarshal(data, &signals); err != nil {
		return nil, fmt.Errorf("decode signal queue: %w", err)
	}
	return signals, nil
}

func (s *FileSource) write(signals []models.ManualSignal) error {
	data, err := json.MarshalIndent(signals, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".signals-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}
