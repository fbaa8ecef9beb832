package signal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binance-momentum-bot-go/internal/models"
)

func writeQueue(t *testing.T, path string, signals []models.ManualSignal) {
	t.Helper()
	data, err := json.Marshal(signals)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestFileSourceMissingFileIsEmptyQueue(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "signals.json"))

	pending, err := src.PollPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFileSourcePollSkipsConsumed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.json")
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	writeQueue(t, path, []models.ManualSignal{
		{ID: "a", IssuedBy: "ops", Action: models.Buy, IssuedAt: now, Consumed: true},
		{ID: "b", IssuedBy: "ops", Action: models.Sell, IssuedAt: now.Add(time.Minute)},
	})

	src := NewFileSource(path)
	pending, err := src.PollPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)
}

func TestFileSourceConsumeIsDurable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.json")
	writeQueue(t, path, []models.ManualSignal{
		{ID: "a", IssuedBy: "ops", Action: models.Buy, IssuedAt: time.Now().UTC()},
	})

	src := NewFileSource(path)
	require.NoError(t, src.MarkConsumed(context.Background(), "a"))

	// A fresh source over the same file sees nothing pending.
	again := NewFileSource(path)
	pending, err := again.PollPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending, "a consumed signal can never fire again")
}

func TestFileSourceConsumeUnknownID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.json")
	writeQueue(t, path, []models.ManualSignal{
		{ID: "a", IssuedBy: "ops", Action: models.Buy},
	})

	src := NewFileSource(path)
	err := src.MarkConsumed(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFileSourceCorruptQueueErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	src := NewFileSource(path)
	_, err := src.PollPending(context.Background())
	assert.Error(t, err)
}
