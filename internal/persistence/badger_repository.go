package persistence

import (
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v3"

	"binance-momentum-bot-go/internal/models"
)

// badgerRepository stores the state document under a single key in an
// embedded BadgerDB. Badger's update transactions give the same
// all-or-nothing guarantee as the file backend's rename.
type badgerRepository struct {
	db       *badger.DB
	stateKey []byte
}

// NewBadgerRepository opens (or creates) a Badger database at dbPath.
func NewBadgerRepository(dbPath string) (StateRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	// Badger's own logging is noisy; errors still surface from operations.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &badgerRepository{
		db:       db,
		stateKey: []byte("bot_state"),
	}, nil
}

func (r *badgerRepository) Save(state *models.BotState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(r.stateKey, data)
	})
}

func (r *badgerRepository) Load() (*models.BotState, error) {
	var state models.BotState

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(r.stateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) == 0 {
				return errors.New("state value is empty in database")
			}
			return json.Unmarshal(val, &state)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *badgerRepository) Close() error {
	return r.db.Close()
}
