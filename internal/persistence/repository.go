package persistence

import "binance-momentum-bot-go/internal/models"

// StateRepository abstracts the durable storage of the single BotState
// document. Save must be atomic: a crash mid-save leaves either the previous
// complete record or the new one, never a mix.
type StateRepository interface {
	// Save durably writes the entire bot state.
	Save(state *models.BotState) error

	// Load reads the bot state from storage. Absence of a durable record is
	// not an error: it returns (nil, nil) and the caller starts fresh.
	Load() (*models.BotState, error)

	// Close releases the underlying storage.
	Close() error
}
