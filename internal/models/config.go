package models

// Config holds every runtime parameter of the bot. Values are read from
// environment variables by the config package and validated before trading
// starts.
type Config struct {
	DryRun       bool   `json:"dry_run"`
	Symbol       string `json:"symbol"`
	Timeframe    string `json:"timeframe"` // e.g. "30m"
	StrategyName string `json:"strategy_name"`

	// Indicator parameters.
	RSIPeriod          int     `json:"rsi_period"`
	StochPeriod        int     `json:"stoch_period"`
	StochRSIOversold   float64 `json:"stoch_rsi_oversold"`
	StochRSIOverbought float64 `json:"stoch_rsi_overbought"`
	MACDFastPeriod     int     `json:"macd_fast_period"`
	MACDSlowPeriod     int     `json:"macd_slow_period"`
	MACDSignalPeriod   int     `json:"macd_signal_period"`

	// Risk management.
	PositionSizeUSD     float64 `json:"position_size_usd,omitempty"` // 0 = unset, percent sizing applies
	PositionSizePercent float64 `json:"position_size_percent"`
	MinNotionalUSD      float64 `json:"min_notional_usd"`
	LotStepSize         float64 `json:"lot_step_size"`
	StopLossPercent     float64 `json:"stop_loss_percent"`

	// Fee schedule.
	MakerFeeRate float64 `json:"maker_fee_rate"`
	TakerFeeRate float64 `json:"taker_fee_rate"`

	// Error handling.
	CircuitBreakerErrors      int `json:"circuit_breaker_errors"`
	CircuitBreakerWindowHours int `json:"circuit_breaker_window_hours"`
	RetryAttempts             int `json:"retry_attempts"`
	RetryInitialDelayMs       int `json:"retry_initial_delay_ms"`

	// State persistence.
	StateBackend string `json:"state_backend"` // "file" or "badger"
	StateFile    string `json:"state_file"`
	DBPath       string `json:"db_path"`

	// External collaborators.
	DiscordWebhookURL string `json:"-"` // secret, never serialized
	SignalFile        string `json:"signal_file"`
	StatusIntervalSec int    `json:"status_interval_sec"`

	LogConfig LogConfig `json:"log"`
}

// LogConfig defines logging output and rotation settings.
type LogConfig struct {
	Level      string `json:"level"`       // "debug", "info", "warn", "error"
	Output     string `json:"output"`      // "console", "file", "both"
	File       string `json:"file"`        // log file path
	MaxSize    int    `json:"max_size"`    // max size of one log file (MB)
	MaxBackups int    `json:"max_backups"` // rotated files kept
	MaxAge     int    `json:"max_age"`     // days to keep rotated files
	Compress   bool   `json:"compress"`    // gzip rotated files
}
