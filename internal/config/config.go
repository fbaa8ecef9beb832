package config

import (
	"fmt"
	"os"
	"strconv"

	"binance-momentum-bot-go/internal/models"
)

// Load builds a Config from environment variables, applying the documented
// defaults for anything unset. Call Validate before using the result.
func Load() *models.Config {
	cfg := &models.Config{
		DryRun:       envBool("DRY_RUN", true),
		Symbol:       envString("SYMBOL", "PENGUUSDT"),
		Timeframe:    envString("TIMEFRAME", "30m"),
		StrategyName: envString("STRATEGY_NAME", "rsi_pengu"),

		RSIPeriod:          envInt("RSI_PERIOD", 14),
		StochPeriod:        envInt("STOCH_PERIOD", 14),
		StochRSIOversold:   envFloat("STOCH_RSI_OVERSOLD", 20),
		StochRSIOverbought: envFloat("STOCH_RSI_OVERBOUGHT", 80),
		MACDFastPeriod:     envInt("MACD_FAST_PERIOD", 12),
		MACDSlowPeriod:     envInt("MACD_SLOW_PERIOD", 26),
		MACDSignalPeriod:   envInt("MACD_SIGNAL_PERIOD", 9),

		PositionSizeUSD:     envFloat("POSITION_SIZE_USD", 0),
		PositionSizePercent: envFloat("POSITION_SIZE_PERCENT", 1.0),
		MinNotionalUSD:      envFloat("MIN_NOTIONAL_USD", 10),
		LotStepSize:         envFloat("LOT_STEP_SIZE", 0.000001),
		StopLossPercent:     envFloat("STOP_LOSS_PERCENT", 3.0),

		MakerFeeRate: envFloat("MAKER_FEE_RATE", 0.0002),
		TakerFeeRate: envFloat("TAKER_FEE_RATE", 0.0005),

		CircuitBreakerErrors:      envInt("CIRCUIT_BREAKER_ERRORS", 5),
		CircuitBreakerWindowHours: envInt("CIRCUIT_BREAKER_WINDOW_HOURS", 1),
		RetryAttempts:             envInt("RETRY_ATTEMPTS", 3),
		RetryInitialDelayMs:       envInt("RETRY_INITIAL_DELAY_MS", 1000),

		StateBackend: envString("STATE_BACKEND", "file"),
		StateFile:    envString("STATE_FILE", "state/bot_state.json"),
		DBPath:       envString("DB_PATH", "state/badger"),

		DiscordWebhookURL: envString("DISCORD_WEBHOOK_URL", ""),
		SignalFile:        envString("SIGNAL_FILE", "state/manual_signals.json"),
		StatusIntervalSec: envInt("STATUS_INTERVAL_SEC", 600),

		LogConfig: models.LogConfig{
			Level:      envString("LOG_LEVEL", "info"),
			Output:     envString("LOG_OUTPUT", "both"),
			File:       envString("LOG_FILE", "bot.log"),
			MaxSize:    envInt("LOG_MAX_SIZE_MB", 5),
			MaxBackups: envInt("LOG_MAX_BACKUPS", 3),
			MaxAge:     envInt("LOG_MAX_AGE_DAYS", 28),
			Compress:   envBool("LOG_COMPRESS", false),
		},
	}
	return cfg
}

// Validate checks every parameter and returns a ValidationError listing all
// violations at once. A bot with an invalid config must not start trading.
func Validate(cfg *models.Config) error {
	var problems []string

	if cfg.Symbol == "" {
		problems = append(problems, "SYMBOL must not be empty")
	}
	switch cfg.StrategyName {
	case "rsi_pengu", "macd_arb":
	default:
		problems = append(problems, fmt.Sprintf("STRATEGY_NAME %q is not one of rsi_pengu, macd_arb", cfg.StrategyName))
	}
	if cfg.RSIPeriod < 1 {
		problems = append(problems, "RSI_PERIOD must be greater than 0")
	}
	if cfg.StochPeriod < 1 {
		problems = append(problems, "STOCH_PERIOD must be greater than 0")
	}
	if cfg.StochRSIOversold <= 0 || cfg.StochRSIOversold >= 100 {
		problems = append(problems, "STOCH_RSI_OVERSOLD must be between 0 and 100")
	}
	if cfg.StochRSIOverbought <= 0 || cfg.StochRSIOverbought >= 100 {
		problems = append(problems, "STOCH_RSI_OVERBOUGHT must be between 0 and 100")
	}
	if cfg.StochRSIOversold >= cfg.StochRSIOverbought {
		problems = append(problems, "STOCH_RSI_OVERSOLD must be less than STOCH_RSI_OVERBOUGHT")
	}
	if cfg.MACDFastPeriod < 1 || cfg.MACDSlowPeriod < 1 || cfg.MACDSignalPeriod < 1 {
		problems = append(problems, "MACD periods must be greater than 0")
	} else if cfg.MACDFastPeriod >= cfg.MACDSlowPeriod {
		problems = append(problems, "MACD_FAST_PERIOD must be less than MACD_SLOW_PERIOD")
	}
	if cfg.PositionSizeUSD < 0 {
		problems = append(problems, "POSITION_SIZE_USD must not be negative")
	}
	if cfg.PositionSizePercent <= 0 || cfg.PositionSizePercent > 10 {
		problems = append(problems, "POSITION_SIZE_PERCENT must be between 0 and 10")
	}
	if cfg.MinNotionalUSD <= 0 {
		problems = append(problems, "MIN_NOTIONAL_USD must be greater than 0")
	}
	if cfg.LotStepSize <= 0 {
		problems = append(problems, "LOT_STEP_SIZE must be greater than 0")
	}
	if cfg.StopLossPercent <= 0 || cfg.StopLossPercent > 20 {
		problems = append(problems, "STOP_LOSS_PERCENT must be between 0 and 20")
	}
	if cfg.MakerFeeRate < 0 || cfg.TakerFeeRate < 0 {
		problems = append(problems, "fee rates must not be negative")
	}
	if cfg.CircuitBreakerErrors < 1 {
		problems = append(problems, "CIRCUIT_BREAKER_ERRORS must be greater than 0")
	}
	if cfg.CircuitBreakerWindowHours < 1 {
		problems = append(problems, "CIRCUIT_BREAKER_WINDOW_HOURS must be greater than 0")
	}
	if cfg.RetryAttempts < 1 {
		problems = append(problems, "RETRY_ATTEMPTS must be greater than 0")
	}
	if cfg.StatusIntervalSec < 1 {
		problems = append(problems, "STATUS_INTERVAL_SEC must be greater than 0")
	}
	switch cfg.StateBackend {
	case "file", "badger":
	default:
		problems = append(problems, fmt.Sprintf("STATE_BACKEND %q is not one of file, badger", cfg.StateBackend))
	}

	if len(problems) > 0 {
		return &models.ValidationError{Problems: problems}
	}
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
