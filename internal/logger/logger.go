package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"binance-momentum-bot-go/internal/models"
)

var sugaredLogger *zap.SugaredLogger

// Init configures the global zap logger according to LogConfig. Console and
// file outputs can be combined; file output rotates through lumberjack.
func Init(cfg models.LogConfig) {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(cfg.Level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)

	var cores []zapcore.Core

	output := strings.ToLower(cfg.Output)
	if output == "file" || output == "both" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(rotating), logLevel))
	}
	if output == "console" || output == "both" {
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), logLevel))
	}
	if len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), logLevel))
	}

	sugaredLogger = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
}

// S returns the global sugared logger, falling back to a development logger
// if Init has not run yet.
func S() *zap.SugaredLogger {
	if sugaredLogger == nil {
		l, _ := zap.NewDevelopment()
		return l.Sugar()
	}
	return sugaredLogger
}
