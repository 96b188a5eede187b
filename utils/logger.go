package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

func init() {
	var logLevel zapcore.Level
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		logLevel = zap.DebugLevel
	case "warn":
		logLevel = zap.WarnLevel
	case "error":
		logLevel = zap.ErrorLevel
	default:
		logLevel = zap.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(logLevel)
	config.Encoding = "json"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "log_level"
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.TimeKey = "timestamp"
	config.OutputPaths = []string{"stdout"}
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	log, _ = config.Build(zap.AddCallerSkip(1))
}

// LogInfo logs an informational message
func LogInfo(format string, v ...interface{}) {
	log.Info(fmt.Sprintf(format, v...))
}

// LogError logs an error message
func LogError(format string, v ...interface{}) {
	log.Error(fmt.Sprintf(format, v...))
}

// LogDebug logs a debug message
func LogDebug(format string, v ...interface{}) {
	log.Debug(fmt.Sprintf(format, v...))
}

// LogOperation logs the outcome and duration of a named operation
func LogOperation(operation string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	if err != nil {
		log.Error(fmt.Sprintf("Operation %s failed after %v: %v", operation, duration, err))
	} else {
		log.Info(fmt.Sprintf("Operation %s completed in %v", operation, duration))
	}
}
