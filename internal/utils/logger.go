package utils

import (
	"go.uber.org/zap"
)

// NewLogger builds the application logger. Production config outside
// development so log output is structured JSON by default.
func NewLogger(environment string) *zap.Logger {
	var logger *zap.Logger
	var err error

	if environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		// zap failing to build a default config means something is
		// deeply wrong with the process environment
		panic(err)
	}

	return logger
}
