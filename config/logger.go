package config

import "go.uber.org/zap"

// NewLogger builds a console logger in development and a JSON logger
// everywhere else.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
