package app

import "go.uber.org/zap"

// NewLogger creates a zap.Logger for env: JSON output in production, console
// output otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
