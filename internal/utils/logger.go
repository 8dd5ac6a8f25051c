package utils

import "go.uber.org/zap"

// NewLogger returns a JSON production logger in production and a console
// development logger everywhere else.
func NewLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
