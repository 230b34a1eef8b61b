package app

import (
	"log/slog"

	"github.com/thenoetrevino/kansync/internal/client"
)

// Option is a functional option for configuring App initialization
type Option func(*appConfig)

// appConfig holds the configuration for App initialization
type appConfig struct {
	publisher  client.Publisher
	logger     *slog.Logger
	idStrategy string
}

// WithPublisher forwards every mutation to the host through p
func WithPublisher(p client.Publisher) Option {
	return func(cfg *appConfig) {
		cfg.publisher = p
	}
}

// WithLogger sets the logger for the application
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) {
		cfg.logger = logger
	}
}

// WithIDStrategy selects the card id generator (monotonic or clock)
func WithIDStrategy(strategy string) Option {
	return func(cfg *appConfig) {
		cfg.idStrategy = strategy
	}
}
