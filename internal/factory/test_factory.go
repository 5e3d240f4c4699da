package factory

import (
	"log/slog"

	"github.com/plaza-world/plaza/internal/dependencies/clock"
	"github.com/plaza-world/plaza/internal/moderation"
	"github.com/plaza-world/plaza/internal/storage/memory"
)

// NewForTesting wires an App on in-memory storage with an injectable clock
func NewForTesting(clk clock.Clock, logger *slog.Logger) *App {
	return newWithDependencies(memory.New(), clk, moderation.Config{}, logger)
}
