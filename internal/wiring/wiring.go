// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/makit/internal/adapters/config"
	_ "go.trai.ch/makit/internal/adapters/db"
	_ "go.trai.ch/makit/internal/adapters/fs"
	_ "go.trai.ch/makit/internal/adapters/logger"
	_ "go.trai.ch/makit/internal/adapters/shell"
	_ "go.trai.ch/makit/internal/adapters/telemetry"
	_ "go.trai.ch/makit/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/makit/internal/app"
)
