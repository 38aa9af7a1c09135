package app

import "go.trai.ch/makit/internal/core/ports"

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(app *App, logger ports.Logger) *Components {
	return &Components{
		App:    app,
		Logger: logger,
	}
}

// LogSettings returns the logger's settings, or nil when the logger cannot be reconfigured.
func (c *Components) LogSettings() ports.LogSettings {
	if s, ok := c.Logger.(ports.LogSettings); ok {
		return s
	}
	return nil
}
