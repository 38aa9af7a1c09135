package ports

import "go.trai.ch/makit/internal/core/domain"

// ConfigLoader defines the interface for loading the makefile.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the makefile at path, or searches for one starting at the
	// given directory, and returns the declared rules.
	Load(path string) (*domain.Manifest, error)
}
