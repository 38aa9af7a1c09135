package ports

import "go.trai.ch/makit/internal/core/domain"

// Logger defines the interface for logging.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Debug(msg string)
	Verbose(msg string)
	Info(msg string)
	Warn(msg string)
	Error(err error)
}

// LogSettings is implemented by loggers whose verbosity and format can be
// changed after construction.
type LogSettings interface {
	SetLevel(level domain.LogLevel)
	SetJSON(enable bool)
}
