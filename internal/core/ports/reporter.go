package ports

import "go.trai.ch/makit/internal/core/domain"

// Reporter renders the progress of a make invocation.
//
//go:generate mockgen -source=reporter.go -destination=mocks/mock_reporter.go -package=mocks
type Reporter interface {
	// Report renders one engine event. It may be called from several goroutines.
	Report(ev domain.Event)
	// Finish ends the report of an invocation.
	Finish(err error)
}
