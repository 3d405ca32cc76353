package billing

import (
	"log/slog"
	"time"
)

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithArchive enables raw webhook archiving. A nil archive disables it.
func WithArchive(a Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
