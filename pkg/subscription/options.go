package subscription

import (
	"log/slog"
	"time"
)

// LedgerOption configures a Ledger instance.
type LedgerOption func(*Ledger)

// WithLogger sets the ledger logger. Nil is ignored.
func WithLogger(l *slog.Logger) LedgerOption {
	return func(s *Ledger) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source, for tests with fixed dates.
func WithClock(now func() time.Time) LedgerOption {
	return func(s *Ledger) {
		if now != nil {
			s.now = now
		}
	}
}
