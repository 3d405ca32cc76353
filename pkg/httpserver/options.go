package httpserver

import (
	"log/slog"
	"time"
)

type Option func(*config)

// WithAddr sets the listen address. Panics on an empty address.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: addr cannot be empty")
	}
	return func(c *config) { c.addr = addr }
}

// WithShutdownTimeout bounds graceful shutdown. Panics on non-positive values.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: shutdown timeout must be > 0")
	}
	return func(c *config) { c.shutdownTimeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// zero values keep net/http defaults
func withTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(c *config) {
		c.readHeaderTimeout = readHeader
		c.readTimeout = read
		c.writeTimeout = write
		c.idleTimeout = idle
	}
}
