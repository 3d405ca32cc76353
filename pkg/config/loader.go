package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by config structs that check cross-field rules
// env tags cannot express.
type Validator interface {
	Validate() error
}

var dotenvOnce sync.Once

// LoadDotenv loads the given .env files (".env" when none given) into the
// process environment. Variables already set are not overridden.
// Missing files are not an error.
func LoadDotenv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load parses environment variables into v using its env struct tags.
// The default .env file is read once per process before the first parse.
// If v implements Validator, Validate runs after parsing.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...env.Options) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() { LoadDotenv() })

	var o env.Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if err := env.ParseWithOptions(v, o); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}
	return nil
}

// MustLoad works like Load but panics on failure.
// Use it for configuration the process cannot start without.
func MustLoad[T any](v *T, opts ...env.Options) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// WithPrefix returns parse options reading every variable with prefix.
func WithPrefix(prefix string) env.Options {
	return env.Options{Prefix: prefix}
}
