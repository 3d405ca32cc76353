package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/duebook/pkg/blob"
	"github.com/dmitrymomot/duebook/pkg/config"
	"github.com/dmitrymomot/duebook/pkg/email"
	"github.com/dmitrymomot/duebook/pkg/httpserver"
	"github.com/dmitrymomot/duebook/pkg/logger"
	"github.com/dmitrymomot/duebook/pkg/paystack"
	"github.com/dmitrymomot/duebook/pkg/ratelimit"
	"github.com/dmitrymomot/duebook/svc/account"
	"github.com/dmitrymomot/duebook/svc/invoice"
	"github.com/dmitrymomot/duebook/svc/notify"
)

const (
	driverMemory   = "memory"
	driverPostgres = "postgres"
)

// appConfig is the process configuration. Connection settings with required
// variables (pg.Config, redis.Config, jwt.Config) are loaded on demand.
type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"duebook"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	PlansFile   string `env:"PLANS_FILE" envDefault:"plans.yaml"`
	RedisURL    string `env:"REDIS_URL"`

	Log      logger.Config
	HTTP     httpserver.Config
	Account  account.Config
	Paystack paystack.Config
	Email    email.Config
	Blob     blob.Config
	Notify   notify.Config
	Limit    ratelimit.Config
	Sweep    invoice.WorkerConfig
}

// Validate implements config.Validator.
func (c *appConfig) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case driverMemory, driverPostgres:
		return nil
	}
	return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", driverMemory, driverPostgres, c.StoreDriver)
}

func loadConfig(cmd *cobra.Command) (appConfig, error) {
	if file, _ := cmd.Flags().GetString("env-file"); file != "" {
		if _, err := os.Stat(file); err == nil {
			config.LoadDotenv(file)
		}
	}
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}
