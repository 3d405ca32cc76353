package paystack

import "time"

// Config holds Paystack API settings.
type Config struct {
	SecretKey string        `env:"PAYSTACK_SECRET_KEY"`
	BaseURL   string        `env:"PAYSTACK_BASE_URL" envDefault:"https://api.paystack.co"`
	Currency  string        `env:"PAYSTACK_CURRENCY" envDefault:"NGN"`
	Timeout   time.Duration `env:"PAYSTACK_TIMEOUT" envDefault:"10s"`

	// Circuit breaker
	BreakerMaxRequests      uint32        `env:"PAYSTACK_BREAKER_MAX_REQUESTS" envDefault:"1"`
	BreakerInterval         time.Duration `env:"PAYSTACK_BREAKER_INTERVAL" envDefault:"1m"`
	BreakerTimeout          time.Duration `env:"PAYSTACK_BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureThreshold uint32        `env:"PAYSTACK_BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
}
