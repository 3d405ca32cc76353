// Package config loads typed configuration from environment variables.
//
// Each package that needs settings declares a Config struct with
// github.com/caarlos0/env tags; Load fills it after reading a local .env file
// through github.com/joho/godotenv. Structs implementing Validator get a
// final consistency check.
//
//	type Config struct {
//	    SecretKey string `env:"PAYSTACK_SECRET_KEY,required"`
//	    BaseURL   string `env:"PAYSTACK_BASE_URL" envDefault:"https://api.paystack.co"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
package config
