package notify

// Config holds notification settings.
type Config struct {
	AppURL   string `env:"APP_URL" envDefault:"https://app.duebook.app"`
	Locale   string `env:"NOTIFY_LOCALE" envDefault:"en-NG"`
	Currency string `env:"INVOICE_CURRENCY" envDefault:"NGN"`
}
