package email

type Config struct {
	PostmarkServerToken string `env:"POSTMARK_SERVER_TOKEN"`
	SenderEmail         string `env:"SENDER_EMAIL" envDefault:"billing@duebook.app"`
	SupportEmail        string `env:"SUPPORT_EMAIL" envDefault:"support@duebook.app"`
	DevOutputDir        string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"` // used when no Postmark token is set
}
