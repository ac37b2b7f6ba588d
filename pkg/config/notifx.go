package config

// NotifxConfig configures the email notification system.
type NotifxConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	AWSRegion   string

	// WelcomeDelay is how long after signup the welcome email goes out.
	WelcomeDelay string
}

func loadNotifxConfig() NotifxConfig {
	return NotifxConfig{
		Provider:     getEnv("NOTIFX_PROVIDER", "console"),
		FromAddress:  getEnv("NOTIFX_FROM_ADDRESS", "noreply@keygate.dev"),
		FromName:     getEnv("NOTIFX_FROM_NAME", "Keygate"),
		AWSRegion:    getEnv("NOTIFX_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
		WelcomeDelay: getEnv("NOTIFX_WELCOME_DELAY", "10m"),
	}
}
