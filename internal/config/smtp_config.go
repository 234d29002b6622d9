package config

type SMTPConfig interface {
	GetSmtpHost() string
	GetSmtpPort() string
	GetSmtpAccount() string
	GetSmtpPassword() string
	GetSmtpSender() string
}

type SMTP struct{}

var _ SMTPConfig = SMTP{}

func (SMTP) GetSmtpHost() string {
	return GetEnv("SMTP_HOST", "smtp.gmail.com")
}

func (SMTP) GetSmtpPort() string {
	return GetEnv("SMTP_PORT", "587")
}

func (SMTP) GetSmtpAccount() string {
	return GetEnv("SMTP_ACCOUNT", "")
}

func (SMTP) GetSmtpPassword() string {
	return GetEnv("SMTP_PASSWORD", "")
}

func (SMTP) GetSmtpSender() string {
	return GetEnv("SMTP_SENDER", "no-reply@store-api.local")
}
