package config

type Config interface {
	EnvConfig
	JWTConfig
	SMTPConfig
	DatabaseConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() []string
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars
	JWT
	SMTP
	Database
	Cors
}

func New() Config {
	return mainConfig{}
}
