package config

import (
	"strconv"
	"time"
)

// JWTConfig supplies the token issuer with its signing material and
// lifetimes. Key, issuer, and audience are deployment configuration and must
// match between issuance and validation.
type JWTConfig interface {
	GetJWTKey() []byte
	GetJWTIssuer() string
	GetJWTAudience() string
	GetAccessTokenExpiryMinutes() int
	GetRefreshTokenExpiryDays() int
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type JWT struct{}

var _ JWTConfig = JWT{}

func (JWT) GetJWTKey() []byte {
	return []byte(GetEnv("JWT_KEY", ""))
}

func (JWT) GetJWTIssuer() string {
	return GetEnv("JWT_ISSUER", "store-api")
}

func (JWT) GetJWTAudience() string {
	return GetEnv("JWT_AUDIENCE", "store-api-clients")
}

func (j JWT) GetAccessTokenExpiryMinutes() int {
	return getEnvInt("JWT_ACCESS_TOKEN_EXPIRY_MINUTES", 15)
}

func (j JWT) GetRefreshTokenExpiryDays() int {
	return getEnvInt("JWT_REFRESH_TOKEN_EXPIRY_DAYS", 7)
}

func (j JWT) GetAccessTokenExpiry() time.Duration {
	return time.Duration(j.GetAccessTokenExpiryMinutes()) * time.Minute
}

func (j JWT) GetRefreshTokenExpiry() time.Duration {
	return time.Duration(j.GetRefreshTokenExpiryDays()) * 24 * time.Hour
}

func getEnvInt(envVar string, defaultValue int) int {
	v, err := strconv.Atoi(GetEnv(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return v
}
