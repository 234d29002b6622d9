package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/apitienda/store-api/internal/config"
	"github.com/apitienda/store-api/users"
)

// Pair is everything a successful issuance produces. Persisting the refresh
// side is the caller's responsibility; the issuer only constructs tokens.
type Pair struct {
	AccessToken         string
	RefreshToken        string
	RefreshJTI          string
	RefreshExpiresAt    time.Time
	AccessExpiryMinutes int
}

// Issuer mints signed access and refresh tokens. Both are HMAC-SHA256 JWTs
// sharing a symmetric key; key, issuer, and audience come from configuration.
type Issuer struct {
	config  config.JWTConfig
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

// NewIssuer initializes a new Issuer with the given configuration.
func NewIssuer(cfg config.JWTConfig, options ...IssuerOption) *Issuer {
	issuer := &Issuer{
		config:  cfg,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(issuer)
	}
	return issuer
}

// IssuePair builds and signs an access/refresh token pair for the user.
// The access token carries identity claims (sub, email, role); the refresh
// token carries only sub and its own jti. The two jtis are independent.
func (i *Issuer) IssuePair(user *users.User) (*Pair, error) {
	now := i.nowTime()
	accessExpiry := now.Add(i.config.GetAccessTokenExpiry())
	refreshExpiry := now.Add(i.config.GetRefreshTokenExpiry())

	accessClaims := jwtlib.MapClaims{
		"iss":   i.config.GetJWTIssuer(),
		"aud":   i.config.GetJWTAudience(),
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"jti":   uuid.New().String(),
		"iat":   now.Unix(),
		"exp":   accessExpiry.Unix(),
	}
	accessToken, err := i.sign(accessClaims)
	if err != nil {
		return nil, fmt.Errorf("[IssuePair] failed to sign access token: %w", err)
	}

	refreshJTI := uuid.New().String()
	refreshClaims := jwtlib.MapClaims{
		"iss": i.config.GetJWTIssuer(),
		"aud": i.config.GetJWTAudience(),
		"sub": user.ID.String(),
		"jti": refreshJTI,
		"iat": now.Unix(),
		"exp": refreshExpiry.Unix(),
	}
	refreshToken, err := i.sign(refreshClaims)
	if err != nil {
		return nil, fmt.Errorf("[IssuePair] failed to sign refresh token: %w", err)
	}

	return &Pair{
		AccessToken:         accessToken,
		RefreshToken:        refreshToken,
		RefreshJTI:          refreshJTI,
		RefreshExpiresAt:    refreshExpiry,
		AccessExpiryMinutes: i.config.GetAccessTokenExpiryMinutes(),
	}, nil
}

func (i *Issuer) sign(claims jwtlib.MapClaims) (string, error) {
	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return t.SignedString(i.config.GetJWTKey())
}
