package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/apitienda/store-api/internal/errors"
)

// RefreshClaims are the claims extracted from a cryptographically verified
// refresh token. Ledger validation happens separately on top of this.
type RefreshClaims struct {
	UserID    uuid.UUID
	JTI       string
	ExpiresAt time.Time
}

// AccessClaims are the claims extracted from a verified access token.
type AccessClaims struct {
	UserID uuid.UUID
	Email  string
	Role   string
	JTI    string
}

// VerifyRefresh validates a refresh token's signature, signing method,
// issuer, audience, and expiry. An expired token surfaces distinctly as
// ErrTokenExpired; every other validation failure maps to ErrInvalidToken.
func (i *Issuer) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims, err := i.parse(tokenStr)
	if err != nil {
		return nil, err
	}

	userID, jti, err := subjectAndID(claims)
	if err != nil {
		return nil, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("[VerifyRefresh] missing exp claim: %w", errors.ErrInvalidToken)
	}

	return &RefreshClaims{UserID: userID, JTI: jti, ExpiresAt: exp.Time}, nil
}

// VerifyAccess validates an access token and extracts its identity claims.
func (i *Issuer) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims, err := i.parse(tokenStr)
	if err != nil {
		return nil, err
	}

	userID, jti, err := subjectAndID(claims)
	if err != nil {
		return nil, err
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return &AccessClaims{UserID: userID, Email: email, Role: role, JTI: jti}, nil
}

func (i *Issuer) parse(tokenStr string) (jwtlib.MapClaims, error) {
	parsed, err := jwtlib.Parse(tokenStr,
		func(t *jwtlib.Token) (interface{}, error) {
			return i.config.GetJWTKey(), nil
		},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(i.config.GetJWTIssuer()),
		jwtlib.WithAudience(i.config.GetJWTAudience()),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(i.nowTime),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, fmt.Errorf("[parse] %v: %w", err, errors.ErrTokenExpired)
		}
		return nil, fmt.Errorf("[parse] %v: %w", err, errors.ErrInvalidToken)
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, fmt.Errorf("[parse] unexpected claims type: %w", errors.ErrInvalidToken)
	}
	return claims, nil
}

func subjectAndID(claims jwtlib.MapClaims) (uuid.UUID, string, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, "", fmt.Errorf("[subjectAndID] missing sub claim: %w", errors.ErrInvalidToken)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("[subjectAndID] malformed sub claim: %w", errors.ErrInvalidToken)
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return uuid.Nil, "", fmt.Errorf("[subjectAndID] missing jti claim: %w", errors.ErrInvalidToken)
	}
	return userID, jti, nil
}
