package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is the payload of a short-lived access token.
// TokenID names the refresh record minted alongside it so logout can revoke it.
type AccessClaims struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	TokenID string `json:"tokenId,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. TokenID binds it to a stored record.
type RefreshClaims struct {
	Email   string `json:"email"`
	TokenID string `json:"tokenId"`
	jwt.RegisteredClaims
}

func IssueAccessToken(subject, email, role, tokenID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email:   email,
		Role:    role,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func IssueRefreshToken(subject, email, tokenID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		Email:   email,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseAccessToken(tokenString, secret string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(tokenString, secret, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func ParseRefreshToken(tokenString, secret string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(tokenString, secret, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.TokenID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func parse(tokenString, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
