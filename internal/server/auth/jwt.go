// Package auth issues and verifies the signed tokens used by the API:
// long-lived session tokens and short-lived password-reset tokens.
package auth

import (
	"time"

	"github.com/araxy/lufunds/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Purpose value carried by password-reset tokens. Session tokens leave the
// field empty, so a reset token can never pass as a session.
const PurposeReset = "reset"

// Claims carries the authenticated identity inside a signed token.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Purpose string `json:"purpose,omitempty"`
}

// GenerateSessionToken signs a session token for the given identity.
func GenerateSessionToken(userID, email, name string, secretKey []byte, validityDuration time.Duration) (string, error) {
	return sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
		Email:  email,
		Name:   name,
	}, secretKey)
}

// GenerateResetToken signs a short-lived password-reset token.
func GenerateResetToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	return sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:  userID,
		Purpose: PurposeReset,
	}, secretKey)
}

func sign(claims Claims, secretKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseSessionToken verifies a session token and returns its claims.
// Reset tokens are rejected.
func ParseSessionToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims, err := parse(tokenString, secretKey)
	if err != nil {
		return nil, err
	}

	if claims.Purpose != "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// ParseResetToken verifies a password-reset token and returns the user id
// it was issued for.
func ParseResetToken(tokenString string, secretKey []byte) (string, error) {
	claims, err := parse(tokenString, secretKey)
	if err != nil {
		return "", err
	}

	if claims.Purpose != PurposeReset {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}

func parse(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
