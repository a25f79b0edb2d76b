// internal/common/utils/jwt.go
// JWT token generation and validation

package utils

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// JWTClaims carries the authenticated principal through the call chain
type JWTClaims struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Type     string `json:"type"` // "access" or "refresh"
	// Standard JWT claims
	ExpiresAt int64 `json:"exp"`
	IssuedAt  int64 `json:"iat"`
}

// GenerateJWT creates a new signed token
func GenerateJWT(claims *JWTClaims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  claims.UserID,
		"email":    claims.Email,
		"username": claims.Username,
		"type":     claims.Type,
		"exp":      claims.ExpiresAt,
		"iat":      claims.IssuedAt,
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a token and returns its claims
func ValidateJWT(tokenString string, secret string) (*JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID := getInt64Claim(claims, "user_id")
	if userID == 0 {
		return nil, errors.New("invalid user_id in token")
	}

	return &JWTClaims{
		UserID:    userID,
		Email:     getStringClaim(claims, "email"),
		Username:  getStringClaim(claims, "username"),
		Type:      getStringClaim(claims, "type"),
		ExpiresAt: getInt64Claim(claims, "exp"),
		IssuedAt:  getInt64Claim(claims, "iat"),
	}, nil
}

// Helper functions to safely extract claims
func getStringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

func getInt64Claim(claims jwt.MapClaims, key string) int64 {
	if val, ok := claims[key].(float64); ok {
		return int64(val)
	}
	return 0
}
