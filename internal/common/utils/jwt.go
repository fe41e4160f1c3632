// internal/common/utils/jwt.go
// JWT token generation and validation

package utils

import (
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// JWTClaims carries the identity embedded in API tokens
type JWTClaims struct {
    UserID int64  `json:"user_id"`
    Type   string `json:"type"` // "access" or "refresh"
    jwt.RegisteredClaims
}

// GenerateJWT creates a signed token for a user
func GenerateJWT(userID int64, tokenType string, expiry time.Duration, secret string) (string, error) {
    claims := &JWTClaims{
        UserID: userID,
        Type:   tokenType,
        RegisteredClaims: jwt.RegisteredClaims{
            ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
            IssuedAt:  jwt.NewNumericDate(time.Now()),
            Subject:   fmt.Sprintf("%d", userID),
        },
    }

    token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

    tokenString, err := token.SignedString([]byte(secret))
    if err != nil {
        return "", fmt.Errorf("failed to sign token: %w", err)
    }

    return tokenString, nil
}

// ValidateJWT validates a token and returns its claims
func ValidateJWT(tokenString string, secret string) (*JWTClaims, error) {
    claims := &JWTClaims{}

    token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
        if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
        }
        return []byte(secret), nil
    })
    if err != nil || !token.Valid {
        return nil, ErrInvalidToken
    }

    return claims, nil
}
