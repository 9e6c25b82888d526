// utils/jwt.go
package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	accessTokenTTL  = 1 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// AuthClaims is what the middleware extracts from a validated token.
type AuthClaims struct {
	UserID             uint
	IsAdmin            bool
	MustChangePassword bool
	IsRefresh          bool
}

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// CreateAccessToken signs an HS256 access token carrying the user id plus
// admin and forced-password-change claims.
func CreateAccessToken(userID uint, isAdmin, mustChangePassword bool) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":                  fmt.Sprintf("%d", userID),
		"is_admin":             isAdmin,
		"must_change_password": mustChangePassword,
		"iat":                  now.Unix(),
		"exp":                  now.Add(accessTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
}

// CreateRefreshToken signs a long-lived token valid only for the refresh
// endpoint.
func CreateRefreshToken(userID uint) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":     fmt.Sprintf("%d", userID),
		"refresh": true,
		"iat":     now.Unix(),
		"exp":     now.Add(refreshTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
}

// ParseToken validates a signed token and returns its claims.
func ParseToken(raw string) (*AuthClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret(), nil
	})
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	var userID uint
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil || userID == 0 {
		return nil, errors.New("invalid subject claim")
	}
	out := &AuthClaims{UserID: userID}
	if v, ok := claims["is_admin"].(bool); ok {
		out.IsAdmin = v
	}
	if v, ok := claims["must_change_password"].(bool); ok {
		out.MustChangePassword = v
	}
	if v, ok := claims["refresh"].(bool); ok {
		out.IsRefresh = v
	}
	return out, nil
}
