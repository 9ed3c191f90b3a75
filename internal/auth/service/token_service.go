package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/Sundram11/backend01/internal/auth/service TokenGenerator

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenGenerator interface {
	GenerateAccessToken(userID string) (string, error)
	GenerateRefreshToken(userID string) (string, error)
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
	VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error)
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

// TokenService signs and verifies both token classes. Access and refresh
// tokens use distinct secrets, so one class can never be replayed as the other.
type TokenService struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

func NewTokenService(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenService {
	return &TokenService{
		AccessTokenSecret:  accessSecret,
		RefreshTokenSecret: refreshSecret,
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refreshExpiry,
	}
}

func (ts *TokenService) GenerateAccessToken(userID string) (string, error) {
	return ts.generate(userID, ts.AccessTokenSecret, ts.AccessTokenExpiry)
}

func (ts *TokenService) GenerateRefreshToken(userID string) (string, error) {
	return ts.generate(userID, ts.RefreshTokenSecret, ts.RefreshTokenExpiry)
}

func (ts *TokenService) generate(userID, secret string, expiry time.Duration) (string, error) {
	now := time.Now()

	claims := JWTCustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyAccessToken parses and validates the given access token string.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.AccessTokenSecret)
}

// VerifyRefreshToken parses and validates the given refresh token string.
// Expiry is checked against the claims embedded at signing time, never against
// a caller-supplied clock.
func (ts *TokenService) VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.RefreshTokenSecret)
}

func (ts *TokenService) verify(tokenString, secret string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.AccessTokenExpiry
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenExpiry
}
