package utils

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	PurposeAccess = "access"
	PurposeReset  = "reset"
)

// Claims represents the JWT claims
type Claims struct {
	UserID  string `json:"uid"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Purpose string `json:"purpose"`
	jwt.StandardClaims
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	key      []byte
	ttl      time.Duration
	resetTTL time.Duration
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{
		key:      []byte(secret),
		ttl:      24 * time.Hour,
		resetTTL: time.Hour,
	}
}

// GenerateJWT generates an access token for a user
func (tm *TokenManager) GenerateJWT(userID, email, role, name string) (string, error) {
	return tm.sign(Claims{
		UserID:  userID,
		Email:   email,
		Role:    role,
		Name:    name,
		Purpose: PurposeAccess,
	}, tm.ttl)
}

// GenerateResetToken generates a short-lived password reset token.
func (tm *TokenManager) GenerateResetToken(userID, email string) (string, error) {
	return tm.sign(Claims{
		UserID:  userID,
		Email:   email,
		Purpose: PurposeReset,
	}, tm.resetTTL)
}

func (tm *TokenManager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = now.Unix()
	claims.ExpiresAt = now.Add(ttl).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(tm.key)
}

// ParseJWT verifies a token and checks it was issued for purpose.
func (tm *TokenManager) ParseJWT(tokenStr, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return tm.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a login attempt with the stored value. Accounts
// created before hashing was introduced still hold the plaintext password.
func CheckPassword(stored, given string) bool {
	if IsHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// IsHashed reports whether stored is a bcrypt hash.
func IsHashed(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return err == nil
}
