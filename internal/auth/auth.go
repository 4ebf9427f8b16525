// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

// Package auth implements credential verification and JWT session tokens
// for the ETL trigger endpoints. Two modes exist: "none" leaves every
// endpoint open, "jwt" requires a bearer token minted by the login
// endpoint from the configured admin credentials.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/musicscope/musicscope/internal/config"
)

// Mode names accepted in config.
const (
	ModeNone = "none"
	ModeJWT  = "jwt"
)

var (
	// ErrInvalidCredentials is returned for any username/password mismatch.
	// Deliberately indistinct so login failures leak nothing.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for missing, malformed, expired, or
	// wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the JWT payload for a session.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Authenticator verifies passwords and issues/validates session tokens.
type Authenticator struct {
	mode           string
	secret         []byte
	sessionTimeout time.Duration
}

// New builds an Authenticator from the security config. Config validation
// has already enforced that jwt mode carries a secret and credentials.
func New(cfg *config.SecurityConfig) *Authenticator {
	return &Authenticator{
		mode:           cfg.AuthMode,
		secret:         []byte(cfg.JWTSecret),
		sessionTimeout: cfg.SessionTimeout,
	}
}

// Enabled reports whether authentication is enforced.
func (a *Authenticator) Enabled() bool {
	return a.mode == ModeJWT
}

// HashPassword produces the bcrypt hash stored for a user.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a login password against the stored hash.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueToken mints a signed session token for a verified user. Expiry is
// the configured session timeout from now.
func (a *Authenticator) IssueToken(username string, isAdmin bool) (token string, expiresAt time.Time, err error) {
	now := time.Now()
	expiresAt = now.Add(a.sessionTimeout)

	claims := Claims{
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "musicscope",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyToken parses and validates a bearer token, returning its claims.
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
