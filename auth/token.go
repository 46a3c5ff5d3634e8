// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package auth owns the authentication token lifecycle: issuance,
// verification, rotation, and revocation of signed access and refresh
// tokens, plus one-way hashing of account secrets. Everything here is
// transport-agnostic; HTTP concerns live in the middleware and handlers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VA7DBI/scholarAPI/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TokenKind distinguishes short-lived access tokens from long-lived refresh
// tokens. A token only verifies against the kind it was issued with.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// MinSigningKeyBytes is the floor below which a signing key is rejected.
const MinSigningKeyBytes = 32

// weakSigningKeys are defaults that ship in examples and docker-compose
// files. They must never sign production tokens.
var weakSigningKeys = map[string]bool{
	"secret":                               true,
	"secretKey":                            true,
	"changeme":                             true,
	"password":                             true,
	"development":                          true,
	"your-secret-key-change-in-production": true,
}

// Claims is the signed payload carried by every token. The registered jti
// (ID) claim is the unit of revocation: the registry stores identifiers,
// never whole tokens.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
}

// Kind returns the token kind recorded in the claims.
func (c *Claims) Kind() TokenKind {
	return TokenKind(c.TokenType)
}

// TokenPair is the result of a login or rotation: a fresh access token and
// the refresh token that can later replace it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Authority issues and verifies signed tokens. Issuance and verification are
// stateless; the injected RevocationRegistry is the only shared state.
type Authority struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	registry   RevocationRegistry
}

// NewAuthority validates the signing configuration and returns a ready
// Authority. A key shorter than MinSigningKeyBytes or on the known-weak list
// is a fatal error in production and a logged warning in development.
func NewAuthority(cfg *config.Config, registry RevocationRegistry) (*Authority, error) {
	if cfg.Auth.Algorithm != "HS256" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, cfg.Auth.Algorithm)
	}

	key := cfg.Auth.SecretKey
	if len(key) < MinSigningKeyBytes || weakSigningKeys[key] {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("%w: need at least %d bytes", ErrWeakSigningKey, MinSigningKeyBytes)
		}
		logrus.WithField("component", "auth").
			Warnf("signing key is weak (<%d bytes or a known default); acceptable only in development", MinSigningKeyBytes)
	}

	return &Authority{
		secret:     []byte(key),
		method:     jwt.SigningMethodHS256,
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
		registry:   registry,
	}, nil
}

// Issue creates a signed token of the given kind for subject, valid for ttl.
// Every call generates a fresh, globally unique token identifier; the
// identifier is returned alongside the token so callers can revoke it later.
func (a *Authority) Issue(subject string, kind TokenKind, ttl time.Duration) (string, string, error) {
	now := time.Now()
	tokenID := uuid.NewString()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: string(kind),
	}

	signed, err := jwt.NewWithClaims(a.method, claims).SignedString(a.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign %s token: %v", kind, err)
	}

	return signed, tokenID, nil
}

// IssuePair issues an access and a refresh token for subject using the
// configured lifetimes.
func (a *Authority) IssuePair(subject string) (*TokenPair, error) {
	access, _, err := a.Issue(subject, TokenKindAccess, a.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, _, err := a.Issue(subject, TokenKindRefresh, a.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks a token's signature, expiry, kind, and revocation status, in
// that order, and returns its claims on success. Failures map to the
// package's sentinel errors.
func (a *Authority) Verify(ctx context.Context, tokenString string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{a.method.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenMalformed
		}
	}

	if claims.Kind() != kind {
		return nil, ErrWrongTokenType
	}

	revoked, err := a.registry.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation registry: %v", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// Revoke adds a token identifier to the registry. Revoking an identifier
// twice is a no-op success.
func (a *Authority) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return a.registry.Revoke(ctx, tokenID, expiresAt)
}

// Rotate exchanges a refresh token for a fresh access+refresh pair. The
// presented token's identifier is revoked before the new pair is issued, so
// each refresh token can be exchanged exactly once; replaying it afterwards
// fails with ErrTokenRevoked.
func (a *Authority) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := a.Verify(ctx, refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	if err := a.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("failed to revoke rotated token: %v", err)
	}

	return a.IssuePair(claims.Subject)
}
