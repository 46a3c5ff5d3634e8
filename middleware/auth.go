// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/VA7DBI/scholarAPI/auth"
	"github.com/VA7DBI/scholarAPI/metrics"
	"github.com/VA7DBI/scholarAPI/store"
	"github.com/gin-gonic/gin"
)

// Gin context keys set on authenticated requests.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
)

// AccessTokenCookie is the HttpOnly cookie the login handler sets.
// Browser clients authenticate with it; API clients use a bearer header.
const AccessTokenCookie = "access_token"

// TokenVerifier is the slice of the token authority the middleware needs.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string, kind auth.TokenKind) (*auth.Claims, error)
}

// AccountDirectory resolves a token subject to its current account state.
type AccountDirectory interface {
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
}

// AuthMiddleware verifies access tokens and loads the account behind them.
type AuthMiddleware struct {
	authority TokenVerifier
	accounts  AccountDirectory
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(authority TokenVerifier, accounts AccountDirectory) *AuthMiddleware {
	return &AuthMiddleware{
		authority: authority,
		accounts:  accounts,
	}
}

// Handler returns the gin middleware handler function. Every failure is
// a plain 401; the response never says whether the token, the account,
// or neither was the problem.
func (m *AuthMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := m.authority.Verify(c.Request.Context(), token, auth.TokenKindAccess)
		if err != nil {
			metrics.TokenVerifications.WithLabelValues("access", verifyResult(err)).Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		metrics.TokenVerifications.WithLabelValues("access", "ok").Inc()

		user, err := m.accounts.GetUserByUsername(c.Request.Context(), claims.Subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is inactive"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		c.Next()
	}
}

// extractToken pulls the access token from the Authorization header or,
// failing that, the HttpOnly cookie set at login.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	cookie, err := c.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	return cookie
}

// verifyResult maps verification errors onto metric label values.
func verifyResult(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrWrongTokenType):
		return "wrong_type"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "revoked"
	default:
		return "error"
	}
}
