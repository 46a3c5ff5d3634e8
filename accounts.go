// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"net/http"
	"time"

	"github.com/VA7DBI/scholarAPI/auth"
	"github.com/VA7DBI/scholarAPI/config"
	"github.com/VA7DBI/scholarAPI/metrics"
	"github.com/VA7DBI/scholarAPI/middleware"
	"github.com/VA7DBI/scholarAPI/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RefreshTokenCookie carries the refresh token between /auth/login and
// /auth/refresh for browser clients. API clients send it in the body.
const RefreshTokenCookie = "refresh_token"

// AccountService owns the signup/login/refresh/logout handlers. It is
// the only caller of the credential store; the token authority does the
// rest.
type AccountService struct {
	config    *config.Config
	users     store.UserStore
	authority *auth.Authority
}

func NewAccountService(cfg *config.Config, users store.UserStore, authority *auth.Authority) *AccountService {
	return &AccountService{
		config:    cfg,
		users:     users,
		authority: authority,
	}
}

// SignupRequest is the account creation payload.
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the credential payload for /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token when it is not in the cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is the issued pair, also mirrored into HttpOnly cookies.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// @Summary     Create a new account
// @Description Register a username/email/password account
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       account body SignupRequest true "New account"
// @Success     201 {object} store.User
// @Failure     400 {object} ErrorResponse
// @Failure     409 {object} ErrorResponse
// @Router      /auth/signup [post]
func (s *AccountService) SignupHandler(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.AuthRequests.WithLabelValues("signup", "error").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid signup payload"})
		return
	}

	exists, err := s.users.UserExists(c.Request.Context(), req.Email, req.Username)
	if err != nil {
		metrics.AuthRequests.WithLabelValues("signup", "error").Inc()
		logrus.WithError(err).Error("signup: user lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create account"})
		return
	}
	if exists {
		metrics.AuthRequests.WithLabelValues("signup", "conflict").Inc()
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Username or email already taken"})
		return
	}

	hash, err := auth.HashSecret(req.Password)
	if err != nil {
		metrics.AuthRequests.WithLabelValues("signup", "error").Inc()
		logrus.WithError(err).Error("signup: hashing failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create account"})
		return
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(c.Request.Context(), user); err != nil {
		if err == store.ErrDuplicate {
			metrics.AuthRequests.WithLabelValues("signup", "conflict").Inc()
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Username or email already taken"})
			return
		}
		metrics.AuthRequests.WithLabelValues("signup", "error").Inc()
		logrus.WithError(err).Error("signup: insert failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create account"})
		return
	}

	metrics.AuthRequests.WithLabelValues("signup", "success").Inc()
	logrus.WithField("username", user.Username).Info("account created")
	c.JSON(http.StatusCreated, user)
}

// @Summary     Log in
// @Description Verify credentials and issue an access/refresh token pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       credentials body LoginRequest true "Credentials"
// @Success     200 {object} TokenResponse
// @Failure     401 {object} ErrorResponse
// @Failure     403 {object} ErrorResponse
// @Router      /auth/login [post]
func (s *AccountService) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.AuthRequests.WithLabelValues("login", "error").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid login payload"})
		return
	}

	// Unknown user and wrong password produce the same response, so the
	// endpoint cannot be used to enumerate accounts.
	user, err := s.users.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil || !auth.VerifySecret(req.Password, user.PasswordHash) {
		metrics.AuthRequests.WithLabelValues("login", "denied").Inc()
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Incorrect username or password"})
		return
	}
	if !user.IsActive {
		metrics.AuthRequests.WithLabelValues("login", "denied").Inc()
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Account is inactive"})
		return
	}

	pair, err := s.authority.IssuePair(user.Username)
	if err != nil {
		metrics.AuthRequests.WithLabelValues("login", "error").Inc()
		logrus.WithError(err).Error("login: token issuance failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to issue tokens"})
		return
	}

	metrics.AuthRequests.WithLabelValues("login", "success").Inc()
	s.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

// @Summary     Rotate tokens
// @Description Exchange a refresh token for a fresh access/refresh pair; the presented token is revoked
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       token body RefreshRequest false "Refresh token (cookie also accepted)"
// @Success     200 {object} TokenResponse
// @Failure     401 {object} ErrorResponse
// @Router      /auth/refresh [post]
func (s *AccountService) RefreshHandler(c *gin.Context) {
	token := s.refreshTokenFrom(c)
	if token == "" {
		metrics.AuthRequests.WithLabelValues("refresh", "denied").Inc()
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Refresh token required"})
		return
	}

	pair, err := s.authority.Rotate(c.Request.Context(), token)
	if err != nil {
		metrics.AuthRequests.WithLabelValues("refresh", "denied").Inc()
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired refresh token"})
		return
	}

	metrics.AuthRequests.WithLabelValues("refresh", "success").Inc()
	s.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

// @Summary     Log out
// @Description Revoke the presented tokens and clear auth cookies
// @Tags        auth
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /auth/logout [post]
func (s *AccountService) LogoutHandler(c *gin.Context) {
	// Revoke whatever the client still holds. Tokens that no longer
	// verify are already dead, so failures here are not errors.
	if access, err := c.Cookie(middleware.AccessTokenCookie); err == nil {
		s.revokeIfValid(c, access, auth.TokenKindAccess)
	}
	if refresh, err := c.Cookie(RefreshTokenCookie); err == nil {
		s.revokeIfValid(c, refresh, auth.TokenKindRefresh)
	}
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		s.revokeIfValid(c, req.RefreshToken, auth.TokenKindRefresh)
	}

	s.clearTokenCookies(c)
	metrics.AuthRequests.WithLabelValues("logout", "success").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// @Summary     Current account
// @Description Return the authenticated account's details
// @Tags        auth
// @Produce     json
// @Success     200 {object} store.User
// @Failure     401 {object} ErrorResponse
// @Router      /auth/me [get]
func (s *AccountService) MeHandler(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)

	user, err := s.users.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Account not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *AccountService) refreshTokenFrom(c *gin.Context) string {
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

func (s *AccountService) revokeIfValid(c *gin.Context, token string, kind auth.TokenKind) {
	claims, err := s.authority.Verify(c.Request.Context(), token, kind)
	if err != nil {
		return
	}
	if err := s.authority.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		logrus.WithError(err).Warn("logout: revocation failed")
	}
}

func (s *AccountService) setTokenCookies(c *gin.Context, pair *auth.TokenPair) {
	secure := s.config.Auth.CookieSecure || s.config.IsProduction()
	c.SetCookie(middleware.AccessTokenCookie, pair.AccessToken,
		int(s.config.AccessTokenTTL().Seconds()), "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, pair.RefreshToken,
		int(s.config.RefreshTokenTTL().Seconds()), "/", "", secure, true)
}

func (s *AccountService) clearTokenCookies(c *gin.Context) {
	secure := s.config.Auth.CookieSecure || s.config.IsProduction()
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}
