// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VA7DBI/scholarAPI/auth"
	"github.com/VA7DBI/scholarAPI/config"
	"github.com/VA7DBI/scholarAPI/middleware"
	"github.com/VA7DBI/scholarAPI/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAccountTest(t *testing.T) (*gin.Engine, *store.MemoryStore) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Auth.SecretKey = strings.Repeat("t", 32)

	authority, err := auth.NewAuthority(cfg, auth.NewMemoryRegistry())
	require.NoError(t, err)

	users := store.NewMemoryStore()
	accounts := NewAccountService(cfg, users, authority)
	authMiddleware := middleware.NewAuthMiddleware(authority, users)

	r := gin.New()
	r.POST("/auth/signup", accounts.SignupHandler)
	r.POST("/auth/login", accounts.LoginHandler)
	r.POST("/auth/refresh", accounts.RefreshHandler)
	r.POST("/auth/logout", accounts.LogoutHandler)
	r.GET("/auth/me", authMiddleware.Handler(), accounts.MeHandler)

	return r, users
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}, configure func(*http.Request)) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if configure != nil {
		configure(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signupAlice(t *testing.T, r *gin.Engine) {
	w := postJSON(t, r, "/auth/signup", SignupRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "p@ss1234",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
}

func loginAlice(t *testing.T, r *gin.Engine) TokenResponse {
	w := postJSON(t, r, "/auth/login", LoginRequest{Username: "alice", Password: "p@ss1234"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	return tokens
}

func TestSignupHandler(t *testing.T) {
	r, _ := setupAccountTest(t)

	t.Run("CreatesAccount", func(t *testing.T) {
		w := postJSON(t, r, "/auth/signup", SignupRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "p@ss1234",
		}, nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		// The password hash must never leave the server.
		assert.NotContains(t, w.Body.String(), "p@ss1234")
		assert.NotContains(t, w.Body.String(), "$2a$")
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		w := postJSON(t, r, "/auth/signup", SignupRequest{
			Username: "alice",
			Email:    "other@example.com",
			Password: "p@ss1234",
		}, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		w := postJSON(t, r, "/auth/signup", SignupRequest{
			Username: "bob",
			Email:    "bob@example.com",
			Password: "short",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLoginHandler(t *testing.T) {
	r, users := setupAccountTest(t)
	signupAlice(t, r)

	t.Run("Success", func(t *testing.T) {
		w := postJSON(t, r, "/auth/login", LoginRequest{Username: "alice", Password: "p@ss1234"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var tokens TokenResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.Equal(t, "bearer", tokens.TokenType)

		cookies := w.Result().Cookies()
		names := make(map[string]bool)
		for _, cookie := range cookies {
			names[cookie.Name] = true
			assert.True(t, cookie.HttpOnly, "cookie %s must be HttpOnly", cookie.Name)
		}
		assert.True(t, names[middleware.AccessTokenCookie])
		assert.True(t, names[RefreshTokenCookie])
	})

	t.Run("WrongPasswordAndUnknownUserLookAlike", func(t *testing.T) {
		wrong := postJSON(t, r, "/auth/login", LoginRequest{Username: "alice", Password: "nope1234"}, nil)
		unknown := postJSON(t, r, "/auth/login", LoginRequest{Username: "mallory", Password: "nope1234"}, nil)

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	})

	t.Run("InactiveAccount", func(t *testing.T) {
		users.SetActive("alice", false)
		defer users.SetActive("alice", true)

		w := postJSON(t, r, "/auth/login", LoginRequest{Username: "alice", Password: "p@ss1234"}, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRefreshHandler(t *testing.T) {
	r, _ := setupAccountTest(t)
	signupAlice(t, r)
	tokens := loginAlice(t, r)

	t.Run("RotateViaBody", func(t *testing.T) {
		w := postJSON(t, r, "/auth/refresh", RefreshRequest{RefreshToken: tokens.RefreshToken}, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var rotated TokenResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
		assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

		// The old refresh token was consumed by the rotation.
		replay := postJSON(t, r, "/auth/refresh", RefreshRequest{RefreshToken: tokens.RefreshToken}, nil)
		assert.Equal(t, http.StatusUnauthorized, replay.Code)

		tokens = rotated
	})

	t.Run("RotateViaCookie", func(t *testing.T) {
		w := postJSON(t, r, "/auth/refresh", nil, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: tokens.RefreshToken})
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MissingToken", func(t *testing.T) {
		w := postJSON(t, r, "/auth/refresh", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("AccessTokenRejected", func(t *testing.T) {
		w := postJSON(t, r, "/auth/refresh", RefreshRequest{RefreshToken: tokens.AccessToken}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	r, _ := setupAccountTest(t)
	signupAlice(t, r)
	tokens := loginAlice(t, r)

	w := postJSON(t, r, "/auth/logout", nil, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: tokens.AccessToken})
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: tokens.RefreshToken})
	})
	assert.Equal(t, http.StatusOK, w.Code)

	for _, cookie := range w.Result().Cookies() {
		assert.Empty(t, cookie.Value, "cookie %s should be cleared", cookie.Name)
	}

	// Both tokens are dead: the access token no longer authenticates and
	// the refresh token no longer rotates.
	me := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	r.ServeHTTP(me, req)
	assert.Equal(t, http.StatusUnauthorized, me.Code)

	refresh := postJSON(t, r, "/auth/refresh", RefreshRequest{RefreshToken: tokens.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, refresh.Code)

	// Logging out again with the same cookies is still a success.
	again := postJSON(t, r, "/auth/logout", nil, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: tokens.RefreshToken})
	})
	assert.Equal(t, http.StatusOK, again.Code)
}

func TestMeHandler(t *testing.T) {
	r, _ := setupAccountTest(t)
	signupAlice(t, r)
	tokens := loginAlice(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var user store.User
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
}
