// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"time"
)

// MockRegistry is a mock implementation of RevocationRegistry for testing
type MockRegistry struct {
	revoked map[string]time.Time
	failErr error
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{
		revoked: make(map[string]time.Time),
	}
}

// FailWith makes every subsequent call return err, for error-path tests.
func (m *MockRegistry) FailWith(err error) {
	m.failErr = err
}

func (m *MockRegistry) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.revoked[tokenID] = expiresAt
	return nil
}

func (m *MockRegistry) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if m.failErr != nil {
		return false, m.failErr
	}
	_, found := m.revoked[tokenID]
	return found, nil
}
