// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashAndVerifySecret(t *testing.T) {
	hash, err := HashSecret("p@ss1234")
	assert.NoError(t, err)
	assert.NotEqual(t, "p@ss1234", hash)

	assert.True(t, VerifySecret("p@ss1234", hash))
	assert.False(t, VerifySecret("wrong", hash))
	assert.False(t, VerifySecret("", hash))
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashSecret("p@ss1234")
	assert.NoError(t, err)
	second, err := HashSecret("p@ss1234")
	assert.NoError(t, err)

	// Same plaintext, different salt, different hash; both still verify.
	assert.NotEqual(t, first, second)
	assert.True(t, VerifySecret("p@ss1234", first))
	assert.True(t, VerifySecret("p@ss1234", second))
}

func TestVerifySecretMalformedHash(t *testing.T) {
	// Malformed or truncated hashes fail verification, never panic.
	assert.False(t, VerifySecret("p@ss1234", ""))
	assert.False(t, VerifySecret("p@ss1234", "not-a-bcrypt-hash"))
	assert.False(t, VerifySecret("p@ss1234", "$2a$12$tooshort"))
}
