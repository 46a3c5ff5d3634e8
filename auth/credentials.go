// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the work factor applied to every stored secret. Raising it
// slows both legitimate verification and brute force by the same factor.
const BcryptCost = 12

// HashSecret derives a one-way, salted hash of plaintext. Two calls with the
// same input produce different hashes; the salt is embedded in the output.
func HashSecret(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifySecret reports whether plaintext matches a stored hash. Comparison is
// constant-time with respect to the hash's own salt. A malformed hash simply
// fails verification; it never panics or surfaces an error to the caller.
func VerifySecret(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
