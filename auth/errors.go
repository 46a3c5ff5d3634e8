// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import "errors"

// Verification failures. All are terminal for the presented token; the
// caller's remedy is to re-authenticate, not to retry. Match with errors.Is.
var (
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired     = errors.New("token has expired")
	ErrWrongTokenType   = errors.New("token is of the wrong type")
	ErrTokenRevoked     = errors.New("token has been revoked")
	ErrWeakSigningKey   = errors.New("signing key is too short or a known-weak default")
	ErrUnknownAlgorithm = errors.New("unsupported signing algorithm")
)
