// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"time"
)

// RevocationRegistry records token identifiers (jti claims) that must no
// longer verify, regardless of signature or expiry. Implementations must be
// safe for concurrent use; Revoke is idempotent.
type RevocationRegistry interface {
	// Revoke marks a token identifier as revoked until the token's natural
	// expiry, after which the entry may be evicted.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error

	// IsRevoked reports whether a token identifier is in the registry.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
