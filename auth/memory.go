// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/VA7DBI/scholarAPI/metrics"
)

// MemoryRegistry implements RevocationRegistry with a mutex-guarded map.
// Entries are swept once their token would have expired anyway, so the set
// stays bounded by the number of live tokens. Suitable for single-process
// deployments; state is lost on restart.
type MemoryRegistry struct {
	mu         sync.RWMutex
	revoked    map[string]time.Time
	lastSweep  time.Time
	sweepEvery time.Duration
}

// NewMemoryRegistry creates an empty in-memory revocation registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		revoked:    make(map[string]time.Time),
		lastSweep:  time.Now(),
		sweepEvery: time.Minute,
	}
}

func (r *MemoryRegistry) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.revoked[tokenID] = expiresAt
	r.sweepLocked(time.Now())
	metrics.RevokedTokens.Set(float64(len(r.revoked)))
	return nil
}

func (r *MemoryRegistry) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	expiresAt, found := r.revoked[tokenID]
	r.mu.RUnlock()

	if !found {
		return false, nil
	}

	// An entry past its token's expiry is dead weight; the token itself
	// already fails verification as expired.
	if time.Now().After(expiresAt) {
		r.mu.Lock()
		delete(r.revoked, tokenID)
		metrics.RevokedTokens.Set(float64(len(r.revoked)))
		r.mu.Unlock()
		return false, nil
	}

	return true, nil
}

// Len returns the number of live entries, for metrics and tests.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.revoked)
}

// sweepLocked drops expired entries at most once per sweep interval.
// Callers must hold the write lock.
func (r *MemoryRegistry) sweepLocked(now time.Time) {
	if now.Sub(r.lastSweep) < r.sweepEvery {
		return
	}
	for id, expiresAt := range r.revoked {
		if now.After(expiresAt) {
			delete(r.revoked, id)
		}
	}
	r.lastSweep = now
}
