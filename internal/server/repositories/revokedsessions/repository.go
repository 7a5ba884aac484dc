// Package revokedsessions stores the ids of session tokens that were logged
// out before their natural expiry.
package revokedsessions

import (
	"context"
	"time"
)

type Repository interface {
	// Add records tokenID as revoked until expiresAt. Adding the same id
	// twice is not an error.
	Add(ctx context.Context, tokenID string, expiresAt time.Time) error

	// Exists reports whether tokenID is recorded and not yet expired.
	Exists(ctx context.Context, tokenID string) (bool, error)

	// DeleteExpired drops entries whose tokens have expired anyway.
	DeleteExpired(ctx context.Context) (int64, error)
}
