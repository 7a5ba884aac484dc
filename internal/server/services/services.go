// Package services contains server-side business logic: account handling
// (UserService), the per-request authorization decision (Guard) and the
// todo list itself (TaskService). Transports translate the sentinel errors
// from internal/common into their own responses.
package services

import (
	"context"

	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
)

// DB is a connection pool that can also start transactions. *sql.DB satisfies it.
type DB interface {
	dbx.DBTX
	dbx.TxBeginner
}

// Hasher is implemented by cryptox.PasswordHasher.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) (bool, error)
	NeedsRehash(encoded string) bool
}

// Sessions is implemented by auth.SessionManager.
type Sessions interface {
	Issue(userID int64, remember bool) (*auth.Session, error)
	Resolve(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, token string) error
}
