package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/revokedsessions"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either a pool or a
// transaction, so services can compose several stores in one unit of work.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	RevokedSessions(db dbx.DBTX) revokedsessions.Repository
}
