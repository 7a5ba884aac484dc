package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
)

// Principal is the identity a request acts as once its session is resolved.
type Principal struct {
	UserID int64
	Email  string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Guard decides whether a request may proceed. It never writes.
type Guard struct {
	db       DB
	repos    repomanager.RepositoryManager
	sessions Sessions
	log      logging.Logger
}

func NewGuard(db DB, repos repomanager.RepositoryManager, sessions Sessions, log logging.Logger) *Guard {
	return &Guard{db: db, repos: repos, sessions: sessions, log: log.With("module", "guard")}
}

// Authenticate resolves token to an existing user. Missing, invalid, revoked
// and orphaned sessions all yield common.ErrUnauthenticated.
func (g *Guard) Authenticate(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, common.ErrUnauthenticated
	}

	userID, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		g.log.Debug(ctx, "session rejected", "error", err)
		return Principal{}, common.ErrUnauthenticated
	}

	u, err := g.repos.Users(g.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			g.log.Info(ctx, "session for deleted user", "user_id", userID)
			return Principal{}, common.ErrUnauthenticated
		}
		g.log.Error(ctx, "load session user failed", "user_id", userID, "error", err)
		return Principal{}, common.ErrorInternal
	}

	return Principal{UserID: u.ID, Email: u.Email}, nil
}

// AuthorizeTask loads the task and checks that p owns it.
func (g *Guard) AuthorizeTask(ctx context.Context, p Principal, taskID int64) (*models.Task, error) {
	t, err := g.repos.Tasks(g.db).GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		g.log.Error(ctx, "load task failed", "task_id", taskID, "error", err)
		return nil, common.ErrorInternal
	}

	if !t.OwnedBy(p.UserID) {
		g.log.Warn(ctx, "cross-owner task access denied", "user_id", p.UserID, "task_id", taskID)
		return nil, common.ErrForbidden
	}
	return t, nil
}
