// Package server wires configuration, storage, services and both
// transports (HTTP and gRPC) into a runnable application and handles
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/cryptox"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/config"
	"github.com/dmitrijs2005/gophtodo/internal/server/httpapi"
	"github.com/dmitrijs2005/gophtodo/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/revokedsessions"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophtodo/internal/server/grpc"
)

// revokedSweepInterval is how often expired revocation records are purged.
const revokedSweepInterval = time.Hour

// Stack is the service layer built on top of an open database.
type Stack struct {
	Users   *services.UserService
	Tasks   *services.TaskService
	Guard   *services.Guard
	Revoked revokedsessions.Repository

	redis *redis.Client
}

// Close releases the Redis client, if any. The database is owned by the caller.
func (s *Stack) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}

// OpenDatabase opens the pgx-backed pool and checks connectivity.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// NewStack builds the hasher, the session manager with its revocation
// backend and the services.
func NewStack(c *config.Config, db *sql.DB, repos repomanager.RepositoryManager, l logging.Logger) (*Stack, error) {
	hasher, err := cryptox.NewPasswordHasher(c.HasherParams())
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	st := &Stack{Revoked: repos.RevokedSessions(db)}

	var revoker auth.Revoker = auth.NewRepositoryRevoker(st.Revoked)
	if c.RedisURL != "" {
		r, client, err := auth.NewRedisRevokerFromURL(c.RedisURL)
		if err != nil {
			return nil, err
		}
		revoker, st.redis = r, client
	}

	sessions, err := auth.NewSessionManager(auth.Options{
		KeyID:       c.SessionKeyID,
		SigningKey:  []byte(c.SecretKey),
		VerifyKeys:  c.VerifyKeys(),
		TTL:         c.SessionTTL,
		RememberTTL: c.RememberTTL,
		Revoker:     revoker,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("session manager: %w", err)
	}

	st.Users, err = services.NewUserService(db, repos, hasher, sessions, l)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	st.Tasks = services.NewTaskService(db, repos, l)
	st.Guard = services.NewGuard(db, repos, sessions, l)

	return st, nil
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	stack   *Stack
	limiter *ratelimit.Limiter
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	repos := repomanager.NewPostgresRepositoryManager()

	db, err := OpenDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	st, err := NewStack(c, db, repos, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		stack:   st,
		limiter: ratelimit.New(c.LoginRatePerMinute, c.LoginBurst),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	gin.SetMode(app.config.GinMode)

	csrfKey, err := app.config.CSRFKey()
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	router := httpapi.NewRouter(app.stack.Users, app.stack.Tasks, app.stack.Guard, httpapi.Options{
		CSRFKey:            csrfKey,
		CookieSecure:       app.config.CookieSecure,
		CORSAllowedOrigins: app.config.CORSAllowedOrigins,
		LoginLimiter:       app.limiter,
	}, app.logger)

	s := httpapi.NewHTTPServer(app.config.HTTPAddr, router, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.stack.Users, app.stack.Tasks, app.stack.Guard, app.limiter)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// sweepRevoked periodically drops revocation records whose tokens have
// expired anyway.
func (app *App) sweepRevoked(ctx context.Context) {
	t := time.NewTicker(revokedSweepInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := app.stack.Revoked.DeleteExpired(ctx)
			if err != nil {
				app.logger.Warn(ctx, "purge revoked sessions", "error", err)
				continue
			}
			app.logger.Debug(ctx, "purged revoked sessions", "count", n)
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweepRevoked(ctx)
	}()

	wg.Wait()

	if err := app.stack.Close(); err != nil {
		app.logger.Warn(ctx, "close redis", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "close db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
