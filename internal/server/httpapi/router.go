package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Accounts is implemented by services.UserService.
type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
	DeleteAccount(ctx context.Context, userID int64) error
}

// Tasks is implemented by services.TaskService.
type Tasks interface {
	List(ctx context.Context, userID int64) ([]*models.Task, error)
	Add(ctx context.Context, userID int64, content string) (*models.Task, error)
	Toggle(ctx context.Context, userID, taskID int64) (*models.Task, error)
	Delete(ctx context.Context, userID, taskID int64) error
}

// Authorizer is implemented by services.Guard.
type Authorizer interface {
	Authenticate(ctx context.Context, token string) (services.Principal, error)
	AuthorizeTask(ctx context.Context, p services.Principal, taskID int64) (*models.Task, error)
}

type Options struct {
	// CSRFKey signs the anti-forgery cookie.
	CSRFKey            []byte
	CookieSecure       bool
	CORSAllowedOrigins []string
	LoginRatePerMinute int
	LoginBurst         int
	// LoginLimiter, when set, is used instead of a limiter built from
	// LoginRatePerMinute and LoginBurst.
	LoginLimiter       *ratelimit.Limiter
}

type handlers struct {
	accounts Accounts
	tasks    Tasks
	guard    Authorizer
	opts     Options
	logger   logging.Logger
}

// NewRouter wires routes and middleware. gin's mode must be set by the caller.
func NewRouter(accounts Accounts, tasks Tasks, guard Authorizer, opts Options, l logging.Logger) *gin.Engine {
	h := &handlers{accounts: accounts, tasks: tasks, guard: guard, opts: opts, logger: l.With("module", "http")}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = opts.CORSAllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", common.CSRFHeaderName}
	corsConfig.ExposeHeaders = []string{common.CSRFHeaderName}
	if len(opts.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig))
	}

	store := cookie.NewStore(opts.CSRFKey)
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	limiter := opts.LoginLimiter
	if limiter == nil {
		limiter = ratelimit.New(opts.LoginRatePerMinute, opts.LoginBurst)
	}

	router.GET("/health", health)

	api := router.Group("/api")
	api.Use(sessions.Sessions(common.CSRFCookieName, store), verifyCSRF())
	{
		authRoutes := api.Group("/auth")
		authRoutes.GET("/csrf", h.csrfToken)
		authRoutes.POST("/register", h.register)
		authRoutes.POST("/login", throttleLogin(limiter), h.login)
		authRoutes.POST("/logout", h.requireSession(), h.logout)

		protected := api.Group("", h.requireSession())
		protected.GET("/tasks", h.listTasks)
		protected.POST("/tasks", h.addTask)
		protected.POST("/tasks/:id/toggle", h.toggleTask)
		protected.DELETE("/tasks/:id", h.deleteTask)
		protected.DELETE("/account", h.deleteAccount)
	}

	return router
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) setSessionCookie(c *gin.Context, s *auth.Session) {
	maxAge := 0
	if s.Remember {
		maxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, s.Token, maxAge, "/", "", h.opts.CookieSecure, true)
}

func (h *handlers) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, "", -1, "/", "", h.opts.CookieSecure, true)
}
