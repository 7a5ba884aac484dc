// Package grpc exposes the todo service over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"google.golang.org/grpc"
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

type GRPCServer struct {
	address  string
	accounts Accounts
	tasks    Tasks
	guard    Authorizer
	limiter  *ratelimit.Limiter
	logger   logging.Logger
}

// NewGRPCServer builds the server. limiter throttles Login per client; nil
// disables throttling.
func NewGRPCServer(address string, l logging.Logger, accounts Accounts, tasks Tasks, guard Authorizer, limiter *ratelimit.Limiter) *GRPCServer {
	return &GRPCServer{
		address:  address,
		limiter:  limiter,
		logger:   l.With("module", "grpc_server"),
		accounts: accounts,
		tasks:    tasks,
		guard:    guard,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.loginThrottleInterceptor, s.sessionInterceptor))
	srv.RegisterService(&todoServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}
