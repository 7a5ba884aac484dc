package grpc

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.accounts.Register(ctx, services.RegisterInput{
		Email:           str(req, "email"),
		Password:        str(req, "password"),
		ConfirmPassword: str(req, "confirm_password"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{"id": u.ID, "email": u.Email})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.accounts.Login(ctx, services.LoginInput{
		Email:    str(req, "email"),
		Password: str(req, "password"),
		Remember: req.GetFields()["remember_me"].GetBoolValue(),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{
		"user_id":       res.User.ID,
		"email":         res.User.Email,
		"session_token": res.Session.Token,
		"expires_at":    res.Session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *GRPCServer) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.accounts.Logout(ctx, sessionToken(ctx)); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) ListTasks(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.tasks.List(ctx, p.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	items := make([]any, 0, len(list))
	for _, t := range list {
		items = append(items, taskFields(t))
	}
	return structpb.NewStruct(map[string]any{"tasks": items})
}

func (s *GRPCServer) AddTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.tasks.Add(ctx, p.UserID, str(req, "content"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(taskFields(t))
}

func (s *GRPCServer) ToggleTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, taskID, err := s.authorizeTask(ctx, req)
	if err != nil {
		return nil, err
	}

	t, err := s.tasks.Toggle(ctx, p.UserID, taskID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(taskFields(t))
}

func (s *GRPCServer) DeleteTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, taskID, err := s.authorizeTask(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Delete(ctx, p.UserID, taskID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) DeleteAccount(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.DeleteAccount(ctx, p.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.accounts.Logout(ctx, sessionToken(ctx)); err != nil {
		s.logger.Warn(ctx, "revoke session after account deletion", "user_id", p.UserID, "error", err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) principal(ctx context.Context) (services.Principal, error) {
	p, ok := services.PrincipalFromContext(ctx)
	if !ok {
		return services.Principal{}, s.toStatus(ctx, common.ErrUnauthenticated)
	}
	return p, nil
}

func (s *GRPCServer) authorizeTask(ctx context.Context, req *structpb.Struct) (services.Principal, int64, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return p, 0, err
	}

	taskID, ok := id(req, "id")
	if !ok {
		return p, 0, s.toStatus(ctx, common.ErrorNotFound)
	}
	if _, err := s.guard.AuthorizeTask(ctx, p, taskID); err != nil {
		return p, 0, s.toStatus(ctx, err)
	}
	return p, taskID, nil
}

// toStatus maps service errors to gRPC statuses with fixed messages.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, common.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, "Email already registered")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "Invalid email or password")
	case errors.Is(err, common.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "Please log in to access this page.")
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrForbidden):
		return status.Error(codes.NotFound, "Todo not found")
	default:
		s.logger.Error(ctx, "rpc failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func taskFields(t *models.Task) map[string]any {
	return map[string]any{
		"id":         t.ID,
		"content":    t.Content,
		"completed":  t.Completed,
		"created_at": t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func str(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

// maxExactID is the largest id a JSON number carries without rounding.
const maxExactID = 1 << 53

// id reads a positive integral number field.
func id(req *structpb.Struct, key string) (int64, bool) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, false
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	f := n.NumberValue
	if f < 1 || f != math.Trunc(f) || f > maxExactID {
		return 0, false
	}
	return int64(f), true
}
