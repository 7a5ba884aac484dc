package grpc

import (
	"context"
	"math"
	"net"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var publicMethods = map[string]bool{
	MethodRegister: true,
	MethodLogin:    true,
}

func sessionToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(common.SessionTokenMetadataKey); len(values) > 0 {
		return values[0]
	}
	return ""
}

// sessionInterceptor authenticates every non-public call and hands the
// resolved principal to the handler through the context.
func (s *GRPCServer) sessionInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	p, err := s.guard.Authenticate(ctx, sessionToken(ctx))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return handler(services.WithPrincipal(ctx, p), req)
}

// clientKey identifies the caller by the host part of its peer address.
func clientKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// loginThrottleInterceptor applies the shared per-client login limiter to
// Login calls.
func (s *GRPCServer) loginThrottleInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if info.FullMethod != MethodLogin || s.limiter == nil {
		return handler(ctx, req)
	}

	if ok, wait := s.limiter.Allow(clientKey(ctx)); !ok {
		_ = grpc.SetHeader(ctx, metadata.Pairs("retry-after", strconv.Itoa(int(math.Ceil(wait.Seconds())))))
		return nil, status.Error(codes.ResourceExhausted, "Too many login attempts. Try again later.")
	}
	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Info(ctx, "rpc", "method", info.FullMethod, "code", status.Code(err).String(), "latency", time.Since(start))
	return resp, err
}
