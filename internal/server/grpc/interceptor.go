package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/api"
	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const identityKey ctxKey = "identity"

// publicMethods can be called without a session.
var publicMethods = map[string]bool{
	api.FullMethod(api.MethodPing):     true,
	api.FullMethod(api.MethodRegister): true,
	api.FullMethod(api.MethodLogin):    true,
	api.FullMethod(api.MethodLogout):   true,
}

func withIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller authenticated by the interceptor.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*models.Identity)
	return id, ok && id != nil
}

func metadataValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// accessTokenInterceptor authenticates every non-public call against the
// account's live session and stores the caller's identity in the context.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	accessToken := metadataValue(ctx, common.AccessTokenHeaderName)
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	id, err := s.svc.Sessions.Authenticate(ctx, accessToken, metadataValue(ctx, common.DeviceIDHeaderName))
	if err != nil {
		return nil, s.toStatus(ctx, info.FullMethod, err)
	}

	return handler(withIdentity(ctx, id), req)
}

// timeoutInterceptor bounds the whole call, store work included.
func (s *GRPCServer) timeoutInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.opts.StoreTimeout <= 0 {
		return handler(ctx, req)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return handler(ctx, req)
}

// metricsInterceptor counts calls by method and resulting status code.
func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	method := info.FullMethod[strings.LastIndex(info.FullMethod, "/")+1:]
	code := status.Code(err)
	s.metrics.ObserveRequest(method, code.String(), time.Since(start))
	if code != codes.OK {
		s.logger.Debug(ctx, "request failed", "method", method, "code", code.String())
	}
	return resp, err
}
