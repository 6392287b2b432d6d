package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// adminInterceptor lets through only calls carrying an ADMIN session token
// in the authorization metadata.
func (s *GRPCServer) adminInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AuthorizationHeaderName)
		if len(values) > 0 {
			accessToken, _ = strings.CutPrefix(values[0], common.BearerPrefix)
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	session, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}
	if session.Role != models.RoleAdmin {
		s.logger.Warn(ctx, "admin call refused", "method", info.FullMethod, "user_id", session.UserID)
		return nil, status.Error(codes.PermissionDenied, "admin role required")
	}

	return handler(auth.WithSession(ctx, session), req)
}

// WithToken returns a context that sends token as the caller's credentials.
func WithToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AuthorizationHeaderName, common.BearerPrefix+token)
}
