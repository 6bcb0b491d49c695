// Package intercepters holds the unary interceptors of the gRPC report
// service.
package intercepters

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/atinyakov/go-unveil/internal/app/service"
	"github.com/atinyakov/go-unveil/internal/middleware"
)

// TokenMetadata is the metadata key of the JSON endpoint token.
const TokenMetadata = "x-api-token"

// WithAdmin verifies the bearer token in the "authorization" metadata and
// stores its claims in the context. Calls without a valid token continue
// anonymously.
func WithAdmin(auth service.AuthIface) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}

		if authHeader := md.Get("authorization"); len(authHeader) > 0 {
			raw := strings.TrimSpace(strings.TrimPrefix(authHeader[0], "Bearer "))
			if claims, err := auth.ParseRawJWT(raw); err == nil {
				ctx = context.WithValue(ctx, middleware.ClaimsKey, claims)
			}
		}

		return handler(ctx, req)
	}
}

// RequireToken admits calls that carry the configured token in the
// x-api-token metadata, or superuser claims. Others fail with
// PermissionDenied.
func RequireToken(token string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		var presented string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(TokenMetadata); len(v) > 0 {
				presented = v[0]
			}
		}

		if !middleware.TokenMatches(token, presented) && !middleware.IsElevated(ctx) {
			return nil, status.Error(codes.PermissionDenied, "Invalid or missing token.")
		}

		return handler(ctx, req)
	}
}
