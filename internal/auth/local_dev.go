package auth

import (
	"context"

	"connectrpc.com/connect"
)

// LocalDevUserID is the caller every request runs as without real auth.
const LocalDevUserID = "local-dev-user"

// LocalDevInterceptor provides a mock user context for local development.
// Claims already set (by DebugAuthInterceptor) are left alone.
func LocalDevInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if isPublicEndpoint(req.Spec().Procedure) {
				return next(ctx, req)
			}
			if _, ok := GetUserClaims(ctx); !ok {
				ctx = withUserClaims(ctx, &UserClaims{
					UID:         LocalDevUserID,
					Email:       "dev@localhost",
					DisplayName: "Local Dev User",
					Verified:    true,
				})
			}
			return next(ctx, req)
		}
	}
}
