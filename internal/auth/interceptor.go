package auth

import (
	"context"

	"connectrpc.com/connect"
)

// AuthInterceptor creates a Connect interceptor that verifies bearer tokens
func AuthInterceptor(verifier TokenVerifier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if isPublicEndpoint(req.Spec().Procedure) {
				return next(ctx, req)
			}

			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}

			token, err := ExtractTokenFromHeader(authHeader)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			claims, err := verifier.VerifyToken(ctx, token)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(withUserClaims(ctx, claims), req)
		}
	}
}

// DebugAuthInterceptor creates an interceptor that allows impersonation via header
// ONLY use this in development - never in production!
func DebugAuthInterceptor(skipAuth bool) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if skipAuth {
				if user := req.Header().Get("X-Debug-Impersonate-User"); user != "" {
					ctx = withUserClaims(ctx, &UserClaims{
						UID:   user,
						Email: user + "@debug.local",
					})
				}
			}
			return next(ctx, req)
		}
	}
}

// isPublicEndpoint checks if an endpoint should be accessible without authentication
func isPublicEndpoint(procedure string) bool {
	switch procedure {
	case "/health", "/ping", "/finsight.v1.AnalyticsService/Health":
		return true
	}
	return false
}

// Context keys
type contextKey string

const userClaimsKey contextKey = "user_claims"

func withUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

// WithUserClaims is the exported version for testing purposes
func WithUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return withUserClaims(ctx, claims)
}

// GetUserClaims extracts user claims from context
func GetUserClaims(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(userClaimsKey).(*UserClaims)
	return claims, ok
}

// GetUserID is a convenience function to get the user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	if claims, ok := GetUserClaims(ctx); ok {
		return claims.UID, true
	}
	return "", false
}
