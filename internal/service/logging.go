package service

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/castlemilk/finsight/internal/auth"
	"github.com/castlemilk/finsight/internal/logger"
	"github.com/rs/zerolog"
)

// LoggingInterceptor attaches a request-scoped logger to the context and
// logs each call's outcome. Install it after the auth interceptors so the
// user id is known.
func LoggingInterceptor(log zerolog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			reqLog := log.With().Str("procedure", req.Spec().Procedure).Logger()
			if uid, ok := auth.GetUserID(ctx); ok {
				reqLog = reqLog.With().Str("user_id", uid).Logger()
			}
			ctx = logger.WithContext(ctx, reqLog)

			start := time.Now()
			resp, err := next(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				code := connect.CodeOf(err)
				ev := reqLog.Warn()
				if code == connect.CodeInternal || code == connect.CodeUnknown {
					ev = reqLog.Error()
				}
				ev.Err(err).Str("code", code.String()).Dur("duration", elapsed).Msg("request failed")
				return resp, err
			}
			reqLog.Debug().Dur("duration", elapsed).Msg("request served")
			return resp, nil
		}
	}
}
