// Package interceptors holds the unary interceptors shared by game services.
package interceptors

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/deception/internal/platform/errors"
	grpcmeta "github.com/louisbranch/deception/internal/services/game/api/grpc/metadata"
)

// ErrorInterceptor converts any error a handler returns into a localized gRPC
// status, so handlers can return domain errors unchanged.
func ErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, apperrors.HandleError(err, grpcmeta.LocaleFromContext(ctx))
		}
		return resp, nil
	}
}

// LoggingInterceptor writes one access log line per unary call. Client
// errors log at Info, server errors at Error.
func LoggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := codes.OK
		if err != nil {
			code = status.Code(err)
		}
		event := logger.Info()
		if serverFault(code) {
			event = logger.Error().Err(err)
		}
		event = event.
			Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Str("request_id", grpcmeta.RequestIDFromContext(ctx))
		if playerID := grpcmeta.PlayerIDFromContext(ctx); playerID != "" {
			event = event.Str("player_id", playerID)
		}
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			event = event.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
		}
		event.Msg("grpc call")
		return resp, err
	}
}

func serverFault(code codes.Code) bool {
	switch code {
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unimplemented:
		return true
	default:
		return false
	}
}
