package intercepters_test

import (
	"context"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/atinyakov/go-unveil/internal/intercepters"
)

func TestInterceptorLogger_Levels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	il := intercepters.InterceptorLogger(zap.New(core))

	tests := []struct {
		name   string
		level  logging.Level
		fields []any
		want   zapcore.Level
		ctx    map[string]any
	}{
		{
			name:   "report slug and row count",
			level:  logging.LevelInfo,
			fields: []any{"report", "redirect", "rows", 6},
			want:   zap.InfoLevel,
			ctx:    map[string]any{"report": "redirect", "rows": int64(6)},
		},
		{
			name:   "elevated flag",
			level:  logging.LevelDebug,
			fields: []any{"superuser", true},
			want:   zap.DebugLevel,
			ctx:    map[string]any{"superuser": true},
		},
		{
			name:   "denied call",
			level:  logging.LevelWarn,
			fields: []any{"grpc.code", codes.PermissionDenied.String()},
			want:   zap.WarnLevel,
			ctx:    map[string]any{"grpc.code": "PermissionDenied"},
		},
		{
			name:  "store failure without fields",
			level: logging.LevelError,
			want:  zap.ErrorLevel,
			ctx:   map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			il.Log(context.Background(), tt.level, "report call", tt.fields...)

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Level)
			assert.Equal(t, "report call", entries[0].Message)
			assert.Equal(t, tt.ctx, entries[0].ContextMap())
		})
	}
}

func TestInterceptorLogger_OddFieldsDropTrailingKey(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	il := intercepters.InterceptorLogger(zap.New(core))

	il.Log(context.Background(), logging.LevelInfo, "list reports", "count", 13, "dangling")

	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]any{"count": int64(13)}, entries[0].ContextMap())
}

func TestInterceptorLogger_UnknownLevelPanics(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	il := intercepters.InterceptorLogger(zap.New(core))

	assert.Panics(t, func() {
		il.Log(context.Background(), logging.Level(999), "get report")
	})
}

func TestInterceptorLogger_ReportServiceCalls(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	interceptor := logging.UnaryServerInterceptor(
		intercepters.InterceptorLogger(zap.New(core)),
		logging.WithLogOnEvents(logging.FinishCall),
	)

	info := &grpc.UnaryServerInfo{FullMethod: "/unveil.v1.ReportService/GetReport"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	_, err = interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.PermissionDenied, "Invalid or missing token.")
	})
	require.Error(t, err)

	entries := logs.FilterMessage("finished call").All()
	require.Len(t, entries, 2)

	ok := entries[0].ContextMap()
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "unveil.v1.ReportService", ok["grpc.service"])
	assert.Equal(t, "GetReport", ok["grpc.method"])
	assert.Equal(t, "OK", ok["grpc.code"])

	denied := entries[1].ContextMap()
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "PermissionDenied", denied["grpc.code"])
}
