package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/go-unveil/internal/app/service"
)

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("I'm a teapot"))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = InjectClaims(req, &service.Claims{Username: "admin"})
	rec := httptest.NewRecorder()

	WithRequestLogging(logger)(handler).ServeHTTP(rec, req)

	resp := rec.Result()
	body, _ := io.ReadAll(resp.Body)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "I'm a teapot", string(body))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/test", fields["url"])
	assert.EqualValues(t, 418, fields["status"])
	assert.EqualValues(t, 12, fields["size"])
	assert.Equal(t, "admin", fields["user"])
	assert.Contains(t, fields, "duration")
	assert.Contains(t, fields, "remote")
}

func TestWithRequestLogging_ImplicitStatusAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	WithRequestLogging(logger)(ok).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	WithRequestLogging(logger)(failing).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, 2, logs.Len())
	assert.EqualValues(t, 200, logs.All()[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}
