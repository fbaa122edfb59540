package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fitlog/apiserver/internal/handlers"
	"github.com/fitlog/apiserver/internal/logger"
)

func TestRequestLoggerCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	var seenID string
	r := chi.NewRouter()
	r.Use(middleware.RequestID, handlers.RequestLogger(logger.FromZap(zap.New(core))))
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		seenID, _ = logger.GetRequestID(r.Context())
		logger.Log(r.Context()).Info(r.Context(), "inside handler")
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-42", seenID)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "inside handler", entries[0].Message)
	assert.Equal(t, "req-42", entries[0].ContextMap()[logger.RequestID])

	done := entries[1]
	assert.Equal(t, "request completed", done.Message)
	assert.EqualValues(t, http.StatusTeapot, done.ContextMap()["status"])
	assert.Equal(t, "/ping", done.ContextMap()["path"])
}

func TestRequestLoggerReportsServerErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(handlers.RequestLogger(logger.FromZap(zap.New(core))))
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestMetricsPassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(handlers.Metrics)
	r.Get("/api/users/{userID}/logs", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/abc/logs", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
