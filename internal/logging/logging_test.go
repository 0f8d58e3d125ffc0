package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	defer Set(nil)

	r := gin.New()
	r.Use(Middleware())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(http.ErrBodyNotAllowed)
		c.Status(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Message != "request completed" || entries[0].Level != zapcore.InfoLevel {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[0].ContextMap()["status"] != int64(http.StatusOK) {
		t.Errorf("unexpected status field: %v", entries[0].ContextMap()["status"])
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("expected warn for a request with errors, got %v", entries[1].Level)
	}
}

func TestInit(t *testing.T) {
	defer Set(nil)
	if err := Init(Config{Level: "debug", Format: "console", OutputPath: "stderr"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !L().Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}

	if err := Init(Config{Level: "bogus"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if L().Core().Enabled(zapcore.DebugLevel) {
		t.Error("unknown level should fall back to info")
	}
}
