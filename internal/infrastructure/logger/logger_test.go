package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestNew_WritesRotatingFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	cfg := DefaultConfig()
	cfg.File = path
	cfg.MaxSizeMB = 1

	log, err := New(cfg)
	require.NoError(t, err)
	log.Info("campaign closed", zap.String("slug", "spring-run"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"slug":"spring-run"`)
}

func TestNew_TeesExtraCores(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := ProductionConfig()
	cfg.Extra = []zapcore.Core{core}

	log, err := New(cfg)
	require.NoError(t, err)
	log.Info("bridged")

	assert.Equal(t, 1, logs.FilterMessage("bridged").Len())
}

func TestContextHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx, _ := WithRequestID(context.Background(), base, "req-1")
	ctx = WithActor(ctx, "admin:42")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "admin:42", GetActor(ctx))
	assert.Empty(t, GetTraceID(ctx))

	L(ctx).Info("hello")
	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "admin:42", fields["actor"])

	assert.NotNil(t, FromContext(context.Background()))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("request_id", "abc"); c.Next() })
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/api/garments/:id", func(c *gin.Context) {
		assert.Equal(t, "abc", GetRequestID(c.Request.Context()))
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/garments/1?x=1", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "/api/garments/:id", entry.ContextMap()["route"])
	assert.Equal(t, "x=1", entry.ContextMap()["query"])
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)

	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"Internal server error"`)
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))

	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), sqlFn, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len(), "record not found is ignored")

	gl.Trace(context.Background(), time.Now(), sqlFn, errors.New("syntax error"))
	assert.Equal(t, 1, logs.FilterMessage("sql failed").Len())

	gl.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
	slow := logs.FilterMessage("slow sql").All()
	require.Len(t, slow, 1)
	assert.Equal(t, "SELECT 1", slow[0].ContextMap()["sql"])

	gl.Trace(context.Background(), time.Now(), sqlFn, nil)
	assert.Equal(t, 2, logs.Len(), "fast statements are below warn")

	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), sqlFn, errors.New("ignored"))
	assert.Equal(t, 2, logs.Len())
}

func TestGormLogger_RecordNotFoundOptIn(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Error, WithRecordNotFound(true))

	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-9")
	gl.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gormlogger.ErrRecordNotFound)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-9", logs.All()[0].ContextMap()["request_id"])
}

func TestNew_RedactsSensitiveFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := ProductionConfig()
	cfg.Extra = []zapcore.Core{core}

	log, err := New(cfg)
	require.NoError(t, err)
	log.With(zap.String("organizer_token", "eyJ.secret")).Info("campaign created",
		zap.String("slug", "spring-run"),
		zap.String("Password", "hunter22"),
	)

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "spring-run", fields["slug"])
	assert.Equal(t, redacted, fields["Password"])
	assert.Equal(t, redacted, fields["organizer_token"])
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
