package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/invoicely/internal/callercontext"
	obscontext "github.com/smallbiznis/invoicely/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	logs := observe(t)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = callercontext.WithCallerID(ctx, 7)
	FromContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "7", fields["caller_id"])
}

func TestWithContextOmitsAbsentFields(t *testing.T) {
	logs := observe(t)

	FromContext(context.Background()).Info("bare")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.NotContains(t, fields, "request_id")
	assert.NotContains(t, fields, "caller_id")
	assert.NotContains(t, fields, "trace_id")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "chatty"})
	require.Error(t, err)
}

func TestGormLoggerTraceLogsErrorsOnly(t *testing.T) {
	logs := observe(t)
	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Error})

	fc := func() (string, int64) { return "INSERT INTO invoices (id) VALUES (?)", 0 }
	l.Trace(context.Background(), time.Now(), fc, nil)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "gorm.query", entry.Message)
	assert.Equal(t, "INSERT", entry.ContextMap()["operation"])
}

func TestGormLoggerIgnoresRecordNotFound(t *testing.T) {
	logs := observe(t)
	l := NewGormLogger(DefaultGormLoggerConfig())

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.Equal(t, "DELETE", operationFromSQL("  delete from invoice_items"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}
