package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// testAppender sends lines to `tb.Log`, which ties each one to the test that logged it even when
// tests run in parallel.
type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender logging to tb.
func NewTestAppender(tb testing.TB) Appender {
	return &testAppender{tb}
}

func (tapp *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tapp.tb.Helper()
	line, err := formatLine(entry, fields)
	tapp.tb.Log(line)
	return err
}

func (tapp *testAppender) Sync() error {
	return nil
}
