package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.viam.com/test"
)

type armState struct {
	Name   string
	Joints []float64
}

func TestConsoleOutputFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := &impl{"impl", NewAtomicLevelAt(DEBUG), true, []Appender{NewWriterAppender(&buf)}}

	logger.Info("info message")
	line, err := buf.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	parts := strings.Split(strings.TrimSuffix(line, "\n"), "\t")
	test.That(t, parts, test.ShouldHaveLength, 5)
	test.That(t, len(parts[0]), test.ShouldEqual, len("2006-01-02T15:04:05.000Z"))
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "impl")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "info message")

	logger.Debugw("structured", "state", armState{"panda", []float64{0, 1}}, "attempt", 2)
	line, err = buf.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	parts = strings.Split(strings.TrimSuffix(line, "\n"), "\t")
	test.That(t, parts, test.ShouldHaveLength, 6)
	test.That(t, parts[4], test.ShouldEqual, "structured")

	fields := map[string]any{}
	test.That(t, json.Unmarshal([]byte(parts[5]), &fields), test.ShouldBeNil)
	test.That(t, fields["attempt"], test.ShouldEqual, 2.0)
	test.That(t, fields["state"], test.ShouldResemble, map[string]any{"Name": "panda", "Joints": []any{0.0, 1.0}})
}

func TestUnpairedKey(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Infow("odd", "lonely")
	entries := observed.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap()["lonely"], test.ShouldContainSubstring, "unpaired log key")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := &impl{"", NewAtomicLevelAt(WARN), true, []Appender{NewWriterAppender(&buf)}}

	logger.Debug("dropped")
	logger.Info("dropped")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Warn("kept")
	test.That(t, buf.String(), test.ShouldContainSubstring, "kept")

	buf.Reset()
	logger.CDebugf(EnableDebugMode(context.Background(), ""), "forced %d", 1)
	test.That(t, buf.String(), test.ShouldContainSubstring, "forced 1")

	logger.SetLevel(ERROR)
	buf.Reset()
	logger.Warn("dropped")
	test.That(t, buf.Len(), test.ShouldEqual, 0)
	test.That(t, logger.GetLevel(), test.ShouldEqual, ERROR)
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("graspplanning").Sublogger("retry")
	sub.Infof("trial %d", 1)

	entries := observed.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "graspplanning.retry")
	test.That(t, entries[0].Message, test.ShouldEqual, "trial 1")
}

func TestAsZap(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.AsZap().Infow("through zap", "k", "v")
	test.That(t, observed.FilterMessage("through zap").Len(), test.ShouldEqual, 1)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"warn"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
}

func TestDebugModeContext(t *testing.T) {
	ctx := context.Background()
	test.That(t, IsDebugMode(ctx), test.ShouldBeFalse)

	ctx = EnableDebugMode(ctx, "req-1")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, DebugKey(ctx), test.ShouldEqual, "req-1")

	test.That(t, DebugKey(EnableDebugMode(context.Background(), "")), test.ShouldHaveLength, 6)

	logger, observed := NewObservedTestLogger(t)
	logger.SetLevel(ERROR)
	logger.CDebugw(ctx, "tagged", "trial", 1)
	logger.CInfow(context.Background(), "dropped")
	entries := observed.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap(), test.ShouldResemble, map[string]interface{}{"trial": int64(1), "debug": "req-1"})
}
