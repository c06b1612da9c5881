package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultTimeFormatStr is the time format of every log line.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. It is the writing half of a `zapcore.Core`.
type Appender interface {
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync flushes buffered entries, e.g. at shutdown.
	Sync() error
}

// ConsoleAppender writes one tab separated line per entry:
//
//	<time>	<LEVEL>	<logger name>	<file:line>	<message>	<fields as json>
type ConsoleAppender struct {
	mu sync.Mutex
	io.Writer
}

// NewStdoutAppender returns an appender writing to stdout.
func NewStdoutAppender() *ConsoleAppender {
	return NewWriterAppender(os.Stdout)
}

// NewWriterAppender returns an appender writing to w.
func NewWriterAppender(w io.Writer) *ConsoleAppender {
	return &ConsoleAppender{Writer: w}
}

// FileAppenderOptions bound the size and age of a rotated log file. A zero MaxSizeMB means 100.
type FileAppenderOptions struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewFileAppender returns an appender writing to the log file at path, rotated once it reaches
// the configured size. The closer closes the current file.
func NewFileAppender(path string, opts FileAppenderOptions) (*ConsoleAppender, io.Closer) {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 100
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return NewWriterAppender(file), file
}

// Write appends the entry as a single line. Nothing is written when the fields cannot be encoded.
func (appender *ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatLine(entry, fields)
	if err != nil {
		return err
	}
	appender.mu.Lock()
	defer appender.mu.Unlock()
	_, err = io.WriteString(appender.Writer, line+"\n")
	return err
}

// Sync is a no-op.
func (appender *ConsoleAppender) Sync() error {
	return nil
}

// formatLine renders an entry as a tab separated line without a newline. On an encoding error the
// line is returned without the fields.
func formatLine(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	columns := []string{
		entry.Time.Format(DefaultTimeFormatStr),
		strings.ToUpper(entry.Level.String()),
		entry.LoggerName,
	}
	if entry.Caller.Defined {
		columns = append(columns, entry.Caller.TrimmedPath())
	}
	columns = append(columns, entry.Message)
	if len(fields) == 0 {
		return strings.Join(columns, "\t"), nil
	}

	// the json encoder keeps fields in the order they were logged
	encoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := encoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return strings.Join(columns, "\t"), err
	}
	defer buf.Free()
	return strings.Join(append(columns, buf.String()), "\t"), nil
}

// appenderCore adapts an Appender to a `zapcore.Core` for libraries that log through zap.
type appenderCore struct {
	Appender
	level  AtomicLevel
	fields []zapcore.Field
}

func (core *appenderCore) Enabled(level zapcore.Level) bool {
	return level >= core.level.Get().AsZap()
}

func (core *appenderCore) With(fields []zapcore.Field) zapcore.Core {
	return &appenderCore{
		Appender: core.Appender,
		level:    core.level,
		fields:   append(append([]zapcore.Field(nil), core.fields...), fields...),
	}
}

func (core *appenderCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !core.Enabled(entry.Level) {
		return checked
	}
	return checked.AddCore(entry, core)
}

func (core *appenderCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return core.Appender.Write(entry, append(append([]zapcore.Field(nil), core.fields...), fields...))
}
