package logging

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a leveled logger in the style of `zap.SugaredLogger`. The C-prefixed methods log
// regardless of the level when their context is in debug mode; see EnableDebugMode.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	CDebug(ctx context.Context, args ...interface{})
	CDebugf(ctx context.Context, template string, args ...interface{})
	CDebugw(ctx context.Context, msg string, keysAndValues ...interface{})

	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	CInfow(ctx context.Context, msg string, keysAndValues ...interface{})

	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<name>.<subname>" with the same appenders and a copy of
	// the level.
	Sublogger(subname string) Logger
	AddAppender(appender Appender)
	SetLevel(level Level)
	GetLevel() Level
	Sync() error
	AsZap() *zap.SugaredLogger
}

var errUnpairedKey = errors.New("unpaired log key")

type impl struct {
	name      string
	level     AtomicLevel
	inUTC     bool
	appenders []Appender
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return newImpl(name, imp.level.Get(), imp.inUTC, imp.appenders...)
}

func (imp *impl) Sync() error {
	var err error
	for _, appender := range imp.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	cores := make([]zapcore.Core, len(imp.appenders))
	for i, appender := range imp.appenders {
		if core, ok := appender.(zapcore.Core); ok {
			cores[i] = core
		} else {
			cores[i] = &appenderCore{Appender: appender, level: imp.level}
		}
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar().Named(imp.name)
}

func (imp *impl) enabled(ctx context.Context, level Level) bool {
	return level >= imp.level.Get() || IsDebugMode(ctx)
}

// emit is only called through logs, logf and logw, which keeps the caller four frames up.
func (imp *impl) emit(ctx context.Context, level Level, msg string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Message:    msg,
		Caller:     callerAt(4),
	}
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	if key := DebugKey(ctx); key != "" {
		fields = append(fields, zap.String("debug", key))
	}
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func (imp *impl) logs(ctx context.Context, level Level, args []interface{}) {
	if imp.enabled(ctx, level) {
		imp.emit(ctx, level, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) logf(ctx context.Context, level Level, template string, args []interface{}) {
	if imp.enabled(ctx, level) {
		imp.emit(ctx, level, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) logw(ctx context.Context, level Level, msg string, keysAndValues []interface{}) {
	if imp.enabled(ctx, level) {
		imp.emit(ctx, level, msg, toFields(keysAndValues))
	}
}

// toFields pairs up alternating keys and values. A trailing key gets an error value.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.NamedError(key, errUnpairedKey))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

// callerAt returns the frame skip levels above it, e.g. "logging/impl_test.go:36" once trimmed.
func callerAt(skip int) zapcore.EntryCaller {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.NewEntryCaller(pc, file, line, true)
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}

var noContext = context.Background()

func (imp *impl) Debug(args ...interface{}) { imp.logs(noContext, DEBUG, args) }

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.logf(noContext, DEBUG, template, args)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.logw(noContext, DEBUG, msg, keysAndValues)
}

func (imp *impl) CDebug(ctx context.Context, args ...interface{}) { imp.logs(ctx, DEBUG, args) }

func (imp *impl) CDebugf(ctx context.Context, template string, args ...interface{}) {
	imp.logf(ctx, DEBUG, template, args)
}

func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.logw(ctx, DEBUG, msg, keysAndValues)
}

func (imp *impl) Info(args ...interface{}) { imp.logs(noContext, INFO, args) }

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.logf(noContext, INFO, template, args)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.logw(noContext, INFO, msg, keysAndValues)
}

func (imp *impl) CInfow(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.logw(ctx, INFO, msg, keysAndValues)
}

func (imp *impl) Warn(args ...interface{}) { imp.logs(noContext, WARN, args) }

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.logf(noContext, WARN, template, args)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.logw(noContext, WARN, msg, keysAndValues)
}

func (imp *impl) Error(args ...interface{}) { imp.logs(noContext, ERROR, args) }

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.logf(noContext, ERROR, template, args)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.logw(noContext, ERROR, msg, keysAndValues)
}
