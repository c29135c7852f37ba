package logsvc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/atuch/dojang/core"
)

// RollbarLogger writes structured lines through slog and reports them to Rollbar when enabled.
type RollbarLogger struct {
	std *slog.Logger
}

var (
	_ core.Logger = (*RollbarLogger)(nil)

	exitFunc = os.Exit // mockable
)

// NewStdLogger returns a slog.Logger tagged with component: JSON lines, or text lines in debug mode.
func NewStdLogger(w io.Writer, conf *core.Config, component string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if conf.Debug {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("component", component, "env", conf.Env)
}

func NewRollbarLogger(std *slog.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, core.Person
func (l RollbarLogger) prepare(msg string, args []interface{}) (rbArgs []interface{}, attrs []any) {
	var personSet bool
	rbArgs = make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case core.Person:
			// only set one Person
			if !personSet {
				rollbar.SetPerson(a.ID, a.Email, a.Email)
				attrs = append(attrs, slog.Group("person", "id", a.ID, "email", a.Email))
				personSet = true
			}
			continue
		case error:
			attrs = append(attrs, slog.String("error", fmt.Sprintf("%+v", a)))
		case map[string]interface{}:
			for k, v := range a {
				attrs = append(attrs, slog.Any(k, v))
			}
		default:
			attrs = append(attrs, slog.Any("arg", a))
		}
		rbArgs = append(rbArgs, arg)
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return rbArgs, attrs
}

func (l RollbarLogger) log(level slog.Level, msg string, attrs []any) {
	l.std.Log(context.Background(), level, msg, attrs...)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.log(slog.LevelDebug, msg, attrs)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.log(slog.LevelInfo, msg, attrs)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.log(slog.LevelWarn, msg, attrs)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.log(slog.LevelError, msg, attrs)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	l.log(slog.LevelError+4, msg, attrs)
	rollbar.Close()
	exitFunc(1)
}
