package logsvc

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

type SentryLogger struct {
	ZapLogger
	enabled bool
}

var _ core.Logger = (*SentryLogger)(nil)

// NewSentryLogger initializes the sentry client. Reporting stays off when no DSN is configured.
func NewSentryLogger(z *zap.Logger, conf *core.Config) (*SentryLogger, error) {
	l := &SentryLogger{ZapLogger: ZapLogger{z: z}}
	if conf.SentryDSN == "" {
		return l, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         conf.SentryDSN,
		Environment: conf.Env,
		Release:     conf.Build,
		ServerName:  conf.Server.Host,
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing sentry")
	}
	l.enabled = !conf.Debug
	return l, nil
}

func (l *SentryLogger) Enable(enabled bool) {
	l.enabled = enabled && sentry.CurrentHub().Client() != nil
}

// Flush waits for buffered events to be sent.
func (l SentryLogger) Flush() {
	sentry.Flush(2 * time.Second)
}

func (l SentryLogger) capture(level sentry.Level, msg string, args []interface{}) {
	if !l.enabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		var err error
		for _, arg := range args {
			switch v := arg.(type) {
			case user.User:
				scope.SetUser(sentry.User{ID: userID(v), Username: v.Username, Email: v.Email})
			case error:
				if err == nil {
					err = v
				}
			case map[string]interface{}:
				scope.SetExtras(v)
			}
		}
		if err != nil {
			scope.SetExtra("message", msg)
			sentry.CaptureException(err)
			return
		}
		sentry.CaptureMessage(msg)
	})
}

func (l SentryLogger) Debug(msg string, args ...interface{}) {
	l.ZapLogger.Debug(msg, args...)
}

func (l SentryLogger) Info(msg string, args ...interface{}) {
	l.ZapLogger.Info(msg, args...)
}

func (l SentryLogger) Warn(msg string, args ...interface{}) {
	l.capture(sentry.LevelWarning, msg, args)
	l.ZapLogger.Warn(msg, args...)
}

func (l SentryLogger) Error(msg string, args ...interface{}) {
	l.capture(sentry.LevelError, msg, args)
	l.ZapLogger.Error(msg, args...)
}

func (l SentryLogger) Fatal(msg string, args ...interface{}) {
	l.capture(sentry.LevelFatal, msg, args)
	l.Flush()
	l.ZapLogger.Fatal(msg, args...)
}
