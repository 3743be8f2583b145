// Package logsvc provides the core.Logger implementations: zap for local output,
// with rollbar or sentry receiving warnings and errors.
package logsvc

import (
	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"

	"github.com/trezcool/shule/core"
)

// New builds the logger selected by conf.ErrorReporter (rollbar, sentry or none).
// The returned func flushes pending reports and must be called before exit.
func New(conf *core.Config) (core.Logger, func(), error) {
	z, err := NewZap(conf.LogLevel, conf.Env)
	if err != nil {
		return nil, nil, errors.Wrap(err, "building zap logger")
	}

	switch conf.ErrorReporter {
	case "sentry":
		l, err := NewSentryLogger(z, conf)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { l.Flush(); _ = z.Sync() }, nil
	case "none":
		return NewZapLogger(z), func() { _ = z.Sync() }, nil
	default:
		l := NewRollbarLogger(z, conf)
		l.Enable(!conf.Debug && conf.RollbarToken != "")
		return l, func() { rollbar.Wait(); _ = z.Sync() }, nil
	}
}
