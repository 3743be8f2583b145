package logsvc

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/shule/core/user"
)

// NewZap builds the local log sink: production config in PROD, development config elsewhere.
// Unknown levels fall back to info.
func NewZap(level, env string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var cfg zap.Config
	if strings.ToUpper(env) == "PROD" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build(zap.AddStacktrace(zap.ErrorLevel), zap.AddCallerSkip(1))
}

// zapFields turns logger args into structured fields.
// expected fmt: error, map[string]interface{}, user.User, or anything else
func zapFields(args []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case error:
			fields = append(fields, zap.Error(v))
		case map[string]interface{}:
			for k, val := range v {
				fields = append(fields, zap.Any(k, val))
			}
		case user.User:
			fields = append(fields, zap.Int64("user_id", v.ID), zap.String("username", v.Username))
		default:
			fields = append(fields, zap.Any("arg"+strconv.Itoa(i), v))
		}
	}
	return fields
}

// ZapLogger logs to zap only.
type ZapLogger struct {
	z *zap.Logger
}

func NewZapLogger(z *zap.Logger) *ZapLogger {
	return &ZapLogger{z: z}
}

func (l ZapLogger) Debug(msg string, args ...interface{}) { l.z.Debug(msg, zapFields(args)...) }
func (l ZapLogger) Info(msg string, args ...interface{})  { l.z.Info(msg, zapFields(args)...) }
func (l ZapLogger) Warn(msg string, args ...interface{})  { l.z.Warn(msg, zapFields(args)...) }
func (l ZapLogger) Error(msg string, args ...interface{}) { l.z.Error(msg, zapFields(args)...) }
func (l ZapLogger) Fatal(msg string, args ...interface{}) { l.z.Fatal(msg, zapFields(args)...) }

func (l ZapLogger) Sync() error { return l.z.Sync() }

func userID(usr user.User) string {
	return strconv.FormatInt(usr.ID, 10)
}
