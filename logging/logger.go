package logging

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	logrus.FieldLogger
	SetLevel(level logrus.Level)
}

type logger struct {
	*logrus.Logger
}

func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return &logger{l}
}

type ctxKey int

const loggerCtxKey ctxKey = iota

func WithLogger(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

func LoggerFromContext(ctx context.Context) logrus.FieldLogger {
	if logger, ok := ctx.Value(loggerCtxKey).(logrus.FieldLogger); ok {
		return logger
	}
	return New()
}

// MaskAddress shortens a wallet address for log output, keeping the 0x-prefix
// with the first four and the last four hex characters.
func MaskAddress(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
