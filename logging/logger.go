package logging

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	WithField(key string, value interface{}) Logger
	WithFields(fields logrus.Fields) Logger
	WithError(err error) Logger
	SetLevel(level logrus.Level)

	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

type entryLogger struct {
	*logrus.Entry
}

func New() Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return &entryLogger{logrus.NewEntry(logger)}
}

func (l *entryLogger) WithField(key string, value interface{}) Logger {
	return &entryLogger{l.Entry.WithField(key, value)}
}

func (l *entryLogger) WithFields(fields logrus.Fields) Logger {
	return &entryLogger{l.Entry.WithFields(fields)}
}

func (l *entryLogger) WithError(err error) Logger {
	return &entryLogger{l.Entry.WithError(err)}
}

func (l *entryLogger) SetLevel(level logrus.Level) {
	l.Entry.Logger.SetLevel(level)
}

type ctxKey struct{}

func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// LoggerFromContext returns the logger attached by WithLogger, or a fresh default logger.
func LoggerFromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return logger
	}
	return New()
}
