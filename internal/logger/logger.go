package logger

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

type ctxKey string

// RequestIDKey is the context key under which the request id is stored
const RequestIDKey ctxKey = "requestId"

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
}

// Setup applies the configured level and output to the standard logger
func Setup(level string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	if out != nil {
		logrus.SetOutput(out)
	}
	return nil
}

// For returns a log entry carrying the request id stored in ctx, if any
func For(ctx context.Context) *logrus.Entry {
	id, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logrus.WithField("request_id", id)
}

// ContextWithID returns a copy of ctx carrying id, picked up by For
func ContextWithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Track logs the duration of an operation when the returned func is called
func Track(ctx context.Context, msg string) func() {
	start := time.Now()
	return func() {
		dur := time.Since(start)
		entry := For(ctx).WithField("duration", dur.String())
		if dur > 2*time.Second {
			entry.Warnf("%s completed (slow)", msg)
		} else {
			entry.Debugf("%s completed", msg)
		}
	}
}
