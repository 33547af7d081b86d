package logging

import (
	"errors"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// New builds the service logger. When a Sentry DSN is configured, error and
// worse entries are also reported to Sentry.
func New(service string, cfg Config) *logrus.Entry {
	lg := logrus.New()
	lg.SetOutput(os.Stdout)
	if cfg.Format == "json" {
		lg.SetFormatter(&logrus.JSONFormatter{})
	} else {
		lg.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	lg.SetLevel(level)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, ServerName: service}); err != nil {
			lg.WithError(err).Warn("sentry init failed, continuing without it")
		} else {
			lg.AddHook(&sentryHook{})
		}
	}
	return lg.WithField("service", service)
}

// Flush waits for buffered Sentry events; call it before exit.
func Flush() {
	sentry.Flush(2 * time.Second)
}

// Recover reports a panic on the current goroutine to Sentry and re-panics.
// Use as `defer logging.Recover(log)`.
func Recover(log *logrus.Entry) {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)
		log.WithField("panic", r).Error("goroutine panicked")
		panic(r)
	}
}

type sentryHook struct{}

func (h *sentryHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *sentryHook) Fire(entry *logrus.Entry) error {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range entry.Data {
			if k == logrus.ErrorKey {
				continue
			}
			scope.SetExtra(k, v)
		}
	})
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
		hub.CaptureException(errors.Join(errors.New(entry.Message), err))
		return nil
	}
	hub.CaptureMessage(entry.Message)
	return nil
}
