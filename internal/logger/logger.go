// Package logger configures the shared structured logger. Output is JSON so
// the ingestion pipeline's per-event failures stay greppable in aggregate.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields aliases logrus.Fields so callers don't import logrus directly.
type Fields = logrus.Fields

var global = newLogger()

func newLogger() *logrus.Logger {
	log := logrus.New()

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	if parsed, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(parsed)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	// LOG_FILE switches on rotating file output alongside stdout.
	if file := os.Getenv("LOG_FILE"); file != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}))
	}

	return log
}

// Get returns the process-wide logger.
func Get() *logrus.Logger {
	return global
}

// WithComponent returns an entry tagged with the originating component.
func WithComponent(component string) *logrus.Entry {
	return global.WithField("component", component)
}
