// Package logging configures the logger used by all azurekit clients and
// provides the operation-timing helper wrapped around every client call.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	azlog "github.com/Azure/azure-sdk-for-go/sdk/azcore/log"
	dbxlog "github.com/databricks/databricks-sdk-go/logger"
	log "github.com/sirupsen/logrus"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Options struct {
	Level   string
	Format  Format
	LogFile string
}

// New constructs a configured logger. The formatter is chosen once here;
// callers receive a plain FieldLogger and never branch on the backend.
func New(opts Options) (*log.Logger, error) {
	logger := log.New()

	level, err := log.ParseLevel(defaultString(opts.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	logger.SetLevel(level)

	switch opts.Format {
	case FormatJSON:
		logger.SetFormatter(&log.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		logger.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	out := []io.Writer{os.Stdout}
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out = append(out, f)
	}
	logger.SetOutput(io.MultiWriter(out...))

	quietSDKLoggers(logger)

	return logger, nil
}

// quietSDKLoggers tames the vendor SDKs' own logging. The Databricks SDK
// logs at info by default; hold it at warn. The Azure SDK emits nothing
// until a listener is set, so route its events through our logger at
// debug.
func quietSDKLoggers(logger *log.Logger) {
	dbxlog.DefaultLogger = &dbxlog.SimpleLogger{Level: dbxlog.LevelWarn}

	azlog.SetListener(func(event azlog.Event, msg string) {
		logger.WithField("sdk_event", string(event)).Debug(msg)
	})
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
