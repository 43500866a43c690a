package config

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
)

// NewLogger builds the process logger. Output goes to stderr so the MCP stdio
// transport keeps stdout to itself.
func NewLogger(cfg domain.LoggingConfig) *logrus.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg domain.LoggingConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
