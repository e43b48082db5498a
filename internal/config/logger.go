package config

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogger configures the package level logrus logger. When a log file is
// configured the output is duplicated into a rotating file.
func SetupLogger(cfg LogConfig) {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stderr
	if file := strings.TrimSpace(cfg.File); file != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     28,
			Compress:   true,
		})
	}
	logrus.SetOutput(out)
}
