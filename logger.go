package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogWriter struct {
	rotator *lumberjack.Logger
}

func newTextFormatter() *logrus.TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
}

// ConfigureStandardLogger gives the package-level logrus logger the same format as NewLogger,
// so lines written before the container is built look like the rest of the log.
func ConfigureStandardLogger() {
	logrus.SetFormatter(newTextFormatter())
	logrus.SetOutput(os.Stdout)
}

// NewLogger builds the process logger. Output always goes to stdout; LOG_FILE adds a rotating file.
// The log file and its directory are created on the first write.
func NewLogger(config *Config) (*logrus.Logger, *LogWriter) {
	logger := logrus.New()
	logger.SetFormatter(newTextFormatter())

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	writer := &LogWriter{}
	var out io.Writer = os.Stdout

	if config.LogFile != "" {
		writer.rotator = &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, writer.rotator)
	}
	logger.SetOutput(out)

	return logger, writer
}

func (w *LogWriter) Close() error {
	if w == nil || w.rotator == nil {
		return nil
	}
	return w.rotator.Close()
}
