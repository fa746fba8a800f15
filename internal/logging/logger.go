package logging

import (
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

// LogFileName is the name of the current log file inside the log directory
const LogFileName = "storyviewer.log"

const timestampFormat = "2006-01-02 15:04:05.000 Z07:00"

type utcFormatter struct {
	logrus.Formatter
}

func (f utcFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Time = entry.Time.UTC()
	return f.Formatter.Format(entry)
}

// NewFormatter returns the UTC line formatter used on stdout and in files
func NewFormatter(json bool) logrus.Formatter {
	if json {
		return &utcFormatter{&logrus.JSONFormatter{TimestampFormat: timestampFormat}}
	}
	return &utcFormatter{&logrus.TextFormatter{
		TimestampFormat:  timestampFormat,
		FullTimestamp:    true,
		DisableColors:    true,
		QuoteEmptyFields: true,
	}}
}

// Setup configures the standard logrus logger. An empty dir or "-" logs to
// stdout only; otherwise a daily rotated file is kept for two weeks.
func Setup(dir string, level string, json bool) error {
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)

	formatter := NewFormatter(json)
	logrus.SetFormatter(formatter)
	logrus.SetOutput(os.Stdout)

	if dir == "" || dir == "-" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	logFile := filepath.Join(dir, LogFileName)
	writer, err := rotatelogs.New(
		logFile+".%Y%m%d",
		rotatelogs.WithLinkName(logFile),
		rotatelogs.WithMaxAge((24*time.Hour)*14),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return err
	}

	logrus.AddHook(lfshook.NewHook(lfshook.WriterMap{
		logrus.DebugLevel: writer,
		logrus.InfoLevel:  writer,
		logrus.WarnLevel:  writer,
		logrus.ErrorLevel: writer,
		logrus.FatalLevel: writer,
		logrus.PanicLevel: writer,
	}, formatter))

	return nil
}

// Component returns an entry tagged with the component name. A nil base
// falls back to the standard logger.
func Component(base *logrus.Entry, name string) *logrus.Entry {
	if base == nil {
		base = logrus.NewEntry(logrus.StandardLogger())
	}
	return base.WithField("component", name)
}
