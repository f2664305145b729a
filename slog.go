package fluffy

import (
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"os"
	"path/filepath"
)

const (
	logTimestampFormat = "2006-01-02 15:04:05"
	logfileMaxSizeMB   = 100
	logfileMaxBackups  = 5
	logfileMaxAgeDays  = 30
)

// SLogger is the fluffy internal logging interface. A *logrus.Logger implements this interface
type SLogger interface {
	Printf(format string, v ...interface{})

	Debugf(format string, v ...interface{})
}

// NewSLogger creates a new logger writing to w. Debug statements are only written when debug is
// true
func NewSLogger(w io.Writer, debug bool) (l *logrus.Logger) {
	l = logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: logTimestampFormat,
	})

	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	return l
}

// newRotatingLogfile returns a writer to path ('~' is expanded) that rotates by size
func newRotatingLogfile(path string) (w io.WriteCloser, err error) {
	fullPath, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to expand log file path [%s]", path)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create log directory for [%s]", fullPath)
	}

	return &lumberjack.Logger{
		Filename:   fullPath,
		MaxSize:    logfileMaxSizeMB,
		MaxBackups: logfileMaxBackups,
		MaxAge:     logfileMaxAgeDays,
		Compress:   true,
	}, nil
}

// writerOf returns a writer feeding into the logger when it supports it (as logrus does) or
// stdout otherwise. The closer is nil unless the writer must be closed once done
func writerOf(l SLogger) (w io.Writer, closer io.Closer) {
	if lw, ok := l.(interface{ Writer() *io.PipeWriter }); ok {
		pw := lw.Writer()
		return pw, pw
	}

	return os.Stdout, nil
}
