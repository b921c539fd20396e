package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

// Logger is a global interface for bzzt loggers
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("BZZT_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Silent returns a logger that discards everything.
func Silent() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// WithUID returns entry tagged with component uid.
func WithUID(l *logrus.Logger, component, uid string) *logrus.Entry {
	return l.WithField(component, uid)
}
