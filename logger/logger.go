package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log  = logrus.New()
	once sync.Once
)

// Options controls Init
type Options struct {
	Level string // logrus level name, defaults to info
	File  string // rotated log file written next to stdout; empty disables
	JSON  bool
}

// Init configures the process logger. Only the first call has effect.
func Init(opts Options) {
	once.Do(func() {
		level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			level = logrus.InfoLevel
		}
		log.SetLevel(level)

		if opts.JSON {
			log.SetFormatter(&logrus.JSONFormatter{})
		} else {
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		}

		var out io.Writer = os.Stdout
		if opts.File != "" {
			out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    50, // MB
				MaxBackups: 5,
				MaxAge:     14, // days
				Compress:   true,
			})
		}
		log.SetOutput(out)
	})
}

// Get returns the process logger
func Get() *logrus.Logger {
	return log
}

// Component returns an entry tagged with the component name
func Component(name string) *logrus.Entry {
	return log.WithField("component", name)
}
