package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logLevel = log.DebugLevel

// sink lets package-level loggers created during init follow a later
// SetOutput call from main.
type sink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

var output = &sink{w: os.Stderr}

// SetOutput redirects every logger created by NewLogger.
func SetOutput(w io.Writer) {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.w = w
}

func SetLogLevel(level log.Level) {
	log.SetLevel(level)
}

// levelFromEnv maps ADDONUP_DEBUG to a level; unknown values keep the fallback.
func levelFromEnv(fallback log.Level) log.Level {
	value := strings.TrimSpace(os.Getenv("ADDONUP_DEBUG"))
	if value == "" {
		return fallback
	}
	level, err := log.ParseLevel(value)
	if err != nil {
		return fallback
	}
	return level
}

func NewLogger() *log.Logger {
	logLevel = levelFromEnv(log.ErrorLevel)
	return log.NewWithOptions(output, log.Options{
		Level:           logLevel,
		ReportTimestamp: true,
		Formatter:       log.JSONFormatter,
	})
}

// NewFileWriter returns a size-rotated log file writer.
func NewFileWriter(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}
