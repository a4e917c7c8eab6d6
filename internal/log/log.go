package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvLevel names the environment variable consulted when no level is given.
const EnvLevel = "COVERAGE_DELTA_LOG"

// InitLogger installs the handler and sets the level. An empty level falls
// back to COVERAGE_DELTA_LOG, then to "info".
func InitLogger(level string, w io.Writer) {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if w == nil {
		w = os.Stderr
	}
	log.SetHandler(&Handler{w: w})
	log.SetLevel(ParseLevel(level))
}

// ParseLevel maps a level name to an apex level. Unknown names mean info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Handler writes "<timestamp> <level letter> <message> [fields]" lines.
// Reports usually go to stdout, so logs default to stderr.
type Handler struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// HandleLog implements the log.Handler interface
func (h *Handler) HandleLog(e *log.Entry) error {
	now := time.Now
	if h.now != nil {
		now = h.now
	}

	level := "?"
	switch e.Level {
	case log.DebugLevel:
		level = "D"
	case log.InfoLevel:
		level = "I"
	case log.WarnLevel:
		level = "W"
	case log.ErrorLevel:
		level = "E"
	case log.FatalLevel:
		level = "F"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", now().Format("2006-01-02 15:04:05"), level, e.Message)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// Debugf logs at Debug level.
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// Infof logs at Info level.
func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// Warnf logs at Warn level.
func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

// Errorf logs at Error level.
func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

// WithError returns an entry with error.
func WithError(err error) *log.Entry {
	return log.WithError(err)
}

// WithField returns an entry with a single field.
func WithField(key string, value interface{}) *log.Entry {
	return log.WithField(key, value)
}
