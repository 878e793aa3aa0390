package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const defaultLogFile = "nvim-bridge.log"

var (
	traceMu      sync.Mutex
	traceEnabled bool
	logPath      = defaultLogPath()
	output       io.Writer
	logger       *slog.Logger
)

func defaultLogPath() string {
	return filepath.Join(os.TempDir(), defaultLogFile)
}

// appendFile opens the log path for every write so several sessions can
// share one file without holding descriptors open.
type appendFile struct {
	path string
}

func (a appendFile) Write(p []byte) (int, error) {
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging failed: %v\n", err)
		return 0, err
	}
	defer f.Close()
	return f.Write(p)
}

func current() *slog.Logger {
	traceMu.Lock()
	defer traceMu.Unlock()
	if logger == nil {
		var w io.Writer = appendFile{path: logPath}
		if output != nil {
			w = output
		}
		logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return logger
}

// Error writes errors to the shared log file.
func Error(err error) {
	if err == nil {
		return
	}
	current().Error(err.Error())
}

// Warn records a non-fatal condition such as a protocol anomaly.
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Info records lifecycle messages that are always kept.
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// SetTraceEnabled toggles emission of structured trace entries.
func SetTraceEnabled(enabled bool) {
	traceMu.Lock()
	traceEnabled = enabled
	traceMu.Unlock()
}

// TraceEnabled reports whether Trace writes anything.
func TraceEnabled() bool {
	traceMu.Lock()
	defer traceMu.Unlock()
	return traceEnabled
}

// Trace appends a structured JSON entry to the shared log when tracing is enabled.
func Trace(event string, payload interface{}) {
	if !TraceEnabled() {
		return
	}
	if payload == nil {
		current().Debug(event)
		return
	}
	current().Debug(event, slog.Any("payload", payload))
}

// Configure sets the log destination. Empty values fall back to the default
// path. Directories are created automatically when missing.
func Configure(path string) {
	traceMu.Lock()
	defer traceMu.Unlock()
	logger = nil
	if strings.TrimSpace(path) == "" {
		logPath = defaultLogPath()
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "unable to create log directory: %v\n", err)
		logPath = defaultLogPath()
		return
	}
	logPath = path
}

// SetOutput redirects all log output to w. A nil writer restores the file
// destination. Intended for tests.
func SetOutput(w io.Writer) {
	traceMu.Lock()
	defer traceMu.Unlock()
	output = w
	logger = nil
}

// Writer returns an io.Writer that logs each written line at warn level
// tagged with source. It is used to capture the child's stderr.
func Writer(source string) io.Writer {
	return &lineWriter{source: source}
}

type lineWriter struct {
	mu     sync.Mutex
	source string
	buf    []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		idx := strings.IndexByte(string(w.buf), '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimRight(string(w.buf[:idx]), "\r")
		w.buf = w.buf[idx+1:]
		if line != "" {
			Warn("stderr", "source", w.source, "line", line)
		}
	}
	return len(p), nil
}
