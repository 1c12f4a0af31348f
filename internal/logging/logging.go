package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Logger writes to stdout and, when a path is given, to an append-only file.
type Logger struct {
	*slog.Logger
	file *os.File
}

// New builds the process logger and installs it as the slog default. The
// stdlib log package is pointed at the same writers.
func New(level, path string) (*Logger, error) {
	writers := []io.Writer{os.Stdout}

	var file *os.File
	if path != "" {
		var err error
		file, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
	}

	w := io.MultiWriter(writers...)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	logger := slog.New(handler)

	slog.SetDefault(logger)
	log.SetOutput(w)

	return &Logger{Logger: logger, file: file}, nil
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
