package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileSink configures an optional rotating log file that receives the same
// events as stdout.
type FileSink struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// New builds the service logger. Development gets a console writer,
// everything else JSON.
func New(env string, sinks ...FileSink) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}

	writers := []io.Writer{out}
	for _, sink := range sinks {
		if sink.Path == "" {
			continue
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   sink.Path,
			MaxSize:    sink.MaxSizeMB,
			MaxBackups: sink.MaxBackups,
			Compress:   true,
		})
	}
	if len(writers) > 1 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	level := zerolog.InfoLevel
	if env == "development" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "cleaning-contracts").Logger()
}
