// Package logging builds the loggers used across hmp.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a prefixed logger writing to a size-rotated file, also mirrored
// to stderr when verbose is set. filePath may be empty for stderr-only.
func New(prefix, filePath string, verbose bool) *log.Logger {
	var writers []io.Writer
	if filePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	if verbose || filePath == "" {
		writers = append(writers, os.Stderr)
	}
	return log.New(io.MultiWriter(writers...), prefix, log.LstdFlags)
}

// Discard returns a logger that drops everything. Used by quiet commands and
// tests.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}
