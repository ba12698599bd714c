// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ava-labs/seglog/config"
)

const loggerName = "seglog"

// newLogger writes to stderr and, when a log directory is configured, to a
// rotated JSON file.
func newLogger(c *config.Config, stderr io.WriteCloser) (logging.Logger, error) {
	level, err := c.GetLogLevel()
	if err != nil {
		return nil, err
	}
	cores := []logging.WrappedCore{
		logging.NewWrappedCore(level, stderr, logging.Colors.ConsoleEncoder()),
	}
	if len(c.LogDir) > 0 {
		rw := &lumberjack.Logger{
			Filename:   filepath.Join(c.LogDir, loggerName+".log"),
			MaxSize:    c.LogMaxSize,  // megabytes
			MaxAge:     c.LogMaxAge,   // days
			MaxBackups: c.LogMaxFiles, // files
			Compress:   c.LogCompress,
		}
		cores = append(cores, logging.NewWrappedCore(level, rw, logging.JSON.FileEncoder()))
	}
	return logging.NewLogger(loggerName, cores...), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// stderrWriter keeps os.Stderr open when the logger stops.
func stderrWriter() io.WriteCloser {
	return nopCloser{Writer: os.Stderr}
}
