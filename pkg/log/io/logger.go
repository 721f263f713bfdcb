// Copyright 2024 The Okteto Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package io

import (
	"fmt"
	"log/slog"

	sloglogrus "github.com/samber/slog-logrus/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// JSONFormat represents a json logger
	JSONFormat string = "json"

	// PlainFormat represents a logger without colors nor spinners
	PlainFormat string = "plain"

	// TTYFormat represents the default interactive logger
	TTYFormat string = "tty"

	// DebugLevel is the debug level
	DebugLevel = "debug"

	// InfoLevel is the info level
	InfoLevel = "info"

	// WarnLevel is the warn level
	WarnLevel = "warn"

	// ErrorLevel is the error level
	ErrorLevel = "error"
)

var (
	// levelMap transforms a slog.Level to a logrus.Level
	levelMap = map[slog.Level]logrus.Level{
		slog.LevelDebug: logrus.DebugLevel,
		slog.LevelInfo:  logrus.InfoLevel,
		slog.LevelWarn:  logrus.WarnLevel,
		slog.LevelError: logrus.ErrorLevel,
	}

	// DefaultLogLevel is the default log level
	DefaultLogLevel = slog.LevelWarn
)

// sessionLogger records leveled messages. slog is the API, logrus does the formatting and writing.
type sessionLogger struct {
	*slog.Logger
	slogLeveler *slog.LevelVar

	logrusLogger    *logrus.Logger
	logrusFormatter logrus.Formatter
}

func newSessionLogger() *sessionLogger {
	leveler := new(slog.LevelVar)
	leveler.Set(DefaultLogLevel)

	logrusLogger := logrus.New()
	logrusLogger.SetLevel(levelMap[DefaultLogLevel])
	logrusFormatter := &logrus.TextFormatter{}
	logrusLogger.SetFormatter(logrusFormatter)

	return &sessionLogger{
		Logger:          slog.New(sloglogrus.Option{Level: leveler, Logger: logrusLogger}.NewLogrusHandler()),
		slogLeveler:     leveler,
		logrusLogger:    logrusLogger,
		logrusFormatter: logrusFormatter,
	}
}

// newFileLogger returns a debug logger that writes to a rotating file
func newFileLogger(logPath string) *sessionLogger {
	leveler := new(slog.LevelVar)
	leveler.Set(slog.LevelDebug)

	logrusLogger := logrus.New()
	logrusLogger.SetLevel(logrus.DebugLevel)
	logrusFormatter := &logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	}
	logrusLogger.SetFormatter(logrusFormatter)
	logrusLogger.SetOutput(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    1, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	})

	return &sessionLogger{
		Logger:          slog.New(sloglogrus.Option{Level: leveler, Logger: logrusLogger}.NewLogrusHandler()),
		slogLeveler:     leveler,
		logrusLogger:    logrusLogger,
		logrusFormatter: logrusFormatter,
	}
}

// SetLevel sets the level of the logger. Unknown levels are ignored.
func (sl *sessionLogger) SetLevel(lvl string) {
	slogLevel, err := parseLevel(lvl)
	if err != nil {
		return
	}
	sl.slogLeveler.Set(slogLevel)
	sl.logrusLogger.SetLevel(levelMap[slogLevel])
}

// SetOutputFormat sets the output format of the logger
func (sl *sessionLogger) SetOutputFormat(output string) {
	switch output {
	case JSONFormat:
		sl.logrusFormatter = newLogrusJSONFormatter()
	default:
		sl.logrusFormatter = &logrus.TextFormatter{}
	}
	sl.logrusLogger.SetFormatter(sl.logrusFormatter)
}

// SetCluster sets the cluster field of json messages
func (sl *sessionLogger) SetCluster(cluster string) {
	if v, ok := sl.logrusFormatter.(*logrusJSONFormatter); ok {
		v.SetCluster(cluster)
	}
}

// InvalidLogLevelError is returned when the log level is invalid
type InvalidLogLevelError struct {
	level string
}

// Error returns the error message
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level '%s'", e.level)
}

// ValidateLevel returns an error if lvl is not one of the supported levels
func ValidateLevel(lvl string) error {
	_, err := parseLevel(lvl)
	return err
}

func parseLevel(lvl string) (slog.Level, error) {
	switch lvl {
	case DebugLevel:
		return slog.LevelDebug, nil
	case InfoLevel:
		return slog.LevelInfo, nil
	case WarnLevel:
		return slog.LevelWarn, nil
	case ErrorLevel:
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, &InvalidLogLevelError{level: lvl}
	}
}
