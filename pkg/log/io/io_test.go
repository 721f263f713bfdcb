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
	"log/slog"
	"os"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIOControllerInitialisation(t *testing.T) {
	ioc := NewIOController()
	require.NotNil(t, ioc)
	require.Equal(t, os.Stdout, ioc.out.out)
	require.Equal(t, os.Stdin, ioc.in.in)
	require.IsType(t, &InputController{}, ioc.In())
	require.IsType(t, &OutputController{}, ioc.Out())
	require.IsType(t, &slog.Logger{}, ioc.Logger())
}

func TestSetLevel(t *testing.T) {
	ioc := NewIOController()
	assert.Equal(t, slog.LevelWarn, ioc.sessionLogger.slogLeveler.Level())

	ioc.SetLevel(DebugLevel)
	assert.Equal(t, slog.LevelDebug, ioc.sessionLogger.slogLeveler.Level())
	assert.Equal(t, logrus.DebugLevel, ioc.sessionLogger.logrusLogger.GetLevel())

	ioc.SetLevel("verbose")
	assert.Equal(t, slog.LevelDebug, ioc.sessionLogger.slogLeveler.Level())
}

func TestValidateLevel(t *testing.T) {
	assert.NoError(t, ValidateLevel(InfoLevel))
	err := ValidateLevel("verbose")
	var levelErr *InvalidLogLevelError
	require.ErrorAs(t, err, &levelErr)
	assert.Equal(t, "invalid log level 'verbose'", err.Error())
}

func TestSetOutputFormat(t *testing.T) {
	ioc := NewIOController()
	assert.IsType(t, &logrus.TextFormatter{}, ioc.sessionLogger.logrusFormatter)
	assert.IsType(t, &ttyFormatter{}, ioc.out.formatter)

	ioc.SetOutputFormat(PlainFormat)
	assert.IsType(t, &logrus.TextFormatter{}, ioc.sessionLogger.logrusFormatter)
	assert.IsType(t, &plainFormatter{}, ioc.out.formatter)

	ioc.SetOutputFormat(JSONFormat)
	assert.IsType(t, &logrusJSONFormatter{}, ioc.sessionLogger.logrusFormatter)
	assert.IsType(t, &jsonFormatter{}, ioc.out.formatter)
}

func TestSetCluster(t *testing.T) {
	ioc := NewIOController()
	ioc.SetCluster("ignored")
	ioc.SetOutputFormat(JSONFormat)
	ioc.SetCluster("my-cluster")

	assert.Equal(t, "my-cluster", ioc.sessionLogger.logrusFormatter.(*logrusJSONFormatter).cluster)
	assert.Equal(t, "my-cluster", ioc.out.formatter.(*jsonFormatter).logrusFormatter.cluster)
}

func TestAskYesNo(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		isTerminal bool
		runErr     error
		expected   bool
		expectErr  error
		label      string
	}{
		{name: "confirmed", format: PlainFormat, isTerminal: true, expected: true, label: "Overwrite"},
		{name: "rejected", format: PlainFormat, isTerminal: true, runErr: promptui.ErrAbort, label: "Overwrite"},
		{name: "interrupted", format: PlainFormat, isTerminal: true, runErr: promptui.ErrInterrupt, expectErr: promptui.ErrInterrupt, label: "Overwrite"},
		{name: "tty label is decorated", format: TTYFormat, isTerminal: true, expected: true, label: coloredQuestionSymbol},
		{name: "no terminal", format: PlainFormat, expectErr: ErrNoTTY},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ioc := NewIOController()
			ioc.SetOutputFormat(tt.format)
			var label string
			ioc.in.isTerminal = func() bool { return tt.isTerminal }
			ioc.in.run = func(p *promptui.Prompt) error {
				label, _ = p.Label.(string)
				assert.True(t, p.IsConfirm)
				return tt.runErr
			}

			ok, err := ioc.AskYesNo("Overwrite")
			if tt.expectErr != nil {
				require.ErrorIs(t, err, tt.expectErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, ok)
			assert.Contains(t, label, tt.label)
		})
	}
}
