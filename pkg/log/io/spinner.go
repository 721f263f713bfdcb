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
	"os"
	"sync/atomic"
	"time"
	"unicode"

	sp "github.com/briandowns/spinner"
	"golang.org/x/term"
)

const (
	spinnerAndWhitespaceCharCount = 2
	minimumWidthToTrimSpinnerMsg  = 4
	charsToRemoveForThreeDots     = 5
)

// Spinner shows that a long operation is in progress
type Spinner interface {
	Start()
	Stop()

	getMessage() string
	isActive() bool
}

type ttySpinner struct {
	*sp.Spinner

	message          string
	getTerminalWidth func() (int, error)
}

func newTTYSpinner(message string) *ttySpinner {
	spinner := sp.New(sp.CharSets[14], 100*time.Millisecond, sp.WithHiddenCursor(true))
	s := &ttySpinner{
		Spinner:          spinner,
		message:          ucFirst(message),
		getTerminalWidth: getTerminalWidth,
	}
	spinner.PreUpdate = s.preUpdateFunc()
	return s
}

func (s *ttySpinner) getMessage() string {
	return s.message
}

func (s *ttySpinner) isActive() bool {
	return s.Spinner.Active()
}

func (s *ttySpinner) preUpdateFunc() func(spinner *sp.Spinner) {
	return func(spinner *sp.Spinner) {
		width, err := s.getTerminalWidth()
		if err != nil {
			spinner.Suffix = " " + s.message
			return
		}
		spinner.Suffix = " " + s.calculateSuffix(width)
	}
}

func getTerminalWidth() (int, error) {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, err
	}
	return width, nil
}

func (s *ttySpinner) calculateSuffix(width int) string {
	if width > minimumWidthToTrimSpinnerMsg && len(s.message)+spinnerAndWhitespaceCharCount > width {
		return s.message[:width-charsToRemoveForThreeDots] + "..."
	}
	return s.message
}

// noSpinner prints the message once, for plain and json outputs
type noSpinner struct {
	oc     *OutputController
	msg    string
	active atomic.Bool
}

func newNoSpinner(msg string, oc *OutputController) *noSpinner {
	return &noSpinner{
		msg: ucFirst(msg),
		oc:  oc,
	}
}

func (s *noSpinner) Start() {
	if s.active.Swap(true) {
		return
	}
	b, err := s.oc.formatter.format(s.msg + "\n")
	if err != nil {
		return
	}
	s.oc.out.Write(b) //nolint:errcheck
}

func (s *noSpinner) Stop() {
	s.active.Store(false)
}

func (s *noSpinner) getMessage() string {
	return s.msg
}

// isActive is always false: a plain message never needs to be cleared before printing
func (*noSpinner) isActive() bool {
	return false
}

func ucFirst(str string) string {
	for i, v := range str {
		return string(unicode.ToUpper(v)) + str[i+1:]
	}
	return ""
}
