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

	"github.com/fatih/color"
)

var (
	coloredSuccessSymbol     = color.New(color.BgGreen, color.FgBlack).Sprint(" ✓ ")
	coloredInformationSymbol = color.New(color.BgHiBlue, color.FgBlack).Sprint(" i ")
	coloredWarningSymbol     = color.New(color.BgHiYellow, color.FgBlack).Sprint(" ! ")
	coloredQuestionSymbol    = color.New(color.BgHiMagenta, color.FgBlack).Sprint(" ? ")
	coloredErrorSymbol       = color.New(color.BgHiRed, color.FgBlack).Sprint(" x ")

	greenString  = color.New(color.FgGreen).SprintfFunc()
	yellowString = color.New(color.FgHiYellow).SprintfFunc()
	blueString   = color.New(color.FgHiBlue).SprintfFunc()
	redString    = color.New(color.FgHiRed).SprintfFunc()
)

// decorator adds the symbol of each kind of message
type decorator interface {
	Success(string) string
	Information(string) string
	Question(string) string
	Warning(string) string
	Fail(string) string
}

type ttyDecorator struct{}

func (*ttyDecorator) Success(msg string) string {
	return fmt.Sprintf("%s %s\n", coloredSuccessSymbol, greenString(msg))
}

func (*ttyDecorator) Information(msg string) string {
	return fmt.Sprintf("%s %s\n", coloredInformationSymbol, blueString(msg))
}

func (*ttyDecorator) Question(msg string) string {
	return fmt.Sprintf("%s %s", coloredQuestionSymbol, color.MagentaString(msg))
}

func (*ttyDecorator) Warning(msg string) string {
	return fmt.Sprintf("%s %s\n", coloredWarningSymbol, yellowString(msg))
}

func (*ttyDecorator) Fail(msg string) string {
	return fmt.Sprintf("%s %s\n", coloredErrorSymbol, redString(msg))
}

type plainDecorator struct{}

func (*plainDecorator) Success(msg string) string {
	return fmt.Sprintf("SUCCESS: %s\n", msg)
}

func (*plainDecorator) Information(msg string) string {
	return fmt.Sprintf("INFO: %s\n", msg)
}

func (*plainDecorator) Question(msg string) string {
	return msg
}

func (*plainDecorator) Warning(msg string) string {
	return fmt.Sprintf("WARNING: %s\n", msg)
}

func (*plainDecorator) Fail(msg string) string {
	return fmt.Sprintf("ERROR: %s\n", msg)
}
