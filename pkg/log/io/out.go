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
	"io"
	"os"
	"strconv"
	"strings"
)

// DisableSpinnerEnvVar if true the spinner is never shown
const DisableSpinnerEnvVar = "CLUSTERCONNECT_DISABLE_SPINNER"

// OutputController prints the messages addressed to the user
type OutputController struct {
	out io.Writer

	formatter formatter
	decorator decorator

	spinner Spinner
}

func newOutputController(out io.Writer) *OutputController {
	return &OutputController{
		out:       out,
		formatter: &ttyFormatter{},
		decorator: &ttyDecorator{},
	}
}

// SetOutputFormat sets the output format
func (oc *OutputController) SetOutputFormat(output string) {
	switch output {
	case PlainFormat:
		oc.formatter = &plainFormatter{}
		oc.decorator = &plainDecorator{}
	case JSONFormat:
		oc.formatter = newJSONFormatter()
		oc.decorator = &plainDecorator{}
	default:
		oc.formatter = &ttyFormatter{}
		oc.decorator = &ttyDecorator{}
	}
}

// SetCluster sets the cluster of json messages
func (oc *OutputController) SetCluster(cluster string) {
	if v, ok := oc.formatter.(*jsonFormatter); ok {
		v.SetCluster(cluster)
	}
}

// Println prints a line
func (oc *OutputController) Println(args ...any) {
	oc.print(fmt.Sprint(args...) + "\n")
}

// Printf prints a formatted message without adding a new line
func (oc *OutputController) Printf(format string, args ...any) {
	oc.print(fmt.Sprintf(format, args...))
}

// Infof prints an information message
func (oc *OutputController) Infof(format string, args ...any) {
	oc.print(oc.decorator.Information(fmt.Sprintf(format, args...)))
}

// Success prints a success message
func (oc *OutputController) Success(format string, args ...any) {
	oc.print(oc.decorator.Success(fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func (oc *OutputController) Warning(format string, args ...any) {
	oc.print(oc.decorator.Warning(fmt.Sprintf(format, args...)))
}

// Fail prints an error message
func (oc *OutputController) Fail(format string, args ...any) {
	oc.print(oc.decorator.Fail(fmt.Sprintf(format, args...)))
}

// Question returns q decorated as a question, for prompts
func (oc *OutputController) Question(q string) string {
	return oc.decorator.Question(q)
}

func (oc *OutputController) print(msg string) {
	b, err := oc.formatter.format(msg)
	if err != nil {
		return
	}
	if oc.spinner != nil && oc.spinner.isActive() {
		oc.spinner.Stop()
		defer oc.Spinner(oc.spinner.getMessage()).Start()
	}
	fmt.Fprint(oc.out, string(b))
}

// Raw writes b as is, skipping the formatter. It is used for documents meant to be piped, like a kubeconfig.
func (oc *OutputController) Raw(b []byte) {
	if oc.spinner != nil && oc.spinner.isActive() {
		oc.spinner.Stop()
		defer oc.Spinner(oc.spinner.getMessage()).Start()
	}
	oc.out.Write(b) //nolint:errcheck
}

// Spinner returns the spinner for msg, stopping any other spinner that was running
func (oc *OutputController) Spinner(msg string) Spinner {
	if oc.spinner != nil {
		if oc.spinner.getMessage() == ucFirst(msg) {
			return oc.spinner
		}
		oc.spinner.Stop()
	}

	disabled, _ := strconv.ParseBool(os.Getenv(DisableSpinnerEnvVar))
	if _, isTTY := oc.formatter.(*ttyFormatter); isTTY && !disabled {
		oc.spinner = newTTYSpinner(msg)
	} else {
		oc.spinner = newNoSpinner(msg, oc)
	}
	return oc.spinner
}

// Write implements io.Writer so the output can be handed to other writers
func (oc *OutputController) Write(p []byte) (int, error) {
	msg := string(p)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	b, err := oc.formatter.format(msg)
	if err != nil {
		return 0, err
	}
	if _, err := oc.out.Write(b); err != nil {
		return 0, err
	}
	return len(p), nil
}
