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
	"io"
	"log/slog"
	"os"
)

// IOController manages the input and output of a proxy session.
// It is built once by the CLI and passed to every component that needs to talk to the user or log.
type IOController struct {
	in  *InputController
	out *OutputController
	*sessionLogger
}

// NewIOController returns a new input/output controller bound to the standard streams
func NewIOController() *IOController {
	return &IOController{
		out:           newOutputController(os.Stdout),
		in:            newInputController(os.Stdin, os.Stderr),
		sessionLogger: newSessionLogger(),
	}
}

// In is used to ask the user questions, like confirming a kubeconfig overwrite
func (ioc *IOController) In() *InputController {
	return ioc.in
}

// AskYesNo asks q to the user, decorated as a question for the current output format
func (ioc *IOController) AskYesNo(q string) (bool, error) {
	return ioc.in.AskYesNo(ioc.out.Question(q))
}

// Out is used for messages that are always shown to the user, regardless of the log level
func (ioc *IOController) Out() *OutputController {
	return ioc.out
}

// Logger returns the leveled logger. Messages below the configured level are discarded.
func (ioc *IOController) Logger() *slog.Logger {
	return ioc.sessionLogger.Logger
}

// SetOutputFormat sets the output format of both the logger and the user output,
// so json and tty messages are never mixed
func (ioc *IOController) SetOutputFormat(output string) {
	ioc.sessionLogger.SetOutputFormat(output)
	ioc.out.SetOutputFormat(output)
}

// SetCluster tags json messages with the connected cluster name
func (ioc *IOController) SetCluster(cluster string) {
	ioc.sessionLogger.SetCluster(cluster)
	ioc.out.SetCluster(cluster)
}

// ConfigureFileLogger sends every log message, at debug level, to a rotating file
func (ioc *IOController) ConfigureFileLogger(logPath string) {
	ioc.sessionLogger = newFileLogger(logPath)
}

// SetOutput redirects the user output to w
func (ioc *IOController) SetOutput(w io.Writer) {
	ioc.out.out = w
}
