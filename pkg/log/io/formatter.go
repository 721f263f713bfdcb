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
	"regexp"

	"github.com/sirupsen/logrus"
)

// formatter turns a user message into the bytes written to the output
type formatter interface {
	format(msg string) ([]byte, error)
}

type ttyFormatter struct{}

func (*ttyFormatter) format(msg string) ([]byte, error) {
	return []byte(msg), nil
}

// ansiPattern matches the terminal escape sequences added by the tty decorator
const ansiPattern = "[\u001B\u009B][[\\]()#;?]*(?:(?:(?:[a-zA-Z\\d]*(?:;[a-zA-Z\\d]*)*)?\u0007)|(?:(?:\\d{1,4}(?:;\\d{0,4})*)?[\\dA-PRZcf-ntqry=><~]))"

var ansiRegex = regexp.MustCompile(ansiPattern)

type plainFormatter struct{}

func (*plainFormatter) format(msg string) ([]byte, error) {
	return ansiRegex.ReplaceAll([]byte(msg), nil), nil
}

// jsonFormatter writes user messages with the same shape as the json logger
type jsonFormatter struct {
	logrusFormatter *logrusJSONFormatter
}

func newJSONFormatter() *jsonFormatter {
	return &jsonFormatter{logrusFormatter: newLogrusJSONFormatter()}
}

// SetCluster sets the cluster field of every message
func (f *jsonFormatter) SetCluster(cluster string) {
	f.logrusFormatter.SetCluster(cluster)
}

func (f *jsonFormatter) format(msg string) ([]byte, error) {
	return f.logrusFormatter.Format(&logrus.Entry{
		Message: ansiRegex.ReplaceAllString(msg, ""),
		Level:   logrus.InfoLevel,
	})
}
