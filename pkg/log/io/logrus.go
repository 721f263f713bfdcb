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
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var errEmptyMsg = errors.New("empty message")

// jsonMessage is a single line of json output
type jsonMessage struct {
	Level     string `json:"level"`
	Cluster   string `json:"cluster,omitempty"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// logrusJSONFormatter is a logrus formatter that adds the cluster field
type logrusJSONFormatter struct {
	cluster string
	now     func() time.Time
}

func newLogrusJSONFormatter() *logrusJSONFormatter {
	return &logrusJSONFormatter{now: time.Now}
}

// SetCluster sets the cluster
func (f *logrusJSONFormatter) SetCluster(cluster string) {
	f.cluster = cluster
}

// Format formats the entry as a single json line
func (f *logrusJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry.Message == "" {
		return nil, errEmptyMsg
	}
	b, err := json.Marshal(&jsonMessage{
		Level:     strings.ToLower(entry.Level.String()),
		Cluster:   f.cluster,
		Message:   entry.Message,
		Timestamp: f.now().Unix(),
	})
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
