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
	"net/http"
	"net/url"
)

// RequestLogger is an http.RoundTripper that logs every request at debug level
type RequestLogger struct {
	next   http.RoundTripper
	logger *IOController
}

// NewRequestLogger wraps next so each request is logged through ioCtrl
func NewRequestLogger(next http.RoundTripper, ioCtrl *IOController) *RequestLogger {
	if next == nil {
		next = http.DefaultTransport
	}
	return &RequestLogger{next: next, logger: ioCtrl}
}

// RoundTrip implements http.RoundTripper
func (r *RequestLogger) RoundTrip(req *http.Request) (*http.Response, error) {
	reqURL := req.URL.Redacted()
	if decoded, err := url.QueryUnescape(reqURL); err == nil {
		reqURL = decoded
	}
	resp, err := r.next.RoundTrip(req)
	if err != nil {
		r.logger.Logger().Debug("request failed", "method", req.Method, "url", reqURL, "error", err)
		return nil, err
	}
	r.logger.Logger().Debug("request completed", "status", resp.StatusCode, "method", req.Method, "url", reqURL)
	return resp, nil
}
