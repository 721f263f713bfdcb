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

package http

import (
	"net/http"
	"time"
)

// StrictSSLHTTPClient returns an *http.Client with a StrictSSLTransport
func StrictSSLHTTPClient(opts *SSLTransportOption) *http.Client {
	client := &http.Client{
		Transport: StrictSSLTransport(opts),
	}
	if opts != nil {
		client.Timeout = opts.Timeout
	}
	return client
}

// LoopbackHTTPClient returns an *http.Client to talk to the local proxy
func LoopbackHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: LoopbackTransport(),
		Timeout:   timeout,
	}
}
