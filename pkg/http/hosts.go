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
	"net"
	"net/url"
)

// HostSet is a set of host names, without port
type HostSet map[string]struct{}

// LoopbackHosts returns the names the local proxy can be reached at
func LoopbackHosts() HostSet {
	return HostSet{
		"localhost": {},
		"127.0.0.1": {},
		"::1":       {},
	}
}

// Contains returns true if the host of a "host:port" address is in the set
func (h HostSet) Contains(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	_, ok := h[host]
	return ok
}

// AppendURLs adds the host of every valid url
func (h HostSet) AppendURLs(urls ...string) {
	for _, u := range urls {
		up, err := url.Parse(u)
		if err != nil {
			continue
		}
		if up.Hostname() == "" {
			continue
		}
		h[up.Hostname()] = struct{}{}
	}
}
