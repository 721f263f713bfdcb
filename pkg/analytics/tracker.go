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

package analytics

import "time"

// ProxySessionMetadata describes a proxy session
type ProxySessionMetadata struct {
	Err      error
	AuthMode string
	Duration time.Duration
	Success  bool
}

// TrackProxyStart sends an event when the proxy starts listening
func (a *AnalyticsTracker) TrackProxyStart(authMode string, success bool) {
	a.TrackFn(proxyStartEvent, success, map[string]any{
		"authMode": authMode,
	})
}

// TrackProxyEnd sends an event when a proxy session ends
func (a *AnalyticsTracker) TrackProxyEnd(m ProxySessionMetadata) {
	props := map[string]any{
		"authMode": m.AuthMode,
		"duration": m.Duration.Seconds(),
	}
	if m.Err != nil {
		props["error"] = m.Err.Error()
	}
	a.TrackFn(proxyEndEvent, m.Success, props)
}

// TrackFault sends an event for a fault of the given type
func (a *AnalyticsTracker) TrackFault(faultType string, err error) {
	props := map[string]any{
		"faultType": faultType,
	}
	if err != nil {
		props["error"] = err.Error()
	}
	a.TrackFn(proxyFaultEvent, false, props)
}
