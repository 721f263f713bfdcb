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

import (
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/dukex/mixpanel"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
)

const (
	proxyStartEvent = "Proxy Start"
	proxyEndEvent   = "Proxy End"
	proxyFaultEvent = "Proxy Fault"

	machineIDApp = "clusterconnect"
)

// Fault types reported when a session fails
const (
	ProxyClosedExternallyFault     = "Proxy_Closed_Externally"
	GetCredentialsFailedFault      = "Get_Credentials_Failed"
	PostHybridConnFailedFault      = "Post_Hybridconn_Failed"
	PoPPublicKeyExpiredFault       = "PoP_Public_Key_Expired"
	PostATToClientProxyFailedFault = "Post_AT_To_ClientProxy_Failed"
	MergeKubeconfigFailedFault     = "Merge_Kubeconfig_Failed"
	RunClientProxyFailedFault      = "Run_Clientproxy_Failed"
	UnexpectedFault                = "Unexpected_Failure"
)

// TrackFunc sends an event
type TrackFunc func(event string, success bool, props map[string]any)

// AnalyticsTracker sends the usage events of proxy sessions
type AnalyticsTracker struct {
	TrackFn TrackFunc
}

// NewAnalyticsTracker returns a tracker that sends events to the mixpanel project of token.
// Events are only logged if token is empty or analytics are disabled.
func NewAnalyticsTracker(token, version string, disabled bool, ioCtrl *oktetoLog.IOController) *AnalyticsTracker {
	if token == "" || disabled {
		return &AnalyticsTracker{
			TrackFn: func(event string, _ bool, _ map[string]any) {
				ioCtrl.Logger().Debug("not sending event", "event", event)
			},
		}
	}

	c := &http.Client{
		Timeout: time.Second * 5,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
	client := mixpanel.NewFromClient(c, token, "")
	mid := getMachineID(ioCtrl)

	return &AnalyticsTracker{
		TrackFn: func(event string, success bool, props map[string]any) {
			if props == nil {
				props = map[string]any{}
			}
			props["$os"] = getOS(runtime.GOOS)
			props["version"] = version
			props["machine_id"] = mid
			props["success"] = success

			if err := client.Track(mid, event, &mixpanel.Event{Properties: props}); err != nil {
				ioCtrl.Logger().Info("failed to send analytics", "error", err)
			}
		},
	}
}

func getOS(goos string) string {
	switch goos {
	case "darwin":
		return "Mac OS X"
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	}
	return goos
}

func getMachineID(ioCtrl *oktetoLog.IOController) string {
	mid, err := machineid.ProtectedID(machineIDApp)
	if err != nil {
		ioCtrl.Logger().Debug("failed to generate a machine id", "error", err)
		return "na"
	}
	return mid
}
