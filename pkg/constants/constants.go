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

package constants

import "time"

const (
	// ClusterConnectHomeEnvVar overrides the folder where logs and settings are stored
	ClusterConnectHomeEnvVar = "CLUSTERCONNECT_HOME"

	// KubeConfigEnvVar defines the path where kubeconfig is stored
	KubeConfigEnvVar = "KUBECONFIG"

	// MixpanelTokenEnvVar enables telemetry when set to a mixpanel project token
	MixpanelTokenEnvVar = "CLUSTERCONNECT_MIXPANEL_TOKEN"

	// ServicePrincipalIDEnvVar is the application id of the service principal sessions
	ServicePrincipalIDEnvVar = "AZURE_CLIENT_ID"

	// ServicePrincipalSecretEnvVar is the secret of the service principal sessions
	ServicePrincipalSecretEnvVar = "AZURE_CLIENT_SECRET"

	// StdoutKubeconfigPath prints the kubeconfig instead of merging it into a file
	StdoutKubeconfigPath = "-"

	// ClientProxyPort is the port the proxy uses internally to receive the hybrid connection details
	ClientProxyPort = 47010

	// APIServerPort is the default port kubectl talks to
	APIServerPort = 47011

	// RefreshMargin is how long before expiry a credential is refreshed
	RefreshMargin = 5 * time.Minute

	// PollInterval is the time between two liveness/refresh checks of a session
	PollInterval = 60 * time.Second

	// RegisterAttempts is the number of times the hybrid connection details are posted to the proxy
	RegisterAttempts = 5

	// RegisterAPIVersion is the api version of the proxy register endpoint
	RegisterAPIVersion = "2020-10-01"

	// ConnectedClusterAPIVersion is the control plane api version used to list the cluster user credentials
	ConnectedClusterAPIVersion = "2022-10-01-preview"

	// ARMEndpoint is the default control plane endpoint
	ARMEndpoint = "https://management.azure.com"

	// ARMScope is the scope requested for control plane tokens
	ARMScope = "https://management.azure.com/.default"

	// ServerAppID is the first party application the proxy access tokens are issued for
	ServerAppID = "6256c85f-0aad-4d50-b960-e6e9b21efe35"

	// ServerAppScope is the scope requested for proxy access tokens
	ServerAppScope = ServerAppID + "/.default"

	// ClientAppID is the first party application users sign in with
	ClientAppID = "04b07795-8ddb-461a-bbee-02f9e1bf7b46"

	// ClientProxyVersion is the version of the proxy executable
	ClientProxyVersion = "1.3.022011"

	// ClientProxyStorageURL is where the proxy executables are published
	ClientProxyStorageURL = "https://k8sconnectcsp.azureedge.net"

	// ClientProxyReleaseDateWindows is the release folder of the windows executable
	ClientProxyReleaseDateWindows = "release12-01-22"

	// ClientProxyReleaseDateLinux is the release folder of the linux and darwin executables
	ClientProxyReleaseDateLinux = "release12-01-22"
)
