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

package clientproxy

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// authMethodToken is used when the session authenticates with a static service account token
	authMethodToken = "Token"
	// authMethodAAD is used for Entra ID users and service principals
	authMethodAAD = "AAD"

	proxyKubeconfigName = "Kubeconfig"
)

// ClusterID identifies a connected cluster resource
type ClusterID struct {
	SubscriptionID string
	ResourceGroup  string
	Name           string
}

func (c ClusterID) resourcePath() string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Kubernetes/connectedClusters/%s", c.SubscriptionID, c.ResourceGroup, c.Name)
}

// Kubeconfig is a base64 encoded kubeconfig document
type Kubeconfig struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

// HybridConnectionConfig holds the relay credential of the proxy
type HybridConnectionConfig struct {
	Relay                string `json:"relay"`
	HybridConnectionName string `json:"hybridConnectionName"`
	Token                string `json:"token"`
	ExpirationTime       int64  `json:"expirationTime"` // unix seconds
}

// Expiry returns the expiration time of the hybrid connection token
func (h *HybridConnectionConfig) Expiry() time.Time {
	return time.Unix(h.ExpirationTime, 0)
}

// CredentialResults is both the response of the control plane credential listing
// and the body registered in the proxy
type CredentialResults struct {
	HybridConnectionConfig *HybridConnectionConfig `json:"hybridConnectionConfig,omitempty"`
	Kubeconfigs            []Kubeconfig            `json:"kubeconfigs"`
}

// decodedKubeconfig returns the first kubeconfig of the results, decoded
func (r *CredentialResults) decodedKubeconfig() ([]byte, error) {
	if len(r.Kubeconfigs) == 0 {
		return nil, fmt.Errorf("no kubeconfig found in the response")
	}
	b, err := base64.StdEncoding.DecodeString(r.Kubeconfigs[0].Value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode kubeconfig: %w", err)
	}
	return b, nil
}

type listCredentialsRequest struct {
	AuthenticationMethod string `json:"authenticationMethod"`
	ClientProxy          bool   `json:"clientProxy"`
}

type popPublicKeyResponse struct {
	PublicKey struct {
		Kid string `json:"kid"`
	} `json:"publicKey"`
}

type identityRequest struct {
	AccessToken string `json:"accessToken"`
	ServerID    string `json:"serverId"`
	TenantID    string `json:"tenantID"`
	Kid         string `json:"kid"`
}

type requestConfirmation struct {
	Kid    string `json:"kid"`
	KeySrc string `json:"xms_ksl"`
}

// RequestConfirmation returns the "req_cnf" value that binds an access token to the proxy key kid
func RequestConfirmation(kid string) (string, error) {
	b, err := json.Marshal(requestConfirmation{Kid: kid, KeySrc: "sw"})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
