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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	oktetoHttp "github.com/okteto/clusterconnect/pkg/http"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
	"golang.org/x/oauth2"
)

const (
	armTimeout              = 60 * time.Second
	correlationHeader       = "x-ms-correlation-request-id"
	listCredentialsEndpoint = "listClusterUserCredential"
)

// ARMClient calls the control plane of connected clusters
type ARMClient struct {
	httpClient *http.Client
	endpoint   string
	ioCtrl     *oktetoLog.IOController
}

// NewARMClient returns a client that authenticates every request with a bearer token from ts
func NewARMClient(endpoint string, ts oauth2.TokenSource, ioCtrl *oktetoLog.IOController) *ARMClient {
	transport := &oauth2.Transport{
		Source: oauth2.ReuseTokenSource(nil, ts),
		Base:   oktetoLog.NewRequestLogger(oktetoHttp.StrictSSLTransport(nil), ioCtrl),
	}
	return &ARMClient{
		httpClient: &http.Client{Transport: transport, Timeout: armTimeout},
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		ioCtrl:     ioCtrl,
	}
}

// ListClusterUserCredential returns the hybrid connection details and the kubeconfig of the cluster.
// It is not retried.
func (c *ARMClient) ListClusterUserCredential(ctx context.Context, cluster ClusterID, authMethod string) (*CredentialResults, error) {
	fetchErr := func(statusCode int, err error) error {
		return &oktetoErrors.CredentialFetchError{Cluster: cluster.Name, StatusCode: statusCode, Err: err}
	}

	body, err := json.Marshal(listCredentialsRequest{AuthenticationMethod: authMethod, ClientProxy: true})
	if err != nil {
		return nil, fetchErr(0, err)
	}
	url := fmt.Sprintf("%s%s/%s?api-version=%s", c.endpoint, cluster.resourcePath(), listCredentialsEndpoint, constants.ConnectedClusterAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fetchErr(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(correlationHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fetchErr(0, fmt.Errorf("failed POST request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetchErr(resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fetchErr(resp.StatusCode, fmt.Errorf("POST request returned status %s: %s", resp.Status, strings.TrimSpace(string(respBody))))
	}

	result := &CredentialResults{}
	if err := json.Unmarshal(respBody, result); err != nil {
		return nil, fetchErr(resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	if result.HybridConnectionConfig == nil || len(result.Kubeconfigs) == 0 {
		return nil, fetchErr(resp.StatusCode, fmt.Errorf("response has no hybrid connection details"))
	}
	return result, nil
}
