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

	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	oktetoHttp "github.com/okteto/clusterconnect/pkg/http"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
)

const (
	proxyTimeout     = 30 * time.Second
	popPublicKeyPath = "/identity/poppublickey"
	identityPath     = "/identity/at"
	registerEndpoint = "register"
)

// proxyClient talks to the local proxy over loopback
type proxyClient struct {
	httpClient *http.Client
	ioCtrl     *oktetoLog.IOController

	// internalURL receives the hybrid connection details
	internalURL string
	// externalURL is the kubectl facing endpoint, it also serves the identity api
	externalURL string

	registerAttempts int
}

func newProxyClient(internalPort, externalPort int, ioCtrl *oktetoLog.IOController) *proxyClient {
	return &proxyClient{
		httpClient:       &http.Client{Transport: oktetoLog.NewRequestLogger(oktetoHttp.LoopbackTransport(), ioCtrl), Timeout: proxyTimeout},
		ioCtrl:           ioCtrl,
		internalURL:      fmt.Sprintf("http://localhost:%d", internalPort),
		externalURL:      fmt.Sprintf("https://localhost:%d", externalPort),
		registerAttempts: constants.RegisterAttempts,
	}
}

// register posts the hybrid connection details to the proxy. Failed attempts are retried right away,
// the proxy runs on the same host.
func (c *proxyClient) register(ctx context.Context, cluster ClusterID, data *CredentialResults) (*CredentialResults, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, &oktetoErrors.ProxyHandoffError{Err: err}
	}
	url := fmt.Sprintf("%s%s/%s?api-version=%s", c.internalURL, cluster.resourcePath(), registerEndpoint, constants.RegisterAPIVersion)

	var lastErr error
	for attempt := 1; attempt <= c.registerAttempts; attempt++ {
		result, err := c.registerOnce(ctx, url, body)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.ioCtrl.Logger().Debug("failed to register hybrid connection details", "attempt", attempt, "error", err)
		lastErr = err
	}
	return nil, &oktetoErrors.ProxyHandoffError{Attempts: c.registerAttempts, Err: lastErr}
}

func (c *proxyClient) registerOnce(ctx context.Context, url string, body []byte) (*CredentialResults, error) {
	status, respBody, err := c.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("POST request returned status %d: %s", status, respBody)
	}
	result := &CredentialResults{}
	if err := json.Unmarshal([]byte(respBody), result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal register response: %w", err)
	}
	return result, nil
}

// popKid returns the id of the proof-of-possession key the proxy currently holds
func (c *proxyClient) popKid(ctx context.Context) (string, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.externalURL+popPublicKeyPath, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("GET request returned status %d: %s", status, body)
	}
	resp := popPublicKeyResponse{}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal public key response: %w", err)
	}
	if resp.PublicKey.Kid == "" {
		return "", fmt.Errorf("public key response has no kid")
	}
	return resp.PublicKey.Kid, nil
}

// postAccessToken hands a proof-of-possession access token to the proxy.
// Non 200 responses are not errors, the caller decides based on the status and body.
func (c *proxyClient) postAccessToken(ctx context.Context, identity identityRequest) (int, string, error) {
	body, err := json.Marshal(identity)
	if err != nil {
		return 0, "", err
	}
	return c.do(ctx, http.MethodPost, c.externalURL+identityPath, body)
}

func (c *proxyClient) do(ctx context.Context, method, url string, body []byte) (int, string, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, "", err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed %s request: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, strings.TrimSpace(string(respBody)), nil
}
