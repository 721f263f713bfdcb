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
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okteto/clusterconnect/pkg/analytics"
	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	"github.com/okteto/clusterconnect/pkg/kubeconfig"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
	"github.com/okteto/clusterconnect/pkg/refresh"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
)

const (
	// defaultAccessTokenLifetime is used when the identity provider doesn't report an expiry
	defaultAccessTokenLifetime = time.Hour

	publicKeyExpiredMessage = "public key expired"
)

// CredentialLister lists the user credentials of a connected cluster
type CredentialLister interface {
	ListClusterUserCredential(ctx context.Context, cluster ClusterID, authMethod string) (*CredentialResults, error)
}

// PoPTokenAcquirer returns an access token for the proxy server application, bound to the proxy key kid
type PoPTokenAcquirer interface {
	AcquirePoPToken(ctx context.Context, tenantID, kid string) (*oauth2.Token, error)
}

// FaultTracker records non fatal faults
type FaultTracker interface {
	TrackFault(faultType string, err error)
}

// Options are the session parameters the exchanges depend on
type Options struct {
	Cluster      ClusterID
	TenantID     string
	StaticToken  string
	InternalPort int
	ExternalPort int
}

// Result holds what a refresh obtained. Expiries are zero for the credentials that were not refreshed.
type Result struct {
	HCExpiry   time.Time
	ATExpiry   time.Time
	Kubeconfig []byte
}

// Client performs the hybrid connection and access token exchanges of a session
type Client struct {
	lister  CredentialLister
	tokens  PoPTokenAcquirer
	tracker FaultTracker
	proxy   *proxyClient
	clock   clock.PassiveClock
	ioCtrl  *oktetoLog.IOController
	opts    Options
}

// NewClient returns a client for the proxy listening on the ports of opts
func NewClient(opts Options, lister CredentialLister, tokens PoPTokenAcquirer, tracker FaultTracker, clk clock.PassiveClock, ioCtrl *oktetoLog.IOController) *Client {
	return &Client{
		lister:  lister,
		tokens:  tokens,
		tracker: tracker,
		proxy:   newProxyClient(opts.InternalPort, opts.ExternalPort, ioCtrl),
		clock:   clk,
		ioCtrl:  ioCtrl,
		opts:    opts,
	}
}

func (c *Client) authMethod() string {
	if c.opts.StaticToken != "" {
		return authMethodToken
	}
	return authMethodAAD
}

// Refresh runs the exchanges action requires. On the first run the kubeconfig returned by the proxy is
// part of the result. When both credentials are needed the control plane call and the access token
// exchange run concurrently, the registration in the proxy waits for both.
func (c *Client) Refresh(ctx context.Context, action refresh.Action, firstRun bool) (*Result, error) {
	result := &Result{}
	if action == refresh.NoOp {
		return result, nil
	}

	var creds *CredentialResults
	g, gctx := errgroup.WithContext(ctx)
	if action.NeedsHC() {
		g.Go(func() error {
			var err error
			creds, err = c.lister.ListClusterUserCredential(gctx, c.opts.Cluster, c.authMethod())
			return err
		})
	}
	if action.NeedsAT() {
		g.Go(func() error {
			expiry, err := c.exchangeAccessToken(gctx)
			if err != nil {
				return err
			}
			result.ATExpiry = expiry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if action.NeedsHC() {
		if err := c.handoff(ctx, creds, firstRun, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// handoff registers the hybrid connection details in the proxy
func (c *Client) handoff(ctx context.Context, creds *CredentialResults, firstRun bool, result *Result) error {
	data := &CredentialResults{
		Kubeconfigs:            []Kubeconfig{{Name: proxyKubeconfigName, Value: creds.Kubeconfigs[0].Value}},
		HybridConnectionConfig: creds.HybridConnectionConfig,
	}
	if c.opts.StaticToken != "" {
		value, err := kubeconfig.InsertToken(data.Kubeconfigs[0].Value, c.opts.StaticToken)
		if err != nil {
			return &oktetoErrors.CredentialFetchError{Cluster: c.opts.Cluster.Name, Err: err}
		}
		data.Kubeconfigs[0].Value = value
	}

	registered, err := c.proxy.register(ctx, c.opts.Cluster, data)
	if err != nil {
		return err
	}
	result.HCExpiry = creds.HybridConnectionConfig.Expiry()
	c.ioCtrl.Logger().Debug("hybrid connection details registered", "expiry", result.HCExpiry)

	if firstRun {
		kc, err := registered.decodedKubeconfig()
		if err != nil {
			return fmt.Errorf("failed to load the kubeconfig returned by the proxy: %w", err)
		}
		result.Kubeconfig = kc
	}
	return nil
}

// exchangeAccessToken binds an access token to the current proxy key and hands it to the proxy.
// If the key was rotated in between, the exchange is retried once with the new key.
func (c *Client) exchangeAccessToken(ctx context.Context) (time.Time, error) {
	for attempt := 1; ; attempt++ {
		kid, err := c.proxy.popKid(ctx)
		if err != nil {
			return time.Time{}, &oktetoErrors.PoPBindingError{Err: fmt.Errorf("failed to fetch the proxy public key: %w", err)}
		}

		token, err := c.tokens.AcquirePoPToken(ctx, c.opts.TenantID, kid)
		if err != nil {
			return time.Time{}, &oktetoErrors.PoPBindingError{Err: fmt.Errorf("failed to acquire access token: %w", err)}
		}

		status, body, err := c.proxy.postAccessToken(ctx, identityRequest{
			AccessToken: token.AccessToken,
			ServerID:    constants.ServerAppID,
			TenantID:    c.opts.TenantID,
			Kid:         kid,
		})
		if err != nil {
			return time.Time{}, &oktetoErrors.PoPBindingError{Err: err}
		}
		if status == http.StatusOK {
			return c.expiry(token), nil
		}

		if !isPublicKeyExpired(status, body) {
			return time.Time{}, &oktetoErrors.PoPBindingError{StatusCode: status, Body: body}
		}
		if attempt > 1 {
			return time.Time{}, &oktetoErrors.PoPBindingError{StatusCode: status, Body: body, Err: oktetoErrors.ErrPublicKeyExpired}
		}
		c.ioCtrl.Logger().Debug("proxy public key was rotated, retrying", "kid", kid)
		c.tracker.TrackFault(analytics.PoPPublicKeyExpiredFault, fmt.Errorf("%w: %s", oktetoErrors.ErrPublicKeyExpired, body))
	}
}

func (c *Client) expiry(token *oauth2.Token) time.Time {
	if token.Expiry.IsZero() {
		return c.clock.Now().Add(defaultAccessTokenLifetime)
	}
	return token.Expiry
}

func isPublicKeyExpired(status int, body string) bool {
	return status == http.StatusInternalServerError && strings.Contains(body, publicKeyExpiredMessage)
}
