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

package azcli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okteto/clusterconnect/pkg/clientproxy"
	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoHttp "github.com/okteto/clusterconnect/pkg/http"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// AuthorityHost is the default identity provider
	AuthorityHost = "https://login.microsoftonline.com"

	popTokenType    = "pop"
	identityTimeout = 60 * time.Second
)

// PoPTokenAcquirer returns the access tokens posted to the proxy, bound to its public key
type PoPTokenAcquirer struct {
	exec          CommandExecutor
	httpClient    *http.Client
	authorityHost string
	clientID      string
	clientSecret  string
}

// NewUserPoPTokenAcquirer returns the tokens of the user logged in the az CLI.
// The az CLI can't bind tokens to a key, so AcquirePoPToken ignores kid and the proxy receives
// a plain bearer token for the server application. Retrying after a public key rotation
// returns an equivalent token.
func NewUserPoPTokenAcquirer() *PoPTokenAcquirer {
	return &PoPTokenAcquirer{exec: &LocalExec{}}
}

// NewServicePrincipalPoPTokenAcquirer returns tokens requested with the service principal credentials
func NewServicePrincipalPoPTokenAcquirer(clientID, clientSecret string, ioCtrl *oktetoLog.IOController) *PoPTokenAcquirer {
	return &PoPTokenAcquirer{
		httpClient: &http.Client{
			Transport: oktetoLog.NewRequestLogger(oktetoHttp.StrictSSLTransport(nil), ioCtrl),
			Timeout:   identityTimeout,
		},
		authorityHost: AuthorityHost,
		clientID:      clientID,
		clientSecret:  clientSecret,
	}
}

// AcquirePoPToken returns a token for the proxy server application bound to kid.
// Tokens of az CLI users are not bound.
func (a *PoPTokenAcquirer) AcquirePoPToken(ctx context.Context, tenantID, kid string) (*oauth2.Token, error) {
	if a.clientID == "" {
		ts := &CLITokenSource{ctx: ctx, exec: a.exec, scope: constants.ServerAppScope, tenantID: tenantID}
		return ts.Token()
	}

	reqCnf, err := clientproxy.RequestConfirmation(kid)
	if err != nil {
		return nil, err
	}
	cfg := clientcredentials.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimSuffix(a.authorityHost, "/"), tenantID),
		Scopes:       []string{constants.ServerAppScope},
		EndpointParams: url.Values{
			"token_type": {popTokenType},
			"key_id":     {kid},
			"req_cnf":    {reqCnf},
		},
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if a.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	}
	token, err := cfg.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token for service principal '%s': %w", a.clientID, err)
	}
	return token, nil
}
