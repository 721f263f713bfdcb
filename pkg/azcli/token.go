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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// expiresOnLayout is the local time layout of the expiresOn field, used by az versions without expires_on
const expiresOnLayout = "2006-01-02 15:04:05.999999"

type accessToken struct {
	AccessToken string `json:"accessToken"`
	ExpiresOn   string `json:"expiresOn"`
	TokenType   string `json:"tokenType"`
	ExpiresOnTS int64  `json:"expires_on"`
}

// CLITokenSource returns the access tokens of the account logged in the az CLI
type CLITokenSource struct {
	ctx            context.Context
	exec           CommandExecutor
	resource       string
	scope          string
	tenantID       string
	subscriptionID string
}

// NewARMTokenSource returns the control plane tokens of the az CLI account.
// Tokens are cached until they expire.
func NewARMTokenSource(ctx context.Context, resource, tenantID, subscriptionID string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &CLITokenSource{
		ctx:            ctx,
		exec:           &LocalExec{},
		resource:       resource,
		tenantID:       tenantID,
		subscriptionID: subscriptionID,
	})
}

// Token runs 'az account get-access-token'
func (ts *CLITokenSource) Token() (*oauth2.Token, error) {
	return getAccessToken(ts.ctx, ts.exec, ts.args())
}

func (ts *CLITokenSource) args() []string {
	args := []string{"account", "get-access-token", "--output", "json"}
	switch {
	case ts.scope != "":
		args = append(args, "--scope", ts.scope)
	case ts.resource != "":
		args = append(args, "--resource", ts.resource)
	}
	// az doesn't accept both
	if ts.subscriptionID != "" {
		args = append(args, "--subscription", ts.subscriptionID)
	} else if ts.tenantID != "" {
		args = append(args, "--tenant", ts.tenantID)
	}
	return args
}

func getAccessToken(ctx context.Context, e CommandExecutor, args []string) (*oauth2.Token, error) {
	out, err := e.RunCommand(ctx, azBinary, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token from the az CLI: %w", err)
	}
	return parseAccessToken(out)
}

func parseAccessToken(out []byte) (*oauth2.Token, error) {
	at := accessToken{}
	if err := json.Unmarshal(out, &at); err != nil {
		return nil, fmt.Errorf("failed to parse az CLI access token: %w", err)
	}
	if at.AccessToken == "" {
		return nil, fmt.Errorf("az CLI returned an empty access token")
	}

	token := &oauth2.Token{
		AccessToken: at.AccessToken,
		TokenType:   at.TokenType,
	}
	switch {
	case at.ExpiresOnTS > 0:
		token.Expiry = time.Unix(at.ExpiresOnTS, 0)
	case at.ExpiresOn != "":
		expiry, err := time.ParseInLocation(expiresOnLayout, strings.TrimSpace(at.ExpiresOn), time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to parse access token expiry '%s': %w", at.ExpiresOn, err)
		}
		token.Expiry = expiry
	}
	return token, nil
}
