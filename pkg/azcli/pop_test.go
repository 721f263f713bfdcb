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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okteto/clusterconnect/pkg/clientproxy"
	"github.com/okteto/clusterconnect/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServicePrincipalPoPToken(t *testing.T) {
	expectedCnf, err := clientproxy.RequestConfirmation("kid-1")
	require.NoError(t, err)

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/tenant/oauth2/v2.0/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "sp-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "sp-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, constants.ServerAppScope, r.PostForm.Get("scope"))
		assert.Equal(t, "pop", r.PostForm.Get("token_type"))
		assert.Equal(t, "kid-1", r.PostForm.Get("key_id"))
		assert.Equal(t, expectedCnf, r.PostForm.Get("req_cnf"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "pop-token",
			"token_type":   "pop",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	a := &PoPTokenAcquirer{
		httpClient:    server.Client(),
		authorityHost: server.URL + "/",
		clientID:      "sp-id",
		clientSecret:  "sp-secret",
	}
	token, err := a.AcquirePoPToken(context.Background(), "tenant", "kid-1")
	require.NoError(t, err)
	assert.Equal(t, "pop-token", token.AccessToken)
	assert.False(t, token.Expiry.IsZero())
	assert.Equal(t, 1, requests)
}

func TestServicePrincipalPoPTokenRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"AADSTS7000215: Invalid client secret provided."}`))
	}))
	defer server.Close()

	a := &PoPTokenAcquirer{
		httpClient:    server.Client(),
		authorityHost: server.URL,
		clientID:      "sp-id",
		clientSecret:  "wrong",
	}
	_, err := a.AcquirePoPToken(context.Background(), "tenant", "kid-1")
	require.ErrorContains(t, err, "sp-id")
}

func TestUserPoPToken(t *testing.T) {
	e := &fakeExecutor{out: []byte(`{"accessToken":"user-token","expires_on":1704103200,"tokenType":"Bearer"}`)}
	a := &PoPTokenAcquirer{exec: e}

	token, err := a.AcquirePoPToken(context.Background(), "tenant", "kid-1")
	require.NoError(t, err)
	assert.Equal(t, "user-token", token.AccessToken)
	assert.Equal(t, []string{"account", "get-access-token", "--output", "json", "--scope", constants.ServerAppScope, "--tenant", "tenant"}, e.args)
}

func TestUserPoPTokenIgnoresKid(t *testing.T) {
	e := &fakeExecutor{out: []byte(`{"accessToken":"user-token","expires_on":1704103200,"tokenType":"Bearer"}`)}
	a := &PoPTokenAcquirer{exec: e}

	first, err := a.AcquirePoPToken(context.Background(), "tenant", "kid-1")
	require.NoError(t, err)
	firstArgs := e.args

	rotated, err := a.AcquirePoPToken(context.Background(), "tenant", "kid-2")
	require.NoError(t, err)
	assert.Equal(t, firstArgs, e.args)
	assert.Equal(t, first.AccessToken, rotated.AccessToken)
	for _, arg := range e.args {
		assert.NotContains(t, arg, "kid")
	}
}
