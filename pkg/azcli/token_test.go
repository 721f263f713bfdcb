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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	err  error
	name string
	out  []byte
	args []string
}

func (e *fakeExecutor) RunCommand(_ context.Context, name string, arg ...string) ([]byte, error) {
	e.name = name
	e.args = arg
	return e.out, e.err
}

func TestCLITokenSourceArgs(t *testing.T) {
	tests := []struct {
		name     string
		ts       *CLITokenSource
		expected []string
	}{
		{
			name:     "resource and subscription",
			ts:       &CLITokenSource{resource: "https://management.azure.com", subscriptionID: "sub", tenantID: "tenant"},
			expected: []string{"account", "get-access-token", "--output", "json", "--resource", "https://management.azure.com", "--subscription", "sub"},
		},
		{
			name:     "scope and tenant",
			ts:       &CLITokenSource{scope: "app/.default", tenantID: "tenant"},
			expected: []string{"account", "get-access-token", "--output", "json", "--scope", "app/.default", "--tenant", "tenant"},
		},
		{
			name:     "default account",
			ts:       &CLITokenSource{resource: "https://management.azure.com"},
			expected: []string{"account", "get-access-token", "--output", "json", "--resource", "https://management.azure.com"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ts.args())
		})
	}
}

func TestCLITokenSourceToken(t *testing.T) {
	e := &fakeExecutor{out: []byte(`{"accessToken":"arm-token","expiresOn":"2024-01-01 10:00:00.000000","expires_on":1704103200,"tokenType":"Bearer"}`)}
	ts := &CLITokenSource{ctx: context.Background(), exec: e, resource: "https://management.azure.com"}

	token, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "az", e.name)
	assert.Equal(t, "arm-token", token.AccessToken)
	assert.Equal(t, "Bearer", token.Type())
	assert.Equal(t, time.Unix(1704103200, 0), token.Expiry)

	e.err = errors.New("Please run 'az login' to setup account.")
	_, err = ts.Token()
	require.ErrorContains(t, err, "az login")
}

func TestParseAccessToken(t *testing.T) {
	tests := []struct {
		expectedExpiry time.Time
		name           string
		out            string
		expectedErr    bool
	}{
		{
			name:           "unix expiry",
			out:            `{"accessToken":"t","expires_on":1704103200}`,
			expectedExpiry: time.Unix(1704103200, 0),
		},
		{
			name:           "local expiry",
			out:            `{"accessToken":"t","expiresOn":"2024-01-01 10:00:00.123456"}`,
			expectedExpiry: time.Date(2024, 1, 1, 10, 0, 0, 123456000, time.Local),
		},
		{
			name: "no expiry",
			out:  `{"accessToken":"t"}`,
		},
		{
			name:        "invalid expiry",
			out:         `{"accessToken":"t","expiresOn":"tomorrow"}`,
			expectedErr: true,
		},
		{
			name:        "empty token",
			out:         `{"expires_on":1704103200}`,
			expectedErr: true,
		},
		{
			name:        "not json",
			out:         `ERROR: not logged in`,
			expectedErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := parseAccessToken([]byte(tt.out))
			if tt.expectedErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "t", token.AccessToken)
			assert.True(t, tt.expectedExpiry.Equal(token.Expiry))
		})
	}
}
