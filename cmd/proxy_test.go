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

package cmd

import (
	"context"
	"testing"

	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
	"github.com/okteto/clusterconnect/pkg/refresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAuthMode(t *testing.T) {
	tests := []struct {
		name        string
		opts        proxyOptions
		expected    refresh.AuthMode
		expectedErr bool
	}{
		{
			name:     "token wins",
			opts:     proxyOptions{token: "sa-token", authMode: "servicePrincipal"},
			expected: refresh.ServiceAccountToken,
		},
		{
			name:     "user",
			opts:     proxyOptions{authMode: "user"},
			expected: refresh.AADUser,
		},
		{
			name:     "service principal",
			opts:     proxyOptions{authMode: "servicePrincipal"},
			expected: refresh.AADServicePrincipal,
		},
		{
			name:        "token mode without token",
			opts:        proxyOptions{authMode: "token"},
			expectedErr: true,
		},
		{
			name:        "unknown",
			opts:        proxyOptions{authMode: "kerberos"},
			expectedErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := tt.opts.resolveAuthMode()
			if tt.expectedErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestProxyFlags(t *testing.T) {
	cmd := Proxy(context.Background(), oktetoLog.NewIOController())
	for _, name := range []string{"resource-group", "name", "subscription", "tenant", "token", "file", "context", "port", "auth-mode", "proxy-path", "debug", "disable-analytics"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "47011", cmd.Flags().Lookup("port").DefValue)
	assert.Equal(t, "user", cmd.Flags().Lookup("auth-mode").DefValue)
	assert.Equal(t, "g", cmd.Flags().Lookup("resource-group").Shorthand)
	assert.Equal(t, "f", cmd.Flags().Lookup("file").Shorthand)
}

func TestProxyHelpNamesBearerTokenLimitation(t *testing.T) {
	cmd := Proxy(context.Background(), oktetoLog.NewIOController())
	assert.Contains(t, cmd.Long, "are not bound to the\nproxy public key")
	assert.Contains(t, cmd.Long, "--auth-mode servicePrincipal")
}

func TestNewPoPTokenAcquirer(t *testing.T) {
	ioCtrl := oktetoLog.NewIOController()
	assert.Nil(t, newPoPTokenAcquirer(refresh.ServiceAccountToken, "", "", ioCtrl))
	assert.NotNil(t, newPoPTokenAcquirer(refresh.AADUser, "", "", ioCtrl))
	assert.NotNil(t, newPoPTokenAcquirer(refresh.AADServicePrincipal, "id", "secret", ioCtrl))
}
