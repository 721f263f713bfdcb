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

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserErrorUnwrap(t *testing.T) {
	err := UserError{E: ErrSamePorts, Hint: "Please pass some other unused port through --port option."}
	assert.ErrorIs(t, err, ErrSamePorts)
	assert.Equal(t, ErrSamePorts.Error(), err.Error())
}

func TestErrorMessages(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		err      error
		name     string
		expected string
	}{
		{
			name:     "launch",
			err:      &LaunchError{Path: "/bin/arcProxyLinux", Err: cause},
			expected: "failed to start proxy process '/bin/arcProxyLinux': connection refused",
		},
		{
			name:     "process died with clean exit",
			err:      &ProcessDiedError{ExitCode: 0},
			expected: "proxy closed externally (exit code 0)",
		},
		{
			name:     "credential fetch",
			err:      &CredentialFetchError{Cluster: "c1", Err: cause},
			expected: "failed to get credentials for cluster 'c1': connection refused",
		},
		{
			name:     "handoff",
			err:      &ProxyHandoffError{Attempts: 5, Err: cause},
			expected: "failed to pass hybrid connection details to proxy after 5 attempts: connection refused",
		},
		{
			name:     "pop binding with status",
			err:      &PoPBindingError{StatusCode: 400, Body: "bad token"},
			expected: "failed to post access token to proxy: status 400: bad token",
		},
		{
			name:     "pop binding with cause",
			err:      &PoPBindingError{Err: cause},
			expected: "failed to post access token to proxy: connection refused",
		},
		{
			name:     "duplicate name",
			err:      &DuplicateNameError{Name: "c1", Section: "clusters"},
			expected: "a different object named 'c1' already exists in clusters in your kubeconfig file",
		},
		{
			name:     "file operation",
			err:      &FileOperationError{Op: "parse", Path: "/tmp/config", Err: cause},
			expected: "failed to parse '/tmp/config': connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorsAreMatchable(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("tick failed: %w", &ProxyHandoffError{Attempts: 5, Err: cause})

	var handoff *ProxyHandoffError
	require.ErrorAs(t, err, &handoff)
	assert.Equal(t, 5, handoff.Attempts)
	assert.ErrorIs(t, err, cause)
}

func TestCredentialFetchErrorIsUnauthorized(t *testing.T) {
	assert.True(t, (&CredentialFetchError{StatusCode: http.StatusUnauthorized}).IsUnauthorized())
	assert.True(t, (&CredentialFetchError{StatusCode: http.StatusForbidden}).IsUnauthorized())
	assert.False(t, (&CredentialFetchError{StatusCode: http.StatusInternalServerError}).IsUnauthorized())
}
