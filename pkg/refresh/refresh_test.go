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

package refresh

import (
	"testing"
	"time"

	"github.com/okteto/clusterconnect/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	valid := now.Add(time.Hour)
	expiring := now.Add(constants.RefreshMargin - time.Second)
	atMargin := now.Add(constants.RefreshMargin)

	tests := []struct {
		name     string
		state    State
		mode     AuthMode
		expected Action
	}{
		{
			name:     "both valid",
			state:    State{HCExpiry: valid, ATExpiry: valid},
			mode:     AADUser,
			expected: NoOp,
		},
		{
			name:     "hc expiring",
			state:    State{HCExpiry: expiring, ATExpiry: valid},
			mode:     AADUser,
			expected: RefreshHC,
		},
		{
			name:     "at expiring",
			state:    State{HCExpiry: valid, ATExpiry: expiring},
			mode:     AADServicePrincipal,
			expected: RefreshAT,
		},
		{
			name:     "both expiring",
			state:    State{HCExpiry: expiring, ATExpiry: expiring},
			mode:     AADUser,
			expected: RefreshBoth,
		},
		{
			name:     "exactly at the margin refreshes",
			state:    State{HCExpiry: atMargin, ATExpiry: valid},
			mode:     AADUser,
			expected: RefreshHC,
		},
		{
			name:     "never obtained",
			state:    State{},
			mode:     AADUser,
			expected: RefreshBoth,
		},
		{
			name:     "token sessions ignore the access token",
			state:    State{HCExpiry: valid, ATExpiry: expiring},
			mode:     ServiceAccountToken,
			expected: NoOp,
		},
		{
			name:     "token sessions with hc expiring",
			state:    State{HCExpiry: expiring},
			mode:     ServiceAccountToken,
			expected: RefreshHC,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decide(now, tt.state, tt.mode))
		})
	}
}

func TestDecideProperties(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	offsets := []time.Duration{
		-time.Hour, -time.Minute, 0, time.Minute,
		constants.RefreshMargin - time.Nanosecond, constants.RefreshMargin,
		constants.RefreshMargin + time.Nanosecond, time.Hour,
	}
	modes := []AuthMode{ServiceAccountToken, AADUser, AADServicePrincipal}

	for _, mode := range modes {
		for _, hc := range offsets {
			for _, at := range offsets {
				state := State{HCExpiry: now.Add(hc), ATExpiry: now.Add(at)}
				action := Decide(now, state, mode)

				hcDue := hc <= constants.RefreshMargin
				atDue := mode != ServiceAccountToken && at <= constants.RefreshMargin

				assert.Equal(t, hcDue, action.NeedsHC(), "mode=%s hc=%s at=%s", mode, hc, at)
				assert.Equal(t, atDue, action.NeedsAT(), "mode=%s hc=%s at=%s", mode, hc, at)
				assert.Equal(t, hcDue && atDue, action == RefreshBoth)
				assert.Equal(t, !hcDue && !atDue, action == NoOp)
				if mode == ServiceAccountToken {
					assert.False(t, action.NeedsAT())
				}
			}
		}
	}
}

func TestInitial(t *testing.T) {
	assert.Equal(t, RefreshHC, Initial(ServiceAccountToken))
	assert.Equal(t, RefreshBoth, Initial(AADUser))
	assert.Equal(t, RefreshBoth, Initial(AADServicePrincipal))
}

func TestParseAuthMode(t *testing.T) {
	m, err := ParseAuthMode("servicePrincipal")
	require.NoError(t, err)
	assert.Equal(t, AADServicePrincipal, m)

	_, err = ParseAuthMode("kerberos")
	assert.Error(t, err)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "refresh-both", RefreshBoth.String())
	assert.Equal(t, "action(9)", Action(9).String())
}
