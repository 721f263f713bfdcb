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

// Package refresh decides which proxy credentials have to be renewed on each tick of a session.
//
// A session holds two credentials with independent lifetimes: the hybrid connection (HC) token the
// proxy uses to reach the relay, and the proof-of-possession access token (AT) the proxy presents to
// the cluster. The decision is recomputed from the clock on every tick, nothing is stored.
package refresh

import (
	"fmt"
	"time"

	"github.com/okteto/clusterconnect/pkg/constants"
)

// AuthMode is how the session authenticates against the cluster
type AuthMode string

const (
	// ServiceAccountToken sessions use a static token that never expires, so there is no access token to refresh
	ServiceAccountToken AuthMode = "token"

	// AADUser sessions use the signed-in user identity
	AADUser AuthMode = "user"

	// AADServicePrincipal sessions use a service principal identity
	AADServicePrincipal AuthMode = "servicePrincipal"
)

// ParseAuthMode validates an auth mode coming from the command line
func ParseAuthMode(s string) (AuthMode, error) {
	switch m := AuthMode(s); m {
	case ServiceAccountToken, AADUser, AADServicePrincipal:
		return m, nil
	default:
		return "", fmt.Errorf("invalid auth mode '%s', must be one of '%s', '%s' or '%s'", s, ServiceAccountToken, AADUser, AADServicePrincipal)
	}
}

// IsAAD returns true when the session needs proof-of-possession access tokens
func (m AuthMode) IsAAD() bool {
	return m == AADUser || m == AADServicePrincipal
}

// Action is the work a tick has to do
type Action int

const (
	// NoOp means both credentials are still valid
	NoOp Action = iota

	// RefreshHC renews the hybrid connection token
	RefreshHC

	// RefreshAT renews the access token
	RefreshAT

	// RefreshBoth renews both credentials in the same tick
	RefreshBoth
)

// NeedsHC returns true if the action renews the hybrid connection token
func (a Action) NeedsHC() bool {
	return a == RefreshHC || a == RefreshBoth
}

// NeedsAT returns true if the action renews the access token
func (a Action) NeedsAT() bool {
	return a == RefreshAT || a == RefreshBoth
}

func (a Action) String() string {
	switch a {
	case NoOp:
		return "noop"
	case RefreshHC:
		return "refresh-hc"
	case RefreshAT:
		return "refresh-at"
	case RefreshBoth:
		return "refresh-both"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// State holds the expiration of each credential. A zero time means the credential was never obtained.
type State struct {
	HCExpiry time.Time
	ATExpiry time.Time
}

// Initial is the action of the first tick of a session, before any kubeconfig exists
func Initial(mode AuthMode) Action {
	if mode.IsAAD() {
		return RefreshBoth
	}
	return RefreshHC
}

// Decide returns the credentials that have to be renewed at now.
// A credential is renewed RefreshMargin before it expires. The access token is never renewed for
// ServiceAccountToken sessions.
func Decide(now time.Time, state State, mode AuthMode) Action {
	needsHC := !now.Before(state.HCExpiry.Add(-constants.RefreshMargin))
	needsAT := mode.IsAAD() && !now.Before(state.ATExpiry.Add(-constants.RefreshMargin))

	switch {
	case needsHC && needsAT:
		return RefreshBoth
	case needsHC:
		return RefreshHC
	case needsAT:
		return RefreshAT
	default:
		return NoOp
	}
}
