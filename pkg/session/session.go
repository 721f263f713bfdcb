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

package session

import (
	"fmt"

	"github.com/okteto/clusterconnect/pkg/clientproxy"
	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	"github.com/okteto/clusterconnect/pkg/refresh"
)

// Session has the parameters of a proxy session. It doesn't change while the session is open.
// The kubeconfig is merged into KubeconfigPath, or printed if it is "-", and its context is
// renamed to ContextName if set.
type Session struct {
	TenantID       string
	SubscriptionID string
	ResourceGroup  string
	ClusterName    string

	KubeconfigPath string
	ContextName    string

	ProxyPath string
	ProxyArgs []string

	AuthMode     refresh.AuthMode
	InternalPort int
	ExternalPort int
	Debug        bool
}

// Cluster returns the connected cluster of the session
func (s *Session) Cluster() clientproxy.ClusterID {
	return clientproxy.ClusterID{
		SubscriptionID: s.SubscriptionID,
		ResourceGroup:  s.ResourceGroup,
		Name:           s.ClusterName,
	}
}

// Validate checks the session can be started
func (s *Session) Validate() error {
	if s.ExternalPort == s.InternalPort {
		return oktetoErrors.UserError{
			E:    fmt.Errorf("%w: %d", oktetoErrors.ErrSamePorts, s.InternalPort),
			Hint: "Please pass some other unused port through the --port flag",
		}
	}
	if s.ClusterName == "" || s.ResourceGroup == "" {
		return oktetoErrors.UserError{
			E:    fmt.Errorf("the cluster name and resource group are required"),
			Hint: "Use the --name and --resource-group flags",
		}
	}
	return nil
}

// printsKubeconfig returns true if the kubeconfig is printed instead of merged into a file
func (s *Session) printsKubeconfig() bool {
	return s.KubeconfigPath == constants.StdoutKubeconfigPath
}
