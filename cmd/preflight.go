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
	"errors"
	"fmt"
	"runtime"

	"github.com/okteto/clusterconnect/pkg/clientproxy"
	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	"github.com/okteto/clusterconnect/pkg/process"
	"github.com/okteto/clusterconnect/pkg/session"
)

// preflight checks the ports of a session before the proxy is installed and launched
type preflight struct {
	isPortFree func(port int) error
	isRunning  func(name string) (bool, error)
	goos       string
}

func newPreflight() *preflight {
	return &preflight{
		isPortFree: process.CheckPortFree,
		isRunning:  process.IsRunning,
		goos:       runtime.GOOS,
	}
}

// internalPort returns the port the proxy receives the hybrid connection details on.
// If the default one is busy and the user picked the kubectl port, the port below it is used.
func (p *preflight) internalPort(externalPort int) int {
	if externalPort != constants.APIServerPort && p.isPortFree(constants.ClientProxyPort) != nil {
		return externalPort - 1
	}
	return constants.ClientProxyPort
}

// check returns an error with every port of s that is in use
func (p *preflight) check(s *session.Session) error {
	name, err := clientproxy.ProcessName(p.goos)
	if err != nil {
		return oktetoErrors.UserError{
			E:    err,
			Hint: "The proxy runs on windows, linux and darwin",
		}
	}
	running, err := p.isRunning(name)
	if err != nil {
		return fmt.Errorf("failed to list running processes: %w", err)
	}

	var errs []error
	if err := p.isPortFree(s.ExternalPort); err != nil {
		if running {
			return oktetoErrors.UserError{
				E:    oktetoErrors.ErrProxyAlreadyRunning,
				Hint: "Close the other proxy or pass some other unused port through the --port flag",
			}
		}
		errs = append(errs, err)
	}
	if err := p.isPortFree(s.InternalPort); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return oktetoErrors.UserError{
			E:    errors.Join(errs...),
			Hint: "Free the ports or pass some other unused port through the --port flag",
		}
	}
	return nil
}
