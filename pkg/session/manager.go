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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okteto/clusterconnect/pkg/analytics"
	"github.com/okteto/clusterconnect/pkg/clientproxy"
	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
	"github.com/okteto/clusterconnect/pkg/process"
	"github.com/okteto/clusterconnect/pkg/refresh"
	"k8s.io/utils/clock"
)

const (
	proxyStartTimeout  = 30 * time.Second
	proxyDialInterval = 500 * time.Millisecond
)

// ProxyProcess is a running proxy
type ProxyProcess interface {
	IsAlive() bool
	ExitCode() int
	Terminate() error
}

// Launcher starts the proxy executable
type Launcher interface {
	Start(path string, args []string, debug bool) (ProxyProcess, error)
}

// LauncherFunc adapts a function to a Launcher
type LauncherFunc func(path string, args []string, debug bool) (ProxyProcess, error)

// Start calls f
func (f LauncherFunc) Start(path string, args []string, debug bool) (ProxyProcess, error) {
	return f(path, args, debug)
}

// Exchanger refreshes the credentials of the proxy
type Exchanger interface {
	Refresh(ctx context.Context, action refresh.Action, firstRun bool) (*clientproxy.Result, error)
}

// Merger writes the kubeconfig of the proxy
type Merger interface {
	Merge(path string, incoming []byte, overwrite bool, contextName string) (string, error)
}

// Tracker records the session events
type Tracker interface {
	TrackProxyStart(authMode string, success bool)
	TrackFault(faultType string, err error)
}

// Manager runs a proxy session: it starts the proxy, merges its kubeconfig once and keeps
// its credentials fresh until the proxy dies or the session is canceled
type Manager struct {
	session   *Session
	launcher  Launcher
	exchanger Exchanger
	merger    Merger
	tracker   Tracker
	clock     clock.Clock
	ioCtrl    *oktetoLog.IOController

	// checkPort returns nil once the proxy accepts connections on port
	checkPort func(port int) error
	interval  time.Duration
}

// NewManager returns the manager of s
func NewManager(s *Session, launcher Launcher, exchanger Exchanger, merger Merger, tracker Tracker, clk clock.Clock, ioCtrl *oktetoLog.IOController) *Manager {
	return &Manager{
		session:   s,
		launcher:  launcher,
		exchanger: exchanger,
		merger:    merger,
		tracker:   tracker,
		clock:     clk,
		ioCtrl:    ioCtrl,
		checkPort: process.CheckPortOpen,
		interval:  constants.PollInterval,
	}
}

// Run blocks until ctx is canceled or the session fails. The proxy is always terminated before returning.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.session.Validate(); err != nil {
		return err
	}

	proc, err := m.launcher.Start(m.session.ProxyPath, m.session.ProxyArgs, m.session.Debug)
	if err != nil {
		m.tracker.TrackFault(analytics.RunClientProxyFailedFault, err)
		return err
	}
	defer func() {
		if err := proc.Terminate(); err != nil {
			m.ioCtrl.Logger().Info("failed to terminate proxy process", "error", err)
		}
	}()
	m.ioCtrl.Out().Printf("Proxy is listening on port %d\n", m.session.ExternalPort)
	m.tracker.TrackProxyStart(string(m.session.AuthMode), true)

	if err := m.waitForProxy(ctx, proc); err != nil {
		return m.fail(ctx, err)
	}

	state, err := m.firstRun(ctx)
	if err != nil {
		return m.fail(ctx, err)
	}

	for {
		select {
		case <-ctx.Done():
			m.ioCtrl.Logger().Debug("proxy session canceled")
			return ctx.Err()
		case <-m.clock.After(m.interval):
		}

		if !proc.IsAlive() {
			return m.fail(ctx, &oktetoErrors.ProcessDiedError{ExitCode: proc.ExitCode()})
		}

		action := refresh.Decide(m.clock.Now(), state, m.session.AuthMode)
		if action == refresh.NoOp {
			continue
		}
		m.ioCtrl.Logger().Debug("refreshing proxy credentials", "action", action.String())
		result, err := m.exchanger.Refresh(ctx, action, false)
		if err != nil {
			return m.fail(ctx, err)
		}
		state = apply(state, result)
	}
}

// firstRun obtains both credentials and merges the kubeconfig returned by the proxy
func (m *Manager) firstRun(ctx context.Context) (refresh.State, error) {
	result, err := m.exchanger.Refresh(ctx, refresh.Initial(m.session.AuthMode), true)
	if err != nil {
		return refresh.State{}, err
	}
	state := apply(refresh.State{}, result)

	current, err := m.merger.Merge(m.session.KubeconfigPath, result.Kubeconfig, true, m.session.ContextName)
	if err != nil {
		return refresh.State{}, fmt.Errorf("failed to merge kubeconfig: %w", err)
	}
	if !m.session.printsKubeconfig() {
		m.ioCtrl.Out().Printf("Start sending kubectl requests on '%s' context using kubeconfig at %s\n", current, m.session.KubeconfigPath)
	}
	m.ioCtrl.Out().Println("Press Ctrl+C to close proxy.")
	return state, nil
}

// waitForProxy waits until the proxy accepts connections on the kubectl facing port
func (m *Manager) waitForProxy(ctx context.Context, proc ProxyProcess) error {
	deadline := m.clock.Now().Add(proxyStartTimeout)
	var sp oktetoLog.Spinner
	defer func() {
		if sp != nil {
			sp.Stop()
		}
	}()
	for {
		err := m.checkPort(m.session.ExternalPort)
		if err == nil {
			return nil
		}
		if sp == nil {
			sp = m.ioCtrl.Out().Spinner(fmt.Sprintf("waiting for the proxy to listen on port %d", m.session.ExternalPort))
			sp.Start()
		}
		if !proc.IsAlive() {
			return &oktetoErrors.ProcessDiedError{ExitCode: proc.ExitCode()}
		}
		if m.clock.Now().After(deadline) {
			return &oktetoErrors.LaunchError{Path: m.session.ProxyPath, Err: fmt.Errorf("proxy is not listening on port %d: %w", m.session.ExternalPort, err)}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.clock.After(proxyDialInterval):
		}
	}
}

// fail records err and returns it. Cancellation wins over the errors it causes.
func (m *Manager) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.tracker.TrackFault(faultType(err), err)
	return err
}

// apply records the expiries of the refreshed credentials, the others keep their countdown
func apply(state refresh.State, result *clientproxy.Result) refresh.State {
	if !result.HCExpiry.IsZero() {
		state.HCExpiry = result.HCExpiry
	}
	if !result.ATExpiry.IsZero() {
		state.ATExpiry = result.ATExpiry
	}
	return state
}

func faultType(err error) string {
	var (
		fetchErr   *oktetoErrors.CredentialFetchError
		handoffErr *oktetoErrors.ProxyHandoffError
		popErr     *oktetoErrors.PoPBindingError
		diedErr    *oktetoErrors.ProcessDiedError
		launchErr  *oktetoErrors.LaunchError
		dupErr     *oktetoErrors.DuplicateNameError
		fileErr    *oktetoErrors.FileOperationError
	)
	switch {
	case errors.As(err, &fetchErr):
		return analytics.GetCredentialsFailedFault
	case errors.As(err, &handoffErr):
		return analytics.PostHybridConnFailedFault
	case errors.As(err, &popErr):
		return analytics.PostATToClientProxyFailedFault
	case errors.As(err, &diedErr):
		return analytics.ProxyClosedExternallyFault
	case errors.As(err, &launchErr):
		return analytics.RunClientProxyFailedFault
	case errors.As(err, &dupErr), errors.As(err, &fileErr):
		return analytics.MergeKubeconfigFailedFault
	}
	return analytics.UnexpectedFault
}
