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
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okteto/clusterconnect/pkg/analytics"
	"github.com/okteto/clusterconnect/pkg/clientproxy"
	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
	"github.com/okteto/clusterconnect/pkg/refresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeProcess struct {
	alive        bool
	exitCode     int
	terminations int
	mu           sync.Mutex
}

func (p *fakeProcess) IsAlive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

func (p *fakeProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terminations++
	p.alive = false
	return nil
}

func (p *fakeProcess) exit(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive = false
	p.exitCode = code
}

func (p *fakeProcess) terminated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminations
}

type fakeLauncher struct {
	proc    *fakeProcess
	err     error
	path    string
	args    []string
	started int
	debug   bool
}

func (l *fakeLauncher) Start(path string, args []string, debug bool) (ProxyProcess, error) {
	l.started++
	l.path, l.args, l.debug = path, args, debug
	if l.err != nil {
		return nil, l.err
	}
	return l.proc, nil
}

type refreshCall struct {
	action   refresh.Action
	firstRun bool
}

type fakeExchanger struct {
	respond func(ctx context.Context, n int, call refreshCall) (*clientproxy.Result, error)
	calls   []refreshCall
	mu      sync.Mutex
}

func (e *fakeExchanger) Refresh(ctx context.Context, action refresh.Action, firstRun bool) (*clientproxy.Result, error) {
	e.mu.Lock()
	call := refreshCall{action: action, firstRun: firstRun}
	e.calls = append(e.calls, call)
	n := len(e.calls)
	e.mu.Unlock()
	return e.respond(ctx, n, call)
}

func (e *fakeExchanger) recorded() []refreshCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]refreshCall{}, e.calls...)
}

type fakeMerger struct {
	err         error
	path        string
	contextName string
	current     string
	incoming    []byte
	calls       int
	overwrite   bool
}

func (m *fakeMerger) Merge(path string, incoming []byte, overwrite bool, contextName string) (string, error) {
	m.calls++
	m.path, m.incoming, m.overwrite, m.contextName = path, incoming, overwrite, contextName
	return m.current, m.err
}

type fakeTracker struct {
	faults  []string
	started []string
	mu      sync.Mutex
}

func (t *fakeTracker) TrackProxyStart(authMode string, _ bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = append(t.started, authMode)
}

func (t *fakeTracker) TrackFault(faultType string, _ error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.faults = append(t.faults, faultType)
}

type fixture struct {
	manager   *Manager
	clock     *clocktesting.FakeClock
	proc      *fakeProcess
	launcher  *fakeLauncher
	exchanger *fakeExchanger
	merger    *fakeMerger
	tracker   *fakeTracker
	out       *bytes.Buffer
}

func newSession(mode refresh.AuthMode) *Session {
	return &Session{
		TenantID:       "tenant",
		SubscriptionID: "sub",
		ResourceGroup:  "rg",
		ClusterName:    "c1",
		KubeconfigPath: "/home/user/.kube/config",
		ProxyPath:      "/home/user/.clientproxy/arcProxyLinux1.3.022011",
		ProxyArgs:      []string{"-c", "/home/user/.clientproxy/config.yml"},
		AuthMode:       mode,
		InternalPort:   constants.ClientProxyPort,
		ExternalPort:   constants.APIServerPort,
	}
}

// initialResult is the first run result: the hybrid connection expires in 10 minutes, the access token in 1 hour
func initialResult(now time.Time) *clientproxy.Result {
	return &clientproxy.Result{
		HCExpiry:   now.Add(10 * time.Minute),
		ATExpiry:   now.Add(time.Hour),
		Kubeconfig: []byte("kubeconfig"),
	}
}

func newFixture(s *Session, respond func(ctx context.Context, n int, call refreshCall) (*clientproxy.Result, error)) *fixture {
	f := &fixture{
		clock:     clocktesting.NewFakeClock(start),
		proc:      &fakeProcess{alive: true},
		exchanger: &fakeExchanger{respond: respond},
		merger:    &fakeMerger{current: "c1"},
		tracker:   &fakeTracker{},
		out:       &bytes.Buffer{},
	}
	f.launcher = &fakeLauncher{proc: f.proc}

	ioCtrl := oktetoLog.NewIOController()
	ioCtrl.SetOutputFormat(oktetoLog.PlainFormat)
	ioCtrl.SetOutput(f.out)

	f.manager = NewManager(s, f.launcher, f.exchanger, f.merger, f.tracker, f.clock, ioCtrl)
	f.manager.checkPort = func(int) error { return nil }
	return f
}

func (f *fixture) run(ctx context.Context) chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- f.manager.Run(ctx)
	}()
	return errCh
}

// tick waits for the session to sleep and wakes it up d later
func (f *fixture) tick(t *testing.T, d time.Duration) {
	t.Helper()
	require.Eventually(t, f.clock.HasWaiters, 5*time.Second, time.Millisecond)
	f.clock.Step(d)
}

func wait(t *testing.T, errCh chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("session didn't finish")
	}
	return nil
}

func TestRunRefreshesCredentialsIndependently(t *testing.T) {
	var f *fixture
	f = newFixture(newSession(refresh.AADUser), func(_ context.Context, n int, _ refreshCall) (*clientproxy.Result, error) {
		now := f.clock.Now()
		if n == 1 {
			return initialResult(now), nil
		}
		return &clientproxy.Result{HCExpiry: now.Add(10 * time.Minute)}, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := f.run(ctx)

	// the hybrid connection is refreshed 5 minutes before it expires
	for i := 0; i < 5; i++ {
		f.tick(t, time.Minute)
	}
	require.Eventually(t, func() bool { return len(f.exchanger.recorded()) == 2 }, 5*time.Second, time.Millisecond)

	// the hybrid connection keeps being refreshed every 5 minutes without resetting the access token countdown,
	// both are due 55 minutes after the first run
	for i := 0; i < 50; i++ {
		f.tick(t, time.Minute)
	}
	require.Eventually(t, func() bool { return len(f.exchanger.recorded()) == 12 }, 5*time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, wait(t, errCh), context.Canceled)

	expected := []refreshCall{{action: refresh.RefreshBoth, firstRun: true}}
	for i := 0; i < 10; i++ {
		expected = append(expected, refreshCall{action: refresh.RefreshHC})
	}
	expected = append(expected, refreshCall{action: refresh.RefreshBoth})
	assert.Equal(t, expected, f.exchanger.recorded())
	assert.Equal(t, 1, f.merger.calls)
	assert.Equal(t, 1, f.proc.terminated())
	assert.Empty(t, f.tracker.faults)
	assert.Equal(t, []string{"user"}, f.tracker.started)
}

func TestRunFirstRun(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		contextName    string
		mode           refresh.AuthMode
		expectedAction refresh.Action
		expectedOut    string
	}{
		{
			name:           "service account token",
			path:           "/home/user/.kube/config",
			mode:           refresh.ServiceAccountToken,
			expectedAction: refresh.RefreshHC,
			expectedOut:    "Proxy is listening on port 47011\nStart sending kubectl requests on 'c1' context using kubeconfig at /home/user/.kube/config\nPress Ctrl+C to close proxy.\n",
		},
		{
			name:           "service principal with context name",
			path:           "/tmp/kubeconfig",
			contextName:    "my-ctx",
			mode:           refresh.AADServicePrincipal,
			expectedAction: refresh.RefreshBoth,
			expectedOut:    "Proxy is listening on port 47011\nStart sending kubectl requests on 'c1' context using kubeconfig at /tmp/kubeconfig\nPress Ctrl+C to close proxy.\n",
		},
		{
			name:           "stdout",
			path:           "-",
			mode:           refresh.AADUser,
			expectedAction: refresh.RefreshBoth,
			expectedOut:    "Proxy is listening on port 47011\nPress Ctrl+C to close proxy.\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(tt.mode)
			s.KubeconfigPath = tt.path
			s.ContextName = tt.contextName
			s.Debug = true
			ctx, cancel := context.WithCancel(context.Background())
			var f *fixture
			f = newFixture(s, func(_ context.Context, _ int, _ refreshCall) (*clientproxy.Result, error) {
				defer cancel()
				return initialResult(f.clock.Now()), nil
			})

			err := wait(t, f.run(ctx))
			require.ErrorIs(t, err, context.Canceled)

			assert.Equal(t, []refreshCall{{action: tt.expectedAction, firstRun: true}}, f.exchanger.recorded())
			assert.Equal(t, s.ProxyPath, f.launcher.path)
			assert.Equal(t, s.ProxyArgs, f.launcher.args)
			assert.True(t, f.launcher.debug)
			assert.Equal(t, tt.path, f.merger.path)
			assert.Equal(t, []byte("kubeconfig"), f.merger.incoming)
			assert.True(t, f.merger.overwrite)
			assert.Equal(t, tt.contextName, f.merger.contextName)
			assert.Equal(t, tt.expectedOut, f.out.String())
			assert.Equal(t, 1, f.proc.terminated())
		})
	}
}

func TestRunProcessDied(t *testing.T) {
	var f *fixture
	f = newFixture(newSession(refresh.AADUser), func(_ context.Context, _ int, _ refreshCall) (*clientproxy.Result, error) {
		return initialResult(f.clock.Now()), nil
	})
	errCh := f.run(context.Background())

	require.Eventually(t, f.clock.HasWaiters, 5*time.Second, time.Millisecond)
	f.proc.exit(0)
	// far enough for both credentials to need a refresh
	f.clock.Step(2 * time.Hour)

	var diedErr *oktetoErrors.ProcessDiedError
	require.ErrorAs(t, wait(t, errCh), &diedErr)
	assert.Equal(t, 0, diedErr.ExitCode)
	assert.Len(t, f.exchanger.recorded(), 1)
	assert.Equal(t, []string{analytics.ProxyClosedExternallyFault}, f.tracker.faults)
	assert.Equal(t, 1, f.proc.terminated())
}

func TestRunFatalErrors(t *testing.T) {
	tests := []struct {
		err           error
		name          string
		expectedFault string
		failOnCall    int
		merges        int
	}{
		{
			name:          "handoff fails on first run",
			err:           &oktetoErrors.ProxyHandoffError{Attempts: 5, Err: errors.New("connection refused")},
			failOnCall:    1,
			expectedFault: analytics.PostHybridConnFailedFault,
		},
		{
			name:          "credentials can't be listed on first run",
			err:           &oktetoErrors.CredentialFetchError{Cluster: "c1", Err: errors.New("forbidden")},
			failOnCall:    1,
			expectedFault: analytics.GetCredentialsFailedFault,
		},
		{
			name:          "access token binding fails on refresh",
			err:           &oktetoErrors.PoPBindingError{StatusCode: 401, Body: "unauthorized"},
			failOnCall:    2,
			merges:        1,
			expectedFault: analytics.PostATToClientProxyFailedFault,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f *fixture
			f = newFixture(newSession(refresh.AADUser), func(_ context.Context, n int, _ refreshCall) (*clientproxy.Result, error) {
				if n == tt.failOnCall {
					return nil, tt.err
				}
				return initialResult(f.clock.Now()), nil
			})
			errCh := f.run(context.Background())
			if tt.failOnCall > 1 {
				f.tick(t, time.Hour)
			}

			err := wait(t, errCh)
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, f.proc.terminated())
			assert.Equal(t, tt.merges, f.merger.calls)
			assert.Equal(t, []string{tt.expectedFault}, f.tracker.faults)
		})
	}
}

func TestRunHandoffErrorMessage(t *testing.T) {
	f := newFixture(newSession(refresh.ServiceAccountToken), func(_ context.Context, _ int, _ refreshCall) (*clientproxy.Result, error) {
		return nil, &oktetoErrors.ProxyHandoffError{Attempts: constants.RegisterAttempts, Err: errors.New("dial tcp 127.0.0.1:47010: connect: connection refused")}
	})

	err := wait(t, f.run(context.Background()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect: connection refused")
	assert.Equal(t, 1, f.proc.terminated())
}

func TestRunMergeFails(t *testing.T) {
	var f *fixture
	f = newFixture(newSession(refresh.AADUser), func(_ context.Context, _ int, _ refreshCall) (*clientproxy.Result, error) {
		return initialResult(f.clock.Now()), nil
	})
	f.merger.err = &oktetoErrors.DuplicateNameError{Name: "c1", Section: "clusters"}

	err := wait(t, f.run(context.Background()))
	var dupErr *oktetoErrors.DuplicateNameError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, 1, f.proc.terminated())
	assert.Equal(t, []string{analytics.MergeKubeconfigFailedFault}, f.tracker.faults)
	assert.NotContains(t, f.out.String(), "Press Ctrl+C")
}

func TestRunCanceledDuringFirstRun(t *testing.T) {
	f := newFixture(newSession(refresh.AADUser), func(ctx context.Context, _ int, _ refreshCall) (*clientproxy.Result, error) {
		<-ctx.Done()
		return nil, &oktetoErrors.PoPBindingError{Err: ctx.Err()}
	})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := f.run(ctx)

	require.Eventually(t, func() bool { return len(f.exchanger.recorded()) == 1 }, 5*time.Second, time.Millisecond)
	cancel()

	require.ErrorIs(t, wait(t, errCh), context.Canceled)
	assert.Equal(t, 1, f.proc.terminated())
	assert.Empty(t, f.tracker.faults)
	assert.Equal(t, 0, f.merger.calls)
}

func TestRunValidation(t *testing.T) {
	s := newSession(refresh.AADUser)
	s.ExternalPort = s.InternalPort
	f := newFixture(s, nil)

	err := wait(t, f.run(context.Background()))
	require.ErrorIs(t, err, oktetoErrors.ErrSamePorts)
	var userErr oktetoErrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.NotEmpty(t, userErr.Hint)
	assert.Equal(t, 0, f.launcher.started)
}

func TestRunLaunchError(t *testing.T) {
	f := newFixture(newSession(refresh.AADUser), nil)
	launchErr := &oktetoErrors.LaunchError{Path: "/missing", Err: errors.New("no such file or directory")}
	f.launcher.err = launchErr

	err := wait(t, f.run(context.Background()))
	require.ErrorIs(t, err, launchErr)
	assert.Equal(t, []string{analytics.RunClientProxyFailedFault}, f.tracker.faults)
	assert.Equal(t, 0, f.proc.terminated())
}

func TestRunWaitsForProxy(t *testing.T) {
	var f *fixture
	f = newFixture(newSession(refresh.ServiceAccountToken), func(_ context.Context, _ int, _ refreshCall) (*clientproxy.Result, error) {
		return initialResult(f.clock.Now()), nil
	})
	dials := 0
	f.manager.checkPort = func(port int) error {
		assert.Equal(t, constants.APIServerPort, port)
		dials++
		if dials < 3 {
			return errors.New("connection refused")
		}
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := f.run(ctx)

	f.tick(t, proxyDialInterval)
	f.tick(t, proxyDialInterval)
	require.Eventually(t, func() bool { return len(f.exchanger.recorded()) == 1 }, 5*time.Second, time.Millisecond)
	cancel()

	require.ErrorIs(t, wait(t, errCh), context.Canceled)
	assert.Equal(t, 3, dials)
	assert.Equal(t, 1, strings.Count(f.out.String(), "Waiting for the proxy to listen on port 47011\n"))
}

func TestRunProxyNeverListens(t *testing.T) {
	f := newFixture(newSession(refresh.ServiceAccountToken), nil)
	f.proc.exit(1)
	f.manager.checkPort = func(int) error { return errors.New("connection refused") }

	err := wait(t, f.run(context.Background()))
	var diedErr *oktetoErrors.ProcessDiedError
	require.ErrorAs(t, err, &diedErr)
	assert.Equal(t, 1, diedErr.ExitCode)
	assert.Empty(t, f.exchanger.recorded())
	assert.Equal(t, 1, f.proc.terminated())
	assert.Contains(t, f.out.String(), "Waiting for the proxy to listen on port 47011")
}

func TestApply(t *testing.T) {
	state := refresh.State{HCExpiry: start, ATExpiry: start.Add(time.Hour)}

	got := apply(state, &clientproxy.Result{HCExpiry: start.Add(time.Minute)})
	assert.Equal(t, refresh.State{HCExpiry: start.Add(time.Minute), ATExpiry: start.Add(time.Hour)}, got)

	got = apply(state, &clientproxy.Result{ATExpiry: start.Add(2 * time.Hour)})
	assert.Equal(t, refresh.State{HCExpiry: start, ATExpiry: start.Add(2 * time.Hour)}, got)
}
