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

package process

import (
	"os"
	"os/exec"
	"sync"
	"time"

	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	"github.com/okteto/clusterconnect/pkg/log/io"
)

const (
	// defaultGracePeriod is how long a process has to exit after being asked to stop before being killed
	defaultGracePeriod = 3 * time.Second
)

// Supervisor launches proxy processes
type Supervisor struct {
	ioCtrl      *io.IOController
	gracePeriod time.Duration
}

// Process is a running proxy process. It is owned by a single session.
type Process struct {
	cmd    *exec.Cmd
	ioCtrl *io.IOController

	done     chan struct{}
	exitCode int
	waitErr  error

	gracePeriod   time.Duration
	terminateOnce sync.Once
	terminateErr  error
}

// NewSupervisor returns a supervisor that logs through ioCtrl
func NewSupervisor(ioCtrl *io.IOController) *Supervisor {
	return &Supervisor{
		ioCtrl:      ioCtrl,
		gracePeriod: defaultGracePeriod,
	}
}

// Start launches path with args. In debug mode the process inherits the standard streams,
// otherwise its output is discarded.
func (s *Supervisor) Start(path string, args []string, debug bool) (*Process, error) {
	cmd := exec.Command(path, args...)
	if debug {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, &oktetoErrors.LaunchError{Path: path, Err: err}
	}
	s.ioCtrl.Logger().Debug("proxy process started", "path", path, "pid", cmd.Process.Pid)

	p := &Process{
		cmd:         cmd,
		ioCtrl:      s.ioCtrl,
		done:        make(chan struct{}),
		gracePeriod: s.gracePeriod,
	}
	go p.wait()
	return p, nil
}

func (p *Process) wait() {
	p.waitErr = p.cmd.Wait()
	p.exitCode = -1
	if p.cmd.ProcessState != nil {
		p.exitCode = p.cmd.ProcessState.ExitCode()
	}
	p.ioCtrl.Logger().Debug("proxy process exited", "pid", p.Pid(), "exitCode", p.exitCode, "error", p.waitErr)
	close(p.done)
}

// Pid returns the process id
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// IsAlive returns false once the process has exited, whatever its exit code. It never blocks.
func (p *Process) IsAlive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// ExitCode returns the exit code of the process, or -1 if it is still running or was killed by a signal
func (p *Process) ExitCode() int {
	if p.IsAlive() {
		return -1
	}
	return p.exitCode
}

// Terminate stops the process and waits for it to exit. Calling it on a dead process is not an error.
func (p *Process) Terminate() error {
	p.terminateOnce.Do(func() {
		if !p.IsAlive() {
			p.ioCtrl.Logger().Debug("proxy process not running", "pid", p.Pid())
			return
		}
		p.terminateErr = p.stop()
	})
	return p.terminateErr
}
