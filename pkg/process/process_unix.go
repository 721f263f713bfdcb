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

//go:build !windows
// +build !windows

package process

import (
	"errors"
	"os"
	"syscall"
	"time"
)

// stop attempts to gracefully shut down the process and kills it if it doesn't exit in time
func (p *Process) stop() error {
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		p.ioCtrl.Logger().Debug("error in graceful termination of process", "pid", p.Pid(), "error", err)
		return err
	}

	timer := time.NewTimer(p.gracePeriod)
	defer timer.Stop()

	select {
	case <-p.done:
		p.ioCtrl.Logger().Debug("process terminated successfully", "pid", p.Pid())
		return nil
	case <-timer.C:
		p.ioCtrl.Logger().Debug("graceful termination timed out, killing process", "pid", p.Pid())
	}

	if err := p.cmd.Process.Signal(syscall.SIGKILL); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.ioCtrl.Logger().Debug("error killing process", "pid", p.Pid(), "error", err)
		return err
	}
	<-p.done
	return nil
}
