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

package azcli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const azBinary = "az"

// CommandExecutor runs the az CLI
type CommandExecutor interface {
	RunCommand(ctx context.Context, name string, arg ...string) ([]byte, error)
}

// LocalExec runs commands in the local machine
type LocalExec struct{}

// RunCommand returns the stdout of the command. The stderr is part of the error when the command fails.
func (*LocalExec) RunCommand(ctx context.Context, name string, arg ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, name, arg...)
	c.Env = os.Environ()
	out, err := c.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s failed: %s", name, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}
