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
	"fmt"
	"net"
	"strings"
	"time"

	ps "github.com/mitchellh/go-ps"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
)

// CheckPortFree returns ErrPortAlreadyAllocated if something is already listening on the loopback port
func CheckPortFree(port int) error {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("%w: %d", oktetoErrors.ErrPortAlreadyAllocated, port)
	}
	return l.Close()
}

// IsRunning returns true if there is a process whose executable name starts with name
func IsRunning(name string) (bool, error) {
	processes, err := ps.Processes()
	if err != nil {
		return false, fmt.Errorf("failed to list processes: %w", err)
	}
	for _, p := range processes {
		if strings.HasPrefix(p.Executable(), name) {
			return true, nil
		}
	}
	return false, nil
}

// CheckPortOpen returns nil if something accepts connections on the loopback port
func CheckPortOpen(port int) error {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	if err != nil {
		return err
	}
	return conn.Close()
}
