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

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// UserError is meant for errors displayed to the user. It can include a message and a hint
type UserError struct {
	E    error
	Hint string
}

// Error returns the error message
func (u UserError) Error() string {
	return u.E.Error()
}

func (u UserError) Unwrap() error {
	return u.E
}

var (
	// ErrPortAlreadyAllocated is raised when port is allocated by other process
	ErrPortAlreadyAllocated = errors.New("port is already allocated")

	// ErrProxyAlreadyRunning is raised when another proxy instance holds the kubectl-facing port
	ErrProxyAlreadyRunning = errors.New("the proxy port is already in use, potentially by another proxy instance")

	// ErrSamePorts is raised when the kubectl-facing port is the one the proxy uses internally
	ErrSamePorts = errors.New("the proxy uses this port internally")

	// ErrUnsupportedPlatform is raised when there is no proxy build for the current OS
	ErrUnsupportedPlatform = errors.New("platform is not currently supported")

	// ErrIntSig raised if the we get an interrupt signal in the middle of a command
	ErrIntSig = errors.New("interrupt signal received")

	// ErrPublicKeyExpired is the cause of the one-time retry of the access token exchange
	ErrPublicKeyExpired = errors.New("public key expired")
)

// LaunchError is raised when the proxy executable can't be started
type LaunchError struct {
	Err  error
	Path string
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to start proxy process '%s': %s", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ProcessDiedError is raised when the proxy process exits while the session is open.
// A zero exit code is still an error: the proxy must run as long as the session does.
type ProcessDiedError struct {
	ExitCode int
}

func (e *ProcessDiedError) Error() string {
	return fmt.Sprintf("proxy closed externally (exit code %d)", e.ExitCode)
}

// CredentialFetchError is raised when the control plane can't list the cluster user credentials
type CredentialFetchError struct {
	Err        error
	Cluster    string
	StatusCode int
}

func (e *CredentialFetchError) Error() string {
	return fmt.Sprintf("failed to get credentials for cluster '%s': %s", e.Cluster, e.Err)
}

func (e *CredentialFetchError) Unwrap() error {
	return e.Err
}

// IsUnauthorized returns true if the control plane rejected the caller identity
func (e *CredentialFetchError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// ProxyHandoffError is raised when the hybrid connection details can't be registered in the proxy
type ProxyHandoffError struct {
	Err      error
	Attempts int
}

func (e *ProxyHandoffError) Error() string {
	return fmt.Sprintf("failed to pass hybrid connection details to proxy after %d attempts: %s", e.Attempts, e.Err)
}

func (e *ProxyHandoffError) Unwrap() error {
	return e.Err
}

// PoPBindingError is raised when the proxy doesn't accept the proof-of-possession access token
type PoPBindingError struct {
	Err        error
	Body       string
	StatusCode int
}

func (e *PoPBindingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to post access token to proxy: %s", e.Err)
	}
	return fmt.Sprintf("failed to post access token to proxy: status %d: %s", e.StatusCode, e.Body)
}

func (e *PoPBindingError) Unwrap() error {
	return e.Err
}

// DuplicateNameError is raised when the kubeconfig already has a different entry with the incoming name
// and the user didn't agree to overwrite it
type DuplicateNameError struct {
	Name    string
	Section string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("a different object named '%s' already exists in %s in your kubeconfig file", e.Name, e.Section)
}

// FileOperationError is raised when the kubeconfig file can't be read, parsed or written
type FileOperationError struct {
	Err  error
	Op   string
	Path string
}

func (e *FileOperationError) Error() string {
	return fmt.Sprintf("failed to %s '%s': %s", e.Op, e.Path, e.Err)
}

func (e *FileOperationError) Unwrap() error {
	return e.Err
}
