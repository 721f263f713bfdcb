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

package clientproxy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okteto/clusterconnect/pkg/constants"
	"github.com/okteto/clusterconnect/pkg/refresh"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yml"
	configFileMode = os.FileMode(0600)
)

// ProxyConfig is the configuration file read by the proxy executable
type ProxyConfig struct {
	Identity *IdentityConfig `yaml:"identity,omitempty"`
	Server   ServerConfig    `yaml:"server"`
}

// ServerConfig has the ports the proxy listens on
type ServerConfig struct {
	HTTPPort  int `yaml:"httpPort"`
	HTTPSPort int `yaml:"httpsPort"`
}

// IdentityConfig is the application the proxy validates access tokens for
type IdentityConfig struct {
	TenantID string `yaml:"tenantID"`
	ClientID string `yaml:"clientID"`
}

// NewProxyConfig returns the proxy configuration of a session.
// servicePrincipalID is only used when mode is refresh.AADServicePrincipal.
func NewProxyConfig(internalPort, externalPort int, mode refresh.AuthMode, tenantID, servicePrincipalID string) *ProxyConfig {
	cfg := &ProxyConfig{
		Server: ServerConfig{
			HTTPPort:  internalPort,
			HTTPSPort: externalPort,
		},
	}
	switch mode {
	case refresh.AADUser:
		cfg.Identity = &IdentityConfig{TenantID: tenantID, ClientID: constants.ClientAppID}
	case refresh.AADServicePrincipal:
		cfg.Identity = &IdentityConfig{TenantID: tenantID, ClientID: servicePrincipalID}
	}
	return cfg
}

// Write replaces the configuration file in dir and returns its path
func (c *ProxyConfig) Write(fs afero.Fs, dir string) (string, error) {
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, configFileName)
	if err := fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to remove old config: %w", err)
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal proxy config: %w", err)
	}
	if err := afero.WriteFile(fs, path, b, configFileMode); err != nil {
		return "", fmt.Errorf("failed to create config for proxy: %w", err)
	}
	return path, nil
}

// Args returns the arguments the proxy executable is started with
func Args(configPath string, debug bool) []string {
	args := []string{"-c", configPath}
	if debug {
		args = append(args, "-d")
	}
	return args
}
