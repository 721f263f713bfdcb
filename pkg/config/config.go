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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/okteto/clusterconnect/pkg/constants"
)

const (
	clusterConnectFolderName = ".clusterconnect"
	clientProxyFolderName    = ".clientproxy"
	logFile                  = "clusterconnect.log"

	folderMode = 0700
)

// VersionString the version of the cli
var VersionString string

// GetBinaryName returns the name of the binary
func GetBinaryName() string {
	return filepath.Base(os.Args[0])
}

// GetUserHomeDir returns the OS home dir
func GetUserHomeDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("couldn't determine your home directory: %w", err)
	}
	return home, nil
}

// GetHome returns the folder where logs and settings are stored, creating it if needed
func GetHome() (string, error) {
	if v, ok := os.LookupEnv(constants.ClusterConnectHomeEnvVar); ok {
		if _, err := os.Stat(v); err != nil {
			return "", fmt.Errorf("%s points to a non-existing directory: %s", constants.ClusterConnectHomeEnvVar, v)
		}
		return v, nil
	}

	home, err := GetUserHomeDir()
	if err != nil {
		return "", err
	}
	d := filepath.Join(home, clusterConnectFolderName)
	if err := os.MkdirAll(d, folderMode); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", d, err)
	}
	return d, nil
}

// GetClientProxyHome returns the folder where the proxy executable and its config are installed
func GetClientProxyHome() (string, error) {
	home, err := GetUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, clientProxyFolderName), nil
}

// GetLogPath returns the path of the debug log file
func GetLogPath() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, logFile), nil
}

// GetKubeconfigPath returns the path to the kubeconfig file, taking the KUBECONFIG env var into consideration
func GetKubeconfigPath() (string, error) {
	if kubeconfigEnv := os.Getenv(constants.KubeConfigEnvVar); kubeconfigEnv != "" {
		return splitKubeConfigEnv(kubeconfigEnv, runtime.GOOS), nil
	}
	home, err := GetUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".kube", "config"), nil
}

func splitKubeConfigEnv(value, goos string) string {
	if goos == "windows" {
		return strings.Split(value, ";")[0]
	}
	return strings.Split(value, ":")[0]
}
