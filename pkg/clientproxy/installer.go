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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	getter "github.com/hashicorp/go-getter"
	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
	"github.com/spf13/afero"
)

const (
	binaryPrefix = "arcProxy"
	// skipcq GSC-G302 the proxy is a binary so it needs exec permissions
	binaryFileMode = os.FileMode(0700)
	installDirMode = os.FileMode(0700)
)

// downloadFunc downloads src into the local file dst
type downloadFunc func(ctx context.Context, src, dst string, progress getter.ProgressTracker) error

// Installer downloads the proxy executable on first use
type Installer struct {
	fs       afero.Fs
	ioCtrl   *oktetoLog.IOController
	download downloadFunc
	progress getter.ProgressTracker

	dir     string
	goos    string
	version string
	baseURL string
}

// NewInstaller returns an installer that keeps the proxy executables in dir
func NewInstaller(fs afero.Fs, dir string, ioCtrl *oktetoLog.IOController) *Installer {
	return &Installer{
		fs:       fs,
		ioCtrl:   ioCtrl,
		download: getterDownload,
		progress: newProgressBar(),
		dir:      dir,
		goos:     runtime.GOOS,
		version:  constants.ClientProxyVersion,
		baseURL:  constants.ClientProxyStorageURL,
	}
}

// OSName returns the name the proxy executables use for the operating system
func OSName(goos string) (string, error) {
	switch goos {
	case "windows":
		return "Windows", nil
	case "linux":
		return "Linux", nil
	case "darwin":
		return "Darwin", nil
	}
	return "", fmt.Errorf("the %s platform is not currently supported: %w", goos, oktetoErrors.ErrUnsupportedPlatform)
}

// ProcessName returns the name of running proxy processes, whatever their version
func ProcessName(goos string) (string, error) {
	osName, err := OSName(goos)
	if err != nil {
		return "", err
	}
	return binaryPrefix + osName, nil
}

func (i *Installer) binaryName() (string, error) {
	name, err := ProcessName(i.goos)
	if err != nil {
		return "", err
	}
	name += i.version
	if i.goos == "windows" {
		name += ".exe"
	}
	return name, nil
}

func (i *Installer) downloadURL(name string) string {
	releaseDate := constants.ClientProxyReleaseDateLinux
	if i.goos == "windows" {
		releaseDate = constants.ClientProxyReleaseDateWindows
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(i.baseURL, "/"), releaseDate, name)
}

// Install returns the path of the proxy executable, downloading it if it is not installed yet.
// Older versions of the executable are removed.
func (i *Installer) Install(ctx context.Context) (string, error) {
	name, err := i.binaryName()
	if err != nil {
		return "", err
	}
	path := filepath.Join(i.dir, name)

	if exists, err := afero.Exists(i.fs, path); err != nil {
		return "", fmt.Errorf("failed to check %s: %w", path, err)
	} else if exists {
		i.ioCtrl.Logger().Debug("proxy already installed", "path", path)
		return path, nil
	}

	i.ioCtrl.Out().Infof("Setting up environment for first time use. This can take few minutes...")
	if err := i.fs.MkdirAll(i.dir, installDirMode); err != nil {
		return "", fmt.Errorf("failed to create installation directory: %w", err)
	}

	content, err := i.fetch(ctx, name)
	if err != nil {
		return "", err
	}

	i.pruneOlderVersions(name)

	if err := afero.WriteFile(i.fs, path, content, binaryFileMode); err != nil {
		return "", fmt.Errorf("failed to create proxy executable: %w", err)
	}
	i.ioCtrl.Logger().Info("proxy installed", "version", i.version, "path", path)
	return path, nil
}

func (i *Installer) fetch(ctx context.Context, name string) ([]byte, error) {
	tmp, err := os.MkdirTemp("", "clientproxy")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp download dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	src := i.downloadURL(name)
	dst := filepath.Join(tmp, name)
	if err := i.download(ctx, src, dst, i.progress); err != nil {
		return nil, fmt.Errorf("failed to download proxy executable from %s, please check your internet connection: %w", src, err)
	}
	content, err := os.ReadFile(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to read downloaded executable: %w", err)
	}
	return content, nil
}

// pruneOlderVersions removes the installed executables with a version lower than the current one
func (i *Installer) pruneOlderVersions(current string) {
	prefix, _ := ProcessName(i.goos)
	currentVersion, err := semver.NewVersion(i.version)
	if err != nil {
		i.ioCtrl.Logger().Debug("failed to parse proxy version", "version", i.version, "error", err)
		return
	}

	matches, err := afero.Glob(i.fs, filepath.Join(i.dir, prefix+"*"))
	if err != nil {
		i.ioCtrl.Logger().Debug("failed to list older proxy versions", "error", err)
		return
	}
	for _, m := range matches {
		name := filepath.Base(m)
		if name == current {
			continue
		}
		v, err := semver.NewVersion(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".exe"))
		if err != nil || !v.LessThan(currentVersion) {
			continue
		}
		if err := i.fs.Remove(m); err != nil {
			i.ioCtrl.Out().Warning("failed to delete older version %s: %s", m, err)
		}
	}
}

func getterDownload(ctx context.Context, src, dst string, progress getter.ProgressTracker) error {
	opts := []getter.ClientOption{}
	if progress != nil {
		opts = append(opts, getter.WithProgress(progress))
	}
	client := &getter.Client{
		Ctx:     ctx,
		Src:     src,
		Dst:     dst,
		Mode:    getter.ClientModeFile,
		Options: opts,
	}
	return client.Get()
}
