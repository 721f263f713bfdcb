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

package kubeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	"github.com/okteto/clusterconnect/pkg/log/io"
	"github.com/spf13/afero"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

const (
	adminUserPrefix    = "clusterAdmin"
	adminContextSuffix = "-admin"
	kubeconfigFileMode = os.FileMode(0600)
	kubeconfigDirMode  = os.FileMode(0700)
	overwriteQuestion  = "A different object named %s already exists in your kubeconfig file.\nOverwrite"
	clustersSection    = "clusters"
	usersSection       = "users"
	contextsSection    = "contexts"
	windowsOS          = "windows"
	unknownContextName = "UNKNOWN"
)

// Merger merges the kubeconfig returned by the proxy into the user kubeconfig file
type Merger struct {
	fs     afero.Fs
	ioCtrl *io.IOController
	ask    func(q string) (bool, error)
	goos   string
}

// NewMerger returns a Merger that reads and writes files in fs
func NewMerger(fs afero.Fs, ioCtrl *io.IOController) *Merger {
	return &Merger{
		fs:     fs,
		ioCtrl: ioCtrl,
		ask:    ioCtrl.AskYesNo,
		goos:   runtime.GOOS,
	}
}

// Merge merges incoming into the kubeconfig file at path and returns the resulting current context.
// If path is "-" the incoming kubeconfig is printed instead.
// Entries of the file that share a name with an incoming entry are replaced when overwrite is set or
// both are identical, otherwise the user is asked. Nothing is written if any step fails.
func (m *Merger) Merge(path string, incoming []byte, overwrite bool, contextName string) (string, error) {
	if path == constants.StdoutKubeconfigPath {
		m.ioCtrl.Out().Raw(incoming)
		return "", nil
	}

	addition, err := clientcmd.Load(incoming)
	if err != nil {
		return "", &oktetoErrors.FileOperationError{Op: "parse incoming kubeconfig for", Path: path, Err: err}
	}

	if err := m.ensureFile(path); err != nil {
		return "", err
	}

	existingBytes, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return "", &oktetoErrors.FileOperationError{Op: "read", Path: path, Err: err}
	}
	existing, err := load(existingBytes)
	if err != nil {
		return "", &oktetoErrors.FileOperationError{Op: "parse", Path: path, Err: err}
	}

	if contextName != "" {
		renameContext(addition, contextName)
	}
	renameAdminContexts(addition)

	merged := addition
	if !isEmpty(existing) {
		if err := mergeSection(existing.Clusters, addition.Clusters, clustersSection, overwrite, m.ask); err != nil {
			return "", err
		}
		if err := mergeSection(existing.AuthInfos, addition.AuthInfos, usersSection, overwrite, m.ask); err != nil {
			return "", err
		}
		if err := mergeSection(existing.Contexts, addition.Contexts, contextsSection, overwrite, m.ask); err != nil {
			return "", err
		}
		existing.CurrentContext = addition.CurrentContext
		merged = existing
	}

	m.warnPermissions(path)

	out, err := clientcmd.Write(*merged)
	if err != nil {
		return "", &oktetoErrors.FileOperationError{Op: "serialize", Path: path, Err: err}
	}
	if err := afero.WriteFile(m.fs, path, out, kubeconfigFileMode); err != nil {
		return "", &oktetoErrors.FileOperationError{Op: "write", Path: path, Err: err}
	}

	current := addition.CurrentContext
	if current == "" {
		current = unknownContextName
	}
	m.ioCtrl.Out().Success("Merged %q as current context in %s", current, path)
	return addition.CurrentContext, nil
}

// ensureFile creates an empty kubeconfig readable only by its owner if it doesn't exist yet
func (m *Merger) ensureFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := m.fs.MkdirAll(dir, kubeconfigDirMode); err != nil {
			return &oktetoErrors.FileOperationError{Op: "create the kubeconfig directory of", Path: path, Err: err}
		}
	}
	if _, err := m.fs.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return &oktetoErrors.FileOperationError{Op: "stat", Path: path, Err: err}
	}
	f, err := m.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY, kubeconfigFileMode)
	if err != nil {
		return &oktetoErrors.FileOperationError{Op: "create", Path: path, Err: err}
	}
	return f.Close()
}

func (m *Merger) warnPermissions(path string) {
	if m.goos == windowsOS {
		return
	}
	info, err := m.fs.Stat(path)
	if err != nil {
		m.ioCtrl.Logger().Debug("could not check kubeconfig permissions", "path", path, "error", err)
		return
	}
	if perm := info.Mode().Perm(); perm != kubeconfigFileMode {
		m.ioCtrl.Out().Warning("%s has permissions \"%o\".\nIt should be readable and writable only by its owner.", path, perm)
	}
}

func load(data []byte) (*clientcmdapi.Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return clientcmdapi.NewConfig(), nil
	}
	return clientcmd.Load(data)
}

func isEmpty(cfg *clientcmdapi.Config) bool {
	return len(cfg.Clusters) == 0 && len(cfg.AuthInfos) == 0 && len(cfg.Contexts) == 0 && cfg.CurrentContext == ""
}

// renameContext renames the incoming context, the cluster it points to and the current context to name
func renameContext(cfg *clientcmdapi.Config, name string) {
	names := sortedKeys(cfg.Contexts)
	if len(names) == 0 {
		return
	}
	old := names[0]
	ctx := cfg.Contexts[old]
	delete(cfg.Contexts, old)

	if cluster, ok := cfg.Clusters[ctx.Cluster]; ok {
		delete(cfg.Clusters, ctx.Cluster)
		cfg.Clusters[name] = cluster
	}
	ctx.Cluster = name
	cfg.Contexts[name] = ctx
	cfg.CurrentContext = name
}

// renameAdminContexts appends "-admin" to the contexts of admin users so they don't shadow the user context
func renameAdminContexts(cfg *clientcmdapi.Config) {
	for _, name := range sortedKeys(cfg.Contexts) {
		ctx := cfg.Contexts[name]
		if ctx == nil || !strings.HasPrefix(ctx.AuthInfo, adminUserPrefix) {
			continue
		}
		adminName := name + adminContextSuffix
		delete(cfg.Contexts, name)
		cfg.Contexts[adminName] = ctx
		if cfg.CurrentContext == name {
			cfg.CurrentContext = adminName
		}
	}
}

// mergeSection adds every incoming entry to existing, keyed by name
func mergeSection[T any](existing, addition map[string]T, section string, overwrite bool, ask func(string) (bool, error)) error {
	for _, name := range sortedKeys(addition) {
		entry := addition[name]
		current, found := existing[name]
		if found && !overwrite && !equality.Semantic.DeepEqual(current, entry) {
			ok, err := ask(fmt.Sprintf(overwriteQuestion, name))
			if err != nil || !ok {
				return &oktetoErrors.DuplicateNameError{Name: name, Section: section}
			}
		}
		existing[name] = entry
	}
	return nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
