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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/okteto/clusterconnect/pkg/analytics"
	"github.com/okteto/clusterconnect/pkg/azcli"
	"github.com/okteto/clusterconnect/pkg/clientproxy"
	"github.com/okteto/clusterconnect/pkg/config"
	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	"github.com/okteto/clusterconnect/pkg/kubeconfig"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
	"github.com/okteto/clusterconnect/pkg/process"
	"github.com/okteto/clusterconnect/pkg/refresh"
	"github.com/okteto/clusterconnect/pkg/session"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"
)

// proxyOptions represents the proxy command options
type proxyOptions struct {
	resourceGroup    string
	name             string
	subscription     string
	tenant           string
	token            string
	kubeconfigPath   string
	contextName      string
	authMode         string
	proxyPath        string
	port             int
	debug            bool
	disableAnalytics bool
}

// Proxy opens a session with a connected cluster
func Proxy(ctx context.Context, ioCtrl *oktetoLog.IOController) *cobra.Command {
	o := &proxyOptions{}
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Get access to a connected cluster",
		Long: `Get access to a connected cluster through a local proxy.

The proxy listens on the given port and its kubeconfig is merged into your kubeconfig file.
Credentials are renewed before they expire until you close the proxy with Ctrl+C.

Access tokens of users logged in the az CLI are bearer tokens and are not bound to the
proxy public key. Use a service principal (AZURE_CLIENT_ID and AZURE_CLIENT_SECRET with
--auth-mode servicePrincipal) to get proof-of-possession tokens.

Examples:

  1. clusterconnect proxy -g my-group -n my-cluster
     - Opens a session as the user logged in the az CLI.

  2. clusterconnect proxy -g my-group -n my-cluster --token $TOKEN -f -
     - Opens a session with a service account token and prints the kubeconfig.
`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return o.run(ctx, ioCtrl)
		},
	}

	cmd.Flags().StringVarP(&o.resourceGroup, "resource-group", "g", "", "resource group of the connected cluster")
	cmd.Flags().StringVarP(&o.name, "name", "n", "", "name of the connected cluster")
	cmd.Flags().StringVar(&o.subscription, "subscription", "", "subscription of the connected cluster, the default az CLI subscription if empty")
	cmd.Flags().StringVar(&o.tenant, "tenant", "", "tenant of the identity, the az CLI account tenant if empty")
	cmd.Flags().StringVar(&o.token, "token", "", "service account token to authenticate against the cluster")
	cmd.Flags().StringVarP(&o.kubeconfigPath, "file", "f", "", "kubeconfig file to update, use '-' to print it (default: $KUBECONFIG or ~/.kube/config)")
	cmd.Flags().StringVar(&o.contextName, "context", "", "name of the context of the cluster in the kubeconfig")
	cmd.Flags().IntVar(&o.port, "port", constants.APIServerPort, "port kubectl talks to")
	cmd.Flags().StringVar(&o.authMode, "auth-mode", string(refresh.AADUser), "identity of the session when no token is given (user, servicePrincipal)")
	cmd.Flags().StringVar(&o.proxyPath, "proxy-path", "", "path of a proxy executable, it is downloaded if empty")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "show the proxy logs")
	cmd.Flags().BoolVar(&o.disableAnalytics, "disable-analytics", false, "don't send usage events")
	return cmd
}

// resolveAuthMode returns the session identity. A token always means a service account session.
func (o *proxyOptions) resolveAuthMode() (refresh.AuthMode, error) {
	if o.token != "" {
		return refresh.ServiceAccountToken, nil
	}
	mode, err := refresh.ParseAuthMode(o.authMode)
	if err != nil {
		return "", oktetoErrors.UserError{
			E:    err,
			Hint: "Use --auth-mode user or --auth-mode servicePrincipal",
		}
	}
	if mode == refresh.ServiceAccountToken {
		return "", oktetoErrors.UserError{
			E:    fmt.Errorf("auth mode '%s' requires a token", mode),
			Hint: "Pass the service account token through the --token flag",
		}
	}
	return mode, nil
}

func (o *proxyOptions) run(ctx context.Context, ioCtrl *oktetoLog.IOController) error {
	mode, err := o.resolveAuthMode()
	if err != nil {
		return err
	}
	if o.kubeconfigPath == "" {
		o.kubeconfigPath, err = config.GetKubeconfigPath()
		if err != nil {
			return err
		}
	}

	account, err := azcli.GetAccount(ctx, o.subscription)
	if err != nil {
		return oktetoErrors.UserError{
			E:    err,
			Hint: "Run 'az login' and try again",
		}
	}
	if o.tenant == "" {
		o.tenant = account.TenantID
	}

	pre := newPreflight()
	s := &session.Session{
		TenantID:       o.tenant,
		SubscriptionID: account.SubscriptionID,
		ResourceGroup:  o.resourceGroup,
		ClusterName:    o.name,
		KubeconfigPath: o.kubeconfigPath,
		ContextName:    o.contextName,
		AuthMode:       mode,
		InternalPort:   pre.internalPort(o.port),
		ExternalPort:   o.port,
		Debug:          o.debug,
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if err := pre.check(s); err != nil {
		return err
	}

	var spID, spSecret string
	if mode == refresh.AADServicePrincipal {
		spID, spSecret = os.Getenv(constants.ServicePrincipalIDEnvVar), os.Getenv(constants.ServicePrincipalSecretEnvVar)
		if spID == "" || spSecret == "" {
			return oktetoErrors.UserError{
				E:    errors.New("the service principal credentials are missing"),
				Hint: fmt.Sprintf("Set %s and %s", constants.ServicePrincipalIDEnvVar, constants.ServicePrincipalSecretEnvVar),
			}
		}
	}

	fs := afero.NewOsFs()
	proxyHome, err := config.GetClientProxyHome()
	if err != nil {
		return err
	}
	s.ProxyPath = o.proxyPath
	if s.ProxyPath == "" {
		s.ProxyPath, err = clientproxy.NewInstaller(fs, proxyHome, ioCtrl).Install(ctx)
		if err != nil {
			return err
		}
	}
	configPath, err := clientproxy.NewProxyConfig(s.InternalPort, s.ExternalPort, mode, s.TenantID, spID).Write(fs, proxyHome)
	if err != nil {
		return err
	}
	s.ProxyArgs = clientproxy.Args(configPath, o.debug)

	tracker := analytics.NewAnalyticsTracker(os.Getenv(constants.MixpanelTokenEnvVar), config.VersionString, o.disableAnalytics, ioCtrl)
	lister := clientproxy.NewARMClient(constants.ARMEndpoint, azcli.NewARMTokenSource(ctx, constants.ARMEndpoint, s.TenantID, s.SubscriptionID), ioCtrl)
	client := clientproxy.NewClient(
		clientproxy.Options{
			Cluster:      s.Cluster(),
			TenantID:     s.TenantID,
			StaticToken:  o.token,
			InternalPort: s.InternalPort,
			ExternalPort: s.ExternalPort,
		},
		lister,
		newPoPTokenAcquirer(mode, spID, spSecret, ioCtrl),
		tracker,
		clock.RealClock{},
		ioCtrl,
	)
	manager := session.NewManager(s, newLauncher(ioCtrl), client, kubeconfig.NewMerger(fs, ioCtrl), tracker, clock.RealClock{}, ioCtrl)

	ioCtrl.SetCluster(s.ClusterName)
	start := time.Now()
	err = manager.Run(ctx)
	canceled := errors.Is(err, context.Canceled)

	meta := analytics.ProxySessionMetadata{
		AuthMode: string(mode),
		Duration: time.Since(start),
		Success:  err == nil || canceled,
	}
	if !canceled {
		meta.Err = err
	}
	tracker.TrackProxyEnd(meta)

	if canceled {
		ioCtrl.Out().Infof("Proxy closed")
		return nil
	}
	return err
}

func newPoPTokenAcquirer(mode refresh.AuthMode, spID, spSecret string, ioCtrl *oktetoLog.IOController) clientproxy.PoPTokenAcquirer {
	switch mode {
	case refresh.AADUser:
		return azcli.NewUserPoPTokenAcquirer()
	case refresh.AADServicePrincipal:
		return azcli.NewServicePrincipalPoPTokenAcquirer(spID, spSecret, ioCtrl)
	default:
		return nil
	}
}

func newLauncher(ioCtrl *oktetoLog.IOController) session.Launcher {
	supervisor := process.NewSupervisor(ioCtrl)
	return session.LauncherFunc(func(path string, args []string, debug bool) (session.ProxyProcess, error) {
		p, err := supervisor.Start(path, args, debug)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}
