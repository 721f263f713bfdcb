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
	"github.com/okteto/clusterconnect/pkg/config"
	"github.com/okteto/clusterconnect/pkg/constants"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
	"github.com/spf13/cobra"
)

// Version returns information about the binary
func Version(ioCtrl *oktetoLog.IOController) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "View the version of the clusterconnect binary",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ioCtrl.Out().Printf("clusterconnect version %s\n", config.VersionString)
			ioCtrl.Out().Printf("proxy version %s\n", constants.ClientProxyVersion)
			return nil
		},
	}
}
