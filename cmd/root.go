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
	"fmt"

	"github.com/okteto/clusterconnect/pkg/config"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
	"github.com/spf13/cobra"
)

const logLevelFlag = "log-level"

type rootOptions struct {
	logLevel  string
	logOutput string
}

// NewRoot returns the root command of the CLI
func NewRoot(ctx context.Context, ioCtrl *oktetoLog.IOController) *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:           fmt.Sprintf("%s COMMAND [ARG...]", config.GetBinaryName()),
		Short:         "Access connected kubernetes clusters from anywhere",
		SilenceErrors: true,
		PersistentPreRunE: func(ccmd *cobra.Command, _ []string) error {
			ccmd.SilenceUsage = true
			return o.configureIO(ccmd, ioCtrl)
		},
	}

	root.PersistentFlags().StringVarP(&o.logLevel, logLevelFlag, "l", oktetoLog.WarnLevel, "amount of information outputted (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&o.logOutput, "log-output", oktetoLog.TTYFormat, "output format for logs (tty, plain, json)")

	root.AddCommand(Proxy(ctx, ioCtrl))
	root.AddCommand(Version(ioCtrl))
	return root
}

// configureIO sends logs to the debug log file unless the user asked for a log level
func (o *rootOptions) configureIO(ccmd *cobra.Command, ioCtrl *oktetoLog.IOController) error {
	if err := oktetoLog.ValidateLevel(o.logLevel); err != nil {
		return oktetoErrors.UserError{
			E:    err,
			Hint: "Use one of debug, info, warn or error",
		}
	}
	switch o.logOutput {
	case oktetoLog.TTYFormat, oktetoLog.PlainFormat, oktetoLog.JSONFormat:
	default:
		return oktetoErrors.UserError{
			E:    fmt.Errorf("invalid log output '%s'", o.logOutput),
			Hint: "Use one of tty, plain or json",
		}
	}

	if ccmd.Flags().Changed(logLevelFlag) {
		ioCtrl.SetLevel(o.logLevel)
	} else if logPath, err := config.GetLogPath(); err == nil {
		ioCtrl.ConfigureFileLogger(logPath)
	}
	ioCtrl.SetOutputFormat(o.logOutput)
	return nil
}
