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

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/okteto/clusterconnect/cmd"
	oktetoErrors "github.com/okteto/clusterconnect/pkg/errors"
	oktetoLog "github.com/okteto/clusterconnect/pkg/log/io"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ioCtrl := oktetoLog.NewIOController()
	root := cmd.NewRoot(ctx, ioCtrl)
	if err := root.Execute(); err != nil {
		ioCtrl.Out().Fail("%s", err.Error())
		var uErr oktetoErrors.UserError
		if errors.As(err, &uErr) && uErr.Hint != "" {
			ioCtrl.Out().Printf("    %s\n", uErr.Hint)
		}
		return 1
	}
	return 0
}
