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

package azcli

import (
	"context"
	"encoding/json"
	"fmt"
)

// Account is the az CLI account a session runs as
type Account struct {
	SubscriptionID string `json:"id"`
	TenantID       string `json:"tenantId"`
}

// GetAccount returns the az CLI account of subscriptionID, or the default account if it is empty
func GetAccount(ctx context.Context, subscriptionID string) (*Account, error) {
	return getAccount(ctx, &LocalExec{}, subscriptionID)
}

func getAccount(ctx context.Context, e CommandExecutor, subscriptionID string) (*Account, error) {
	args := []string{"account", "show", "--output", "json"}
	if subscriptionID != "" {
		args = append(args, "--subscription", subscriptionID)
	}
	out, err := e.RunCommand(ctx, azBinary, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get the az CLI account: %w", err)
	}
	account := &Account{}
	if err := json.Unmarshal(out, account); err != nil {
		return nil, fmt.Errorf("failed to parse az CLI account: %w", err)
	}
	return account, nil
}
