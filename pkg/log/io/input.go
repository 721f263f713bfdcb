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

package io

import (
	"errors"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// ErrNoTTY is returned when a question can't be asked because stdin is not a terminal
var ErrNoTTY = errors.New("stdin is not a terminal")

// InputController asks questions to the user
type InputController struct {
	in         io.ReadCloser
	out        io.WriteCloser
	isTerminal func() bool
	run        func(*promptui.Prompt) error
}

func newInputController(in *os.File, out *os.File) *InputController {
	return &InputController{
		in:  in,
		out: &bellSkipper{out},
		isTerminal: func() bool {
			return term.IsTerminal(int(in.Fd()))
		},
		run: func(p *promptui.Prompt) error {
			_, err := p.Run()
			return err
		},
	}
}

// AskYesNo asks a yes/no question. It returns ErrNoTTY when nobody can answer it.
func (ic *InputController) AskYesNo(q string) (bool, error) {
	if !ic.isTerminal() {
		return false, ErrNoTTY
	}
	prompt := &promptui.Prompt{
		Label:     q,
		IsConfirm: true,
		Stdin:     ic.in,
		Stdout:    ic.out,
	}
	if err := ic.run(prompt); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// bellSkipper writes to the wrapped writer skipping the terminal bell that readline rings on every key
type bellSkipper struct {
	w io.WriteCloser
}

func (b *bellSkipper) Write(p []byte) (int, error) {
	if len(p) == 1 && p[0] == readline.CharBell {
		return 0, nil
	}
	return b.w.Write(p)
}

func (b *bellSkipper) Close() error {
	return b.w.Close()
}
