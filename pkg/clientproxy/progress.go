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
	"io"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	getter "github.com/hashicorp/go-getter"
	"golang.org/x/term"
)

// progressBar shows the progress of downloads on the terminal
type progressBar struct {
	out io.Writer
}

// newProgressBar returns nil if the output is not a terminal
func newProgressBar() getter.ProgressTracker {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	return &progressBar{out: os.Stdout}
}

// TrackProgress displays the progress of stream until it is closed. totalSize can be 0.
func (p *progressBar) TrackProgress(src string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	bar := pb.New64(totalSize).
		SetTemplate(pb.Full).
		SetWriter(p.out).
		Set("prefix", filepath.Base(src)+" ").
		SetCurrent(currentSize).
		Start()

	return &readCloser{
		Reader: bar.NewProxyReader(stream),
		close: func() error {
			bar.Finish()
			return stream.Close()
		},
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (c *readCloser) Close() error { return c.close() }
