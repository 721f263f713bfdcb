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

package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"time"
)

// DefaultTransport returns an *http.Transport lifted from http.DefaultTransport
// Main differences vs empty &http.Client{} are http2 preference, min TLS version set to 1.2, timeouts and connection limits.
//
// dev: reason why not doing pointer cloning is because not safe after init():
// - https://github.com/golang/go/issues/26013
func DefaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// StrictSSLTransport returns an *http.Transport with RootCAs set with both the SystemCertPool and the given certificates
// If obtaining SystemCertPool fails, it uses an empty *x509.CertPool as base
func StrictSSLTransport(opts *SSLTransportOption) *http.Transport {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}

	if opts != nil {
		for _, cert := range opts.Certs {
			pool.AddCert(cert)
		}
	}

	transport := DefaultTransport()
	transport.TLSClientConfig.RootCAs = pool

	return transport
}

// LoopbackTransport returns an *http.Transport that only dials loopback addresses.
// The local proxy serves a self-signed certificate, so verification is skipped for this transport only.
func LoopbackTransport() *http.Transport {
	hosts := LoopbackHosts()
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := DefaultTransport()
	transport.Proxy = nil
	transport.ForceAttemptHTTP2 = false
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if !hosts.Contains(addr) {
			return nil, fmt.Errorf("refusing to dial non loopback address %s", addr)
		}
		return dialer.DialContext(ctx, network, addr)
	}
	transport.TLSClientConfig.InsecureSkipVerify = true // skipcq: GSC-G402

	return transport
}
