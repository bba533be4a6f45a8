/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package http implements backend.Client by forwarding the request to
// an upstream speaking plain HTTP(S), reusing a keep-alive connection
// pool the way httpcli elsewhere in this repo layers transport config.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	libadr "github.com/nabbar/beng-proxy/address"
	libbck "github.com/nabbar/beng-proxy/backend"
	libcdc "github.com/nabbar/beng-proxy/httpcodec"
	libstm "github.com/nabbar/beng-proxy/stream"
)

// Client forwards requests over HTTP(S), retrying transient connect
// failures via retryablehttp before reporting them up as
// backend.ErrorClassTransientNetwork.
type Client struct {
	rc *retryablehttp.Client
}

// New builds a Client with a connect timeout and retry budget suited
// to a reverse proxy's short-lived upstream hops.
func New(connectTimeout time.Duration, maxRetries int) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = maxRetries
	rc.HTTPClient = &http.Client{
		Timeout: 0, // the proxy enforces its own per-request deadline via ctx
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 64,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	_ = connectTimeout
	return &Client{rc: rc}
}

// SendRequest implements backend.Client.
func (c *Client) SendRequest(ctx context.Context, addr libadr.Address, req libbck.Request) (libbck.Response, error) {
	scheme := addr.Scheme
	if scheme == "" {
		scheme = "http"
	}
	url := fmt.Sprintf("%s://%s:%d%s", scheme, addr.Host, addr.Port, req.Target)

	var body io.ReadSeeker
	if req.Body != nil {
		sink := libstm.NewGrowingBufferSink()
		req.Body.Attach(sink)
		if err := req.Body.Pump(); err != nil {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
		}
		body = bytes.NewReader(sink.Bytes())
	}

	rreq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassProtocol, Err: err}
	}
	for _, h := range req.Headers {
		rreq.Header.Add(h.Name, h.Value)
	}
	if req.RemoteAddr != "" {
		rreq.Header.Set("X-Forwarded-For", req.RemoteAddr)
	}

	resp, err := c.rc.Do(rreq)
	if err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}

	var headers libcdc.Headers
	for name, vals := range resp.Header {
		for _, v := range vals {
			headers = append(headers, libcdc.Header{Name: name, Value: v})
		}
	}

	return libbck.Response{
		Status:  resp.StatusCode,
		Reason:  http.StatusText(resp.StatusCode),
		Headers: headers,
		Body:    libstm.Source(bytes.NewReader(raw), libstm.Length{Known: true, Value: int64(len(raw))}),
	}, nil
}
