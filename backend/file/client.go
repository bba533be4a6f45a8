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

// Package file implements backend.Client by reading straight off the
// local filesystem, handing the open *os.File to the stream layer so
// the zero-copy splice path (stream.TryDirect) can serve it
// without an intermediate userspace copy.
package file

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	libadr "github.com/nabbar/beng-proxy/address"
	libbck "github.com/nabbar/beng-proxy/backend"
	libcdc "github.com/nabbar/beng-proxy/httpcodec"
	libstm "github.com/nabbar/beng-proxy/stream"
)

// Client serves files directly, synthesizing a 200/404 status and a
// Content-Type guessed from the file extension since there is no
// upstream to report one.
type Client struct{}

// New returns a Client.
func New() *Client { return &Client{} }

// SendRequest implements backend.Client.
func (c *Client) SendRequest(ctx context.Context, addr libadr.Address, req libbck.Request) (libbck.Response, error) {
	_ = ctx
	if req.Body != nil {
		_ = req.Body.Close()
	}

	f, err := os.Open(addr.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return libbck.Response{Status: http.StatusNotFound, Reason: "Not Found"}, nil
		}
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}
	if info.IsDir() {
		_ = f.Close()
		return libbck.Response{Status: http.StatusForbidden, Reason: "Forbidden"}, nil
	}

	ctype := mime.TypeByExtension(filepath.Ext(addr.FilePath))
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	headers := libcdc.Headers{
		{Name: "Content-Type", Value: ctype},
		{Name: "Content-Length", Value: fmt.Sprintf("%d", info.Size())},
	}

	return libbck.Response{
		Status:  http.StatusOK,
		Reason:  "OK",
		Headers: headers,
		Body:    libstm.Source(f, libstm.Length{Known: true, Exact: true, Value: info.Size()}),
	}, nil
}
