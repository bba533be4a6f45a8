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

// Package nfs implements backend.Client for files served off a
// mounted NFS export. No real NFSv3 client exists anywhere in the
// retrieved corpus, so this is a buffer-backed stub against the same
// backend.Client contract as the file package: it reads the already
// locally-mounted path through the kernel's NFS client rather than
// speaking the NFS wire protocol itself, but is kept as its own
// package (not merged into file/) so a real NFSv3 client can be
// swapped in later without touching call sites.
package nfs

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	libadr "github.com/nabbar/beng-proxy/address"
	libbck "github.com/nabbar/beng-proxy/backend"
	libcdc "github.com/nabbar/beng-proxy/httpcodec"
	libstm "github.com/nabbar/beng-proxy/stream"
)

// Client reads a file off an NFS mount, buffering it fully rather than
// assuming the mount supports the splice path local disk does.
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
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
	}

	ctype := mime.TypeByExtension(filepath.Ext(addr.FilePath))
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	headers := libcdc.Headers{{Name: "Content-Type", Value: ctype}}
	return libbck.Response{
		Status:  http.StatusOK,
		Reason:  "OK",
		Headers: headers,
		Body:    libstm.Source(bytes.NewReader(raw), libstm.Length{Known: true, Exact: true, Value: int64(len(raw))}),
	}, nil
}
