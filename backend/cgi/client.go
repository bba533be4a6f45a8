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

// Package cgi implements backend.Client by fork+exec'ing the target
// script per request and speaking the classic CGI/1.1 environment
// variable + stdin/stdout convention.
package cgi

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	libadr "github.com/nabbar/beng-proxy/address"
	libbck "github.com/nabbar/beng-proxy/backend"
	libcdc "github.com/nabbar/beng-proxy/httpcodec"
	libstm "github.com/nabbar/beng-proxy/stream"
)

// Client runs one interpreter/script process per request.
type Client struct{}

// New returns a Client.
func New() *Client { return &Client{} }

// SendRequest implements backend.Client.
func (c *Client) SendRequest(ctx context.Context, addr libadr.Address, req libbck.Request) (libbck.Response, error) {
	addr = addr.AutoBase()

	var stdin []byte
	if req.Body != nil {
		sink := libstm.NewGrowingBufferSink()
		req.Body.Attach(sink)
		if err := req.Body.Pump(); err != nil {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
		}
		stdin = sink.Bytes()
	}

	cmd := exec.CommandContext(ctx, addr.ScriptFilename)
	cmd.Dir = addr.DocumentRoot
	cmd.Env = buildEnv(addr, req, len(stdin))
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassTransientNetwork, Err: err}
		}
	}

	return parseCGIOutput(stdout.Bytes())
}

func buildEnv(addr libadr.Address, req libbck.Request, contentLength int) []string {
	env := []string{
		"GATEWAY_INTERFACE=CGI/1.1",
		"SERVER_PROTOCOL=HTTP/1.1",
		"REQUEST_METHOD=" + req.Method,
		"SCRIPT_FILENAME=" + addr.ScriptFilename,
		"DOCUMENT_ROOT=" + addr.DocumentRoot,
		"PATH_INFO=" + addr.PathInfo,
		"QUERY_STRING=" + addr.QueryString,
		"REMOTE_ADDR=" + req.RemoteAddr,
		"REQUEST_URI=" + req.Target,
		fmt.Sprintf("CONTENT_LENGTH=%d", contentLength),
	}
	for _, h := range req.Headers {
		if h.Name == "Content-Type" {
			env = append(env, "CONTENT_TYPE="+h.Value)
			continue
		}
		env = append(env, "HTTP_"+envName(h.Name)+"="+h.Value)
	}
	return env
}

func envName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			out[i] = c - 'a' + 'A'
		case c == '-':
			out[i] = '_'
		default:
			out[i] = c
		}
	}
	return string(out)
}

// parseCGIOutput splits a "Header: value\r\n...\r\n\r\nbody" stdout
// capture into a backend.Response, defaulting to 200 when no Status
// header is present. Shared in shape with fastcgi's parser since both
// backends emit the same CGI/1.1 output convention.
func parseCGIOutput(raw []byte) (libbck.Response, error) {
	p := libcdc.NewResponseParser()
	synth := append([]byte("HTTP/1.1 200 OK\r\n"), raw...)

	var headers libcdc.Headers
	bodyStart := 0
	total := 0
	for {
		n, res := p.Feed(synth[total:])
		total += n
		if res == libcdc.HeadersReady {
			headers = p.Response().Headers
			bodyStart = total
			break
		}
		if res == libcdc.ProtocolError {
			return libbck.Response{}, &libbck.Error{Class: libbck.ErrorClassProtocol, Err: p.Err()}
		}
		if n == 0 {
			break
		}
	}

	status := 200
	for _, h := range headers {
		if h.Name == "Status" {
			fmt.Sscanf(h.Value, "%d", &status)
		}
	}

	body := synth[bodyStart:]
	return libbck.Response{
		Status:  status,
		Headers: headers,
		Body:    libstm.Source(bytes.NewReader(body), libstm.Length{Known: true, Exact: true, Value: int64(len(body))}),
	}, nil
}
