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

package httpcodec

import (
	"strconv"
	"strings"
)

type parseState uint8

const (
	stateStartLine parseState = iota
	stateHeaders
	stateBodyFixed
	stateBodyChunkSize
	stateBodyChunkSizeCR
	stateBodyChunkData
	stateBodyChunkDataCR
	stateBodyChunkDataLF
	stateBodyChunkTrailer
	stateBodyUntilClose
	stateDone
	stateError
)

// bodyMode tells the parser how to recognize the end of the body once
// headers are parsed.
type bodyMode uint8

const (
	bodyNone bodyMode = iota
	bodyFixedLength
	bodyChunked
	bodyUntilClose
)

// Parser is a resumable HTTP/1.1 message parser. It is not safe for
// concurrent use; one Parser is owned by exactly one in-flight message.
type Parser struct {
	isResponse bool

	state parseState
	line  []byte

	req Request
	res Response

	mode       bodyMode
	remain     int64
	chunkBuf   []byte
	bodyChunk  []byte
	err        error
}

// Request holds a fully or partially parsed request.
type Request struct {
	Line    RequestLine
	Headers Headers
}

// Response holds a fully or partially parsed response.
type Response struct {
	Line    StatusLine
	Headers Headers
}

// NewRequestParser returns a Parser that decodes an HTTP request.
func NewRequestParser() *Parser { return &Parser{} }

// NewResponseParser returns a Parser that decodes an HTTP response.
func NewResponseParser() *Parser { return &Parser{isResponse: true} }

// Request returns the parsed request line and headers; valid once Feed
// has returned HeadersReady or later.
func (p *Parser) Request() Request { return p.req }

// Response returns the parsed status line and headers; valid once Feed
// has returned HeadersReady or later.
func (p *Parser) Response() Response { return p.res }

// BodyChunk returns the most recently decoded body span, valid only
// immediately after a Feed call that returned BodyChunk.
func (p *Parser) BodyChunk() []byte { return p.bodyChunk }

// Err returns the reason a Feed call returned ProtocolError.
func (p *Parser) Err() error { return p.err }

// Feed advances the parser with the next span of bytes read off the
// wire, returning consumed (always len(b) unless Done left a pipelined
// remainder, which the caller re-feeds to a new Parser) and the parser's
// milestone Result.
func (p *Parser) Feed(b []byte) (consumed int, result Result) {
	if p.state == stateError {
		return 0, ProtocolError
	}
	if p.state == stateDone {
		return 0, Done
	}

	p.bodyChunk = nil

	for consumed < len(b) {
		switch p.state {
		case stateStartLine, stateHeaders:
			c := b[consumed]
			consumed++
			if c == '\n' && len(p.line) > 0 && p.line[len(p.line)-1] == '\r' {
				line := string(p.line[:len(p.line)-1])
				p.line = p.line[:0]

				if p.state == stateStartLine {
					if err := p.parseStartLine(line); err != nil {
						p.fail(err)
						return consumed, ProtocolError
					}
					p.state = stateHeaders
					continue
				}

				if line == "" {
					if err := p.onHeadersComplete(); err != nil {
						p.fail(err)
						return consumed, ProtocolError
					}
					return consumed, HeadersReady
				}
				if err := p.parseHeaderLine(line); err != nil {
					p.fail(err)
					return consumed, ProtocolError
				}
				continue
			}
			if c != '\n' {
				p.line = append(p.line, c)
			}

		case stateBodyFixed:
			take := int64(len(b) - consumed)
			if take > p.remain {
				take = p.remain
			}
			if take > 0 {
				p.bodyChunk = b[consumed : consumed+int(take)]
				consumed += int(take)
				p.remain -= take
				if p.remain == 0 {
					p.state = stateDone
				}
				return consumed, BodyChunk
			}
			p.state = stateDone
			return consumed, Done

		case stateBodyUntilClose:
			p.bodyChunk = b[consumed:]
			consumed = len(b)
			return consumed, BodyChunk

		case stateBodyChunkSize, stateBodyChunkSizeCR, stateBodyChunkData,
			stateBodyChunkDataCR, stateBodyChunkDataLF, stateBodyChunkTrailer:
			n, res := p.feedChunked(b[consumed:])
			consumed += n
			if res != NeedMore {
				return consumed, res
			}

		case stateDone:
			return consumed, Done
		}
	}

	return consumed, NeedMore
}

func (p *Parser) fail(err error) {
	p.state = stateError
	p.err = err
}

func (p *Parser) parseStartLine(line string) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return ErrorMalformedStartLine.Errorf(line)
	}
	if p.isResponse {
		code, err := strconv.Atoi(parts[1])
		if err != nil {
			return ErrorMalformedStatusCode.Errorf(parts[1])
		}
		p.res.Line = StatusLine{Version: parts[0], Code: code, Reason: parts[2]}
	} else {
		p.req.Line = RequestLine{Method: parts[0], Target: parts[1], Version: parts[2]}
	}
	return nil
}

func (p *Parser) parseHeaderLine(line string) error {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return ErrorMalformedHeaderLine.Errorf(line)
	}
	name := strings.TrimSpace(line[:i])
	value := strings.TrimSpace(line[i+1:])
	h := Header{Name: name, Value: value}
	if p.isResponse {
		p.res.Headers = append(p.res.Headers, h)
	} else {
		p.req.Headers = append(p.req.Headers, h)
	}
	return nil
}

func (p *Parser) onHeadersComplete() error {
	headers := p.req.Headers
	if p.isResponse {
		headers = p.res.Headers
	}

	if !p.isResponse && NoBodyMethod(p.req.Line.Method) {
		p.mode = bodyNone
		p.state = stateDone
		return nil
	}
	if p.isResponse && NoBodyStatus(p.res.Line.Code) {
		p.mode = bodyNone
		p.state = stateDone
		return nil
	}

	if te, ok := headers.Get("Transfer-Encoding"); ok && strings.EqualFold(te, "chunked") {
		p.mode = bodyChunked
		p.state = stateBodyChunkSize
		return nil
	}
	if cl, ok := headers.Get("Content-Length"); ok {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return ErrorMalformedContentLength.Errorf(cl)
		}
		p.mode = bodyFixedLength
		p.remain = n
		if n == 0 {
			p.state = stateDone
		} else {
			p.state = stateBodyFixed
		}
		return nil
	}
	if p.isResponse {
		p.mode = bodyUntilClose
		p.state = stateBodyUntilClose
		return nil
	}
	p.mode = bodyNone
	p.state = stateDone
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (p *Parser) feedChunked(b []byte) (consumed int, result Result) {
	i := 0
	for i < len(b) {
		c := b[i]
		switch p.state {
		case stateBodyChunkSize:
			if c == '\r' {
				p.state = stateBodyChunkSizeCR
			} else if isHexDigit(c) {
				p.chunkBuf = append(p.chunkBuf, c)
			}
			i++
		case stateBodyChunkSizeCR:
			if c == '\n' {
				n, err := strconv.ParseInt(string(p.chunkBuf), 16, 64)
				if err != nil {
					p.fail(ErrorInvalidChunkSize.Error(err))
					return i + 1, ProtocolError
				}
				p.chunkBuf = p.chunkBuf[:0]
				p.remain = n
				if n == 0 {
					p.state = stateBodyChunkTrailer
				} else {
					p.state = stateBodyChunkData
				}
			}
			i++
		case stateBodyChunkData:
			take := int64(len(b) - i)
			if take > p.remain {
				take = p.remain
			}
			if take > 0 {
				p.bodyChunk = b[i : i+int(take)]
				i += int(take)
				p.remain -= take
				if p.remain == 0 {
					p.state = stateBodyChunkDataCR
				}
				return i, BodyChunk
			}
			p.state = stateBodyChunkDataCR
		case stateBodyChunkDataCR:
			if c == '\r' {
				p.state = stateBodyChunkDataLF
			}
			i++
		case stateBodyChunkDataLF:
			if c == '\n' {
				p.state = stateBodyChunkSize
			}
			i++
		case stateBodyChunkTrailer:
			if c == '\n' {
				p.state = stateDone
				return i + 1, Done
			}
			i++
		}
	}
	return i, NeedMore
}
