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

package stream

import "github.com/nabbar/beng-proxy/errors"

const (
	ErrorHeadExceeded errors.CodeError = iota + errors.MinPkgStream
	ErrorTimeout
	ErrorNoFillBucketList
	ErrorNoOnDirect
	ErrorDechunkInvalidSize
	ErrorIconvUnknownSourceCharset
	ErrorIconvUnknownTargetCharset
	ErrorIconvDecode
	ErrorIconvEncode
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorHeadExceeded)
	errors.RegisterIdFctMessage(ErrorHeadExceeded, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorHeadExceeded:
		return "Head length exceeded"
	case ErrorTimeout:
		return "timeout"
	case ErrorNoFillBucketList:
		return "%s does not support FillBucketList"
	case ErrorNoOnDirect:
		return "%s does not support OnDirect"
	case ErrorDechunkInvalidSize:
		return "Dechunk: invalid chunk size"
	case ErrorIconvUnknownSourceCharset:
		return "Iconv: unknown source charset %q"
	case ErrorIconvUnknownTargetCharset:
		return "Iconv: unknown target charset %q"
	case ErrorIconvDecode:
		return "Iconv: decode"
	case ErrorIconvEncode:
		return "Iconv: encode"
	}

	return ""
}
