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

package address

import "github.com/nabbar/beng-proxy/errors"

const (
	ErrorUnsetAddress errors.CodeError = iota + errors.MinPkgAddress
	ErrorMissingHost
	ErrorMissingPort
	ErrorMissingSocketPath
	ErrorMissingHostPortOrSocketPath
	ErrorMissingScriptFilename
	ErrorMissingProcessExecutable
	ErrorMissingExecutable
	ErrorMissingFilePath
	ErrorUnknownKind
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorUnsetAddress)
	errors.RegisterIdFctMessage(ErrorUnsetAddress, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorUnsetAddress:
		return "address is unset (Kind is NONE)"
	case ErrorMissingHost:
		return "missing host for %s address"
	case ErrorMissingPort:
		return "missing port for %s address"
	case ErrorMissingSocketPath:
		return "missing socket path for %s address"
	case ErrorMissingHostPortOrSocketPath:
		return "missing host:port or socket path for %s address"
	case ErrorMissingScriptFilename:
		return "missing script filename for %s address"
	case ErrorMissingProcessExecutable:
		return "missing process executable for %s address"
	case ErrorMissingExecutable:
		return "missing executable for %s address"
	case ErrorMissingFilePath:
		return "missing file path for %s address"
	case ErrorUnknownKind:
		return "unknown address kind %q"
	}

	return ""
}
