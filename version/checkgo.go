/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package version

import (
	"regexp"
	"runtime"
	"strings"

	goversion "github.com/hashicorp/go-version"

	liberr "github.com/nabbar/beng-proxy/errors"
)

// goVersionPattern extracts the dotted numeric prefix off runtime.Version(),
// discarding pre-release/build suffixes such as "rc1" or "devel".
var goVersionPattern = regexp.MustCompile(`^\d+(\.\d+){0,2}`)

// runtimeGoVersion strips the leading "go" off runtime.Version() and trims
// anything after the numeric dotted version.
func runtimeGoVersion() string {
	v := strings.TrimPrefix(runtime.Version(), "go")
	return goVersionPattern.FindString(v)
}

func (v *version) CheckGo(ver string, op string) liberr.Error {
	if ver == "" || op == "" {
		return ErrorGoVersionInit.Error(ErrorParamEmpty.Error(nil))
	}

	c, err := goversion.NewConstraint(op + " " + ver)
	if err != nil {
		return ErrorGoVersionInit.Error(err)
	}

	rtVer := runtimeGoVersion()
	if rtVer == "" {
		return ErrorGoVersionRuntime.Error(nil)
	}

	rv, err := goversion.NewVersion(rtVer)
	if err != nil {
		return ErrorGoVersionRuntime.Error(err)
	}

	if !c.Check(rv) {
		return ErrorGoVersionConstraint.Error(nil)
	}

	return nil
}
