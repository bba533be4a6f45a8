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
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"
)

type version struct {
	lic     license
	pkg     string
	desc    string
	date    time.Time
	build   string
	release string
	author  string
	prefix  string
	root    string
}

func newVersion(lic license, pkgName, description, dateString, build, release, author, prefix string, reflectStruct interface{}, numSubPackage int) *version {
	t, err := time.Parse(time.RFC3339, dateString)
	if err != nil {
		t = time.Now()
	}

	root := extractRootPackagePath(reflectStruct, numSubPackage)

	pkg := pkgName
	if pkg == "" || pkg == "noname" {
		pkg = lastPathSegment(reflect.TypeOf(reflectStruct).PkgPath())
	}

	return &version{
		lic:     lic,
		pkg:     pkg,
		desc:    description,
		date:    t,
		build:   build,
		release: release,
		author:  author,
		prefix:  prefix,
		root:    root,
	}
}

// extractRootPackagePath returns reflectStruct's import path, walked up
// numSubPackage path segments (clamped so at least one segment remains).
func extractRootPackagePath(reflectStruct interface{}, numSubPackage int) string {
	pkgPath := reflect.TypeOf(reflectStruct).PkgPath()
	parts := strings.Split(pkgPath, "/")

	n := numSubPackage
	if n < 0 {
		n = 0
	}
	if n > len(parts)-1 {
		n = len(parts) - 1
	}

	cut := len(parts) - n
	if cut < 1 {
		cut = 1
	}

	return strings.Join(parts[:cut], "/")
}

func lastPathSegment(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}

func (v *version) GetTime() time.Time {
	return v.date
}

func (v *version) GetDate() string {
	return v.date.Format("2006-01-02 15:04:05 MST")
}

func (v *version) GetRootPackagePath() string {
	return v.root
}

func (v *version) GetPackage() string {
	return v.pkg
}

func (v *version) GetDescription() string {
	return v.desc
}

func (v *version) GetBuild() string {
	return v.build
}

func (v *version) GetRelease() string {
	return v.release
}

func (v *version) GetAuthor() string {
	return fmt.Sprintf("%s (source: %s)", v.author, v.root)
}

func (v *version) GetPrefix() string {
	return strings.ToUpper(v.prefix)
}

func (v *version) GetAppId() string {
	return fmt.Sprintf("%s %s/%s (Runtime: %s)", v.release, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func (v *version) GetHeader() string {
	return fmt.Sprintf("%s %s (build %s)", v.pkg, v.release, v.build)
}

func (v *version) GetInfo() string {
	return fmt.Sprintf("Package: %s\nDescription: %s\nRelease: %s\nBuild: %s\nDate: %s\nAuthor: %s\n",
		v.pkg, v.desc, v.release, v.build, v.GetDate(), v.author)
}

func (v *version) GetLicenseName() string {
	return licenseName(v.lic)
}

func (v *version) GetLicenseLegal(additional ...license) string {
	out := licenseLegal(v.lic)
	for _, a := range additional {
		out += "\n" + licenseSeparator + "\n" + licenseLegal(a) + "\n" + licenseSeparator + "\n"
	}
	return out
}

func (v *version) GetLicenseBoiler(additional ...license) string {
	out := licenseBoiler(v.lic, v.pkg, v.desc, v.author, v.date.Year())
	for _, a := range additional {
		out += "\n" + licenseSeparator + "\n" + licenseBoiler(a, v.pkg, v.desc, v.author, v.date.Year()) + "\n" + licenseSeparator + "\n"
	}
	return out
}

func (v *version) GetLicenseFull(additional ...license) string {
	return v.GetLicenseBoiler(additional...) + "\n" + licenseSeparator + "\n" + v.GetLicenseLegal(additional...)
}

func (v *version) PrintInfo() {
	println(v.GetHeader())
}

func (v *version) PrintLicense(additional ...license) {
	println(v.GetLicenseBoiler(additional...))
}
