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

// Package version stamps a built binary with the information the
// `beng-proxy version` CLI subcommand prints: package name, release,
// build hash, build date, license and the minimum Go toolchain the
// binary requires. A single immutable Version value is built once at
// startup via NewVersion and handed to every command that needs to report
// or enforce it.
package version

import (
	"time"

	liberr "github.com/nabbar/beng-proxy/errors"
)

// Version exposes build and license metadata for a running binary. All
// getters are safe for concurrent use: the underlying value never
// mutates after NewVersion returns.
type Version interface {
	// GetTime returns the parsed build date, or time.Now() if the date
	// string given to NewVersion could not be parsed.
	GetTime() time.Time
	// GetDate returns the build date formatted for display.
	GetDate() string

	// GetRootPackagePath returns the import path of the package NewVersion
	// was called from, walked up numSubPackage directories.
	GetRootPackagePath() string
	// GetPackage returns the package name given to NewVersion, or one
	// derived by reflection when it was empty or "noname".
	GetPackage() string
	// GetDescription returns the one-line package description.
	GetDescription() string
	// GetBuild returns the build identifier (commit hash, CI build number...).
	GetBuild() string
	// GetRelease returns the release/tag string.
	GetRelease() string
	// GetAuthor returns the author string, annotated with its source package.
	GetAuthor() string
	// GetPrefix returns the CLI/env-var prefix, upper-cased.
	GetPrefix() string
	// GetAppId returns a one-line runtime identity: release, OS/arch, Go runtime.
	GetAppId() string

	// GetHeader returns a one-line "package release (build X)" banner.
	GetHeader() string
	// GetInfo returns a multi-line release/build/date summary.
	GetInfo() string

	// GetLicenseName returns the license's display name.
	GetLicenseName() string
	// GetLicenseLegal returns the license's full legal text, followed by
	// the full text of every additional license given.
	GetLicenseLegal(additional ...license) string
	// GetLicenseBoiler returns the short copyright/license notice
	// conventionally placed atop a source file, followed by the notice
	// of every additional license given.
	GetLicenseBoiler(additional ...license) string
	// GetLicenseFull returns GetLicenseBoiler followed by GetLicenseLegal.
	GetLicenseFull(additional ...license) string

	// PrintInfo writes GetHeader to stderr.
	PrintInfo()
	// PrintLicense writes GetLicenseBoiler to stderr.
	PrintLicense(additional ...license)

	// CheckGo verifies the runtime's Go version against a constraint
	// ("1.21", ">=") built from ver and op. It returns ErrorGoVersionInit
	// if ver/op cannot be parsed into a constraint, and
	// ErrorGoVersionConstraint if the runtime does not satisfy it.
	CheckGo(ver string, op string) liberr.Error
}

// NewVersion builds an immutable Version.
//
//   - lic: the license this binary/package is distributed under.
//   - pkgName: the package name to report; if empty or "noname", it is
//     derived by reflection from reflectStruct's package.
//   - description: a one-line description of the package.
//   - dateString: the build date, parsed as RFC3339; falls back to
//     time.Now() when it cannot be parsed.
//   - build: the build identifier (commit hash, CI build number...).
//   - release: the release/tag string.
//   - author: the author/maintainer string.
//   - prefix: the CLI/env-var prefix.
//   - reflectStruct: any value whose type lives in the package whose
//     import path should seed GetRootPackagePath/GetPackage.
//   - numSubPackage: how many trailing path segments to trim off that
//     import path to reach the reported "root" package.
func NewVersion(lic license, pkgName, description, dateString, build, release, author, prefix string, reflectStruct interface{}, numSubPackage int) Version {
	return newVersion(lic, pkgName, description, dateString, build, release, author, prefix, reflectStruct, numSubPackage)
}
