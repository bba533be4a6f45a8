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

package response

import (
	"strings"
	"time"
)

const (
	ageLimitDefault = time.Hour
	ageLimitWidget  = 30 * time.Minute
	ageLimitUser    = 5 * time.Minute
	ageLimitNoVary  = 7 * 24 * time.Hour
)

// ageLimit returns the upper bound on how long a response may stay
// cached given the header names its Vary names, tightest rule first: a
// per-user response (Cookie/Cookie2/X-CM4all-Beng-User in Vary) beats a
// per-widget one (X-WidgetId/X-WidgetHref in Vary), which beats the
// plain default; an empty Vary gets the loosest, week-long bound.
func ageLimit(vary []string) time.Duration {
	if len(vary) == 0 {
		return ageLimitNoVary
	}

	hasUser, hasWidget := false, false
	for _, name := range vary {
		switch strings.ToLower(name) {
		case "cookie", "cookie2", "x-cm4all-beng-user":
			hasUser = true
		case "x-widgetid", "x-widgethref":
			hasWidget = true
		}
	}

	if hasUser {
		return ageLimitUser
	}
	if hasWidget {
		return ageLimitWidget
	}
	return ageLimitDefault
}

// CalcExpires picks min(headerExpires−nowSystem, vary-dependent age
// limit) the way http_cache_calc_expires does, returning ok=false when
// the response is already past its Expires header (must not be cached
// at all) or hasHeaderExpires is false and the no-Expires 1-hour default
// applies instead.
func CalcExpires(nowSystem time.Time, headerExpires time.Time, hasHeaderExpires bool, vary []string) (time.Duration, bool) {
	maxAge := ageLimitDefault
	if hasHeaderExpires {
		if !headerExpires.After(nowSystem) {
			return 0, false
		}
		maxAge = headerExpires.Sub(nowSystem)
	}

	if limit := ageLimit(vary); limit < maxAge {
		maxAge = limit
	}
	return maxAge, true
}
