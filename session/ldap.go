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

package session

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// LDAPResolver implements AttributeResolver by running a single
// directory search per lookup. It never binds as the user being looked
// up and never checks a password — only realm.User attribute
// *resolution* for an identity the translation server has already
// established.
type LDAPResolver struct {
	Dial       func() (*ldap.Conn, error)
	BindDN     string
	BindPass   string
	BaseDN     string
	FilterUser string // one %s placeholder for the username
	Attributes []string
}

// UserInfo implements AttributeResolver.
func (r *LDAPResolver) UserInfo(username string) (map[string]string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrorInvalidID.Error(nil)
	}

	conn, err := r.Dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if r.BindDN != "" {
		if err = conn.Bind(r.BindDN, r.BindPass); err != nil {
			return nil, err
		}
	}

	attrs := append(append([]string(nil), r.Attributes...), "cn")
	req := ldap.NewSearchRequest(
		r.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		fmt.Sprintf(r.FilterUser, username),
		attrs,
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return nil, err
	}
	if len(res.Entries) != 1 {
		return nil, ErrorNotFound.Error(nil)
	}

	out := make(map[string]string, len(attrs)+1)
	for _, a := range attrs {
		out[a] = res.Entries[0].GetAttributeValue(a)
	}
	out["DN"] = res.Entries[0].DN
	return out, nil
}
