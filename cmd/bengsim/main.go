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

// Command bengsim is a REPL for exercising address algebra and response
// cache fingerprinting without a live proxy: "apply", "expand" and
// "check" on address.Address values, and "fingerprint"/"expires" on
// cache/response. It exists for debugging configuration snippets
// interactively, the same role a shell package elsewhere in this repo
// fills for its own command surfaces.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"

	libadr "github.com/nabbar/beng-proxy/address"
	libcrp "github.com/nabbar/beng-proxy/cache/response"
	libcdc "github.com/nabbar/beng-proxy/httpcodec"
)

var commands = []prompt.Suggest{
	{Text: "apply", Description: "apply <base> <child> — overlay child onto base"},
	{Text: "relative", Description: "relative <base> <child> — reduce child relative to base"},
	{Text: "expand", Description: "expand <path> <k=v>... — substitute ${k} variables"},
	{Text: "check", Description: "check <path> — validate an Address for its Kind"},
	{Text: "fingerprint", Description: "fingerprint <method> <uri> — hash a cache key"},
	{Text: "expires", Description: "expires <age-seconds> <vary,...> — compute cache TTL"},
	{Text: "exit", Description: "quit the REPL"},
	{Text: "help", Description: "list commands"},
}

func main() {
	fmt.Println("bengsim — address/cache algebra REPL. Type 'help' for commands.")
	p := prompt.New(executor, completer, prompt.OptionPrefix(">>> "))
	p.Run()
}

func completer(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}

func executor(in string) {
	fields := strings.Fields(strings.TrimSpace(in))
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "exit", "quit":
		fmt.Println("bye")
		os.Exit(0)
	case "help":
		for _, c := range commands {
			fmt.Printf("  %-12s %s\n", c.Text, c.Description)
		}
	case "apply":
		runApply(fields[1:])
	case "relative":
		runRelative(fields[1:])
	case "expand":
		runExpand(fields[1:])
	case "check":
		runCheck(fields[1:])
	case "fingerprint":
		runFingerprint(fields[1:])
	case "expires":
		runExpires(fields[1:])
	default:
		fmt.Printf("unknown command %q — type 'help'\n", fields[0])
	}
}

func httpAddr(path string) libadr.Address {
	return libadr.Address{Kind: libadr.KindHTTP, Scheme: "http", Host: "backend", Port: 80, URLPath: path}
}

func runApply(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: apply <base-path> <child-path>")
		return
	}
	base := httpAddr(args[0])
	child := httpAddr(args[1])
	result := child.Apply(base)
	fmt.Printf("-> %s\n", result.URLPath)
}

func runRelative(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: relative <base-path> <child-path>")
		return
	}
	base := httpAddr(args[0])
	child := httpAddr(args[1])
	result := child.RelativeTo(base)
	fmt.Printf("-> %s\n", result.URLPath)
}

func runExpand(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: expand <path> [k=v ...]")
		return
	}
	vars := map[string]string{}
	for _, kv := range args[1:] {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			vars[parts[0]] = parts[1]
		}
	}
	a := httpAddr(args[0])
	result := a.Expand(vars)
	fmt.Printf("-> %s\n", result.URLPath)
}

func runCheck(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: check <path>")
		return
	}
	a := httpAddr(args[0])
	if err := a.Check(); err != nil {
		fmt.Printf("invalid: %v\n", err)
		return
	}
	fmt.Printf("valid, id=%d\n", a.GetId())
}

func runFingerprint(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: fingerprint <method> <uri>")
		return
	}
	fp := libcrp.Fingerprint(args[0], args[1], nil, libcdc.Headers{})
	fmt.Printf("-> %d\n", fp)
}

func runExpires(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: expires <age-seconds> [vary-header,...]")
		return
	}
	ageSec, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("bad age: %v\n", err)
		return
	}
	var vary []string
	if len(args) > 1 {
		vary = strings.Split(args[1], ",")
	}
	now := time.Now()
	ttl, ok := libcrp.CalcExpires(now, now.Add(time.Duration(ageSec)*time.Second), true, vary)
	if !ok {
		fmt.Println("-> not cacheable")
		return
	}
	fmt.Printf("-> cacheable for %s\n", ttl)
}
