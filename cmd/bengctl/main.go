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

// Command bengctl is a control-protocol client for beng-proxy's ctrlbus
// UDP channel: one-shot subcommands for scripting (invalidate, enable,
// disable, dump, rotate) plus a "watch" subcommand that drives a
// bubbletea TUI while a batch of node operations runs.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	color "github.com/fatih/color"
	spfcbr "github.com/spf13/cobra"
	mpb "github.com/vbauerster/mpb/v8"
	mpbd "github.com/vbauerster/mpb/v8/decor"

	libctb "github.com/nabbar/beng-proxy/ctrlbus"
)

func main() {
	var addr string

	root := &spfcbr.Command{
		Use:   "bengctl",
		Short: "Control-protocol client for beng-proxy",
	}
	root.PersistentFlags().StringVarP(&addr, "addr", "a", "127.0.0.1:8088", "beng-proxy control channel address")

	root.AddCommand(
		&spfcbr.Command{
			Use:   "invalidate <key>",
			Short: "Invalidate cached responses matching a key or URI prefix",
			Args:  spfcbr.ExactArgs(1),
			RunE: func(cmd *spfcbr.Command, args []string) error {
				return sendOne(addr, libctb.CmdInvalidateCache, []byte(args[0]))
			},
		},
		&spfcbr.Command{
			Use:   "enable <node-address>...",
			Short: "Clear FADE/FAILED/MONITOR on one or more backend node addresses",
			Args:  spfcbr.MinimumNArgs(1),
			RunE: func(cmd *spfcbr.Command, args []string) error {
				return watchBatch(addr, libctb.CmdNodeEnable, args)
			},
		},
		&spfcbr.Command{
			Use:   "disable <node-address>...",
			Short: "Mark one or more backend node addresses FADE",
			Args:  spfcbr.MinimumNArgs(1),
			RunE: func(cmd *spfcbr.Command, args []string) error {
				return watchBatch(addr, libctb.CmdNodeDisable, args)
			},
		},
		&spfcbr.Command{
			Use:   "rotate",
			Short: "Ask beng-proxy to re-read its certificate directory",
			RunE: func(cmd *spfcbr.Command, args []string) error {
				return sendOne(addr, libctb.CmdCertRotate, nil)
			},
		},
		&spfcbr.Command{
			Use:   "dump",
			Short: "Request a textual state snapshot and print the reply",
			RunE: func(cmd *spfcbr.Command, args []string) error {
				reply, err := roundTrip(addr, libctb.Packet{Cmd: libctb.CmdDumpState})
				if err != nil {
					return err
				}
				fmt.Println(string(reply))
				return nil
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func sendOne(addr string, cmd libctb.Command, payload []byte) error {
	if err := libctb.Send(addr, libctb.Packet{Cmd: cmd, Payload: payload}); err != nil {
		return err
	}
	fmt.Println(color.GreenString("sent"))
	return nil
}

// roundTrip sends pkt and blocks up to 2s for a reply, used only by
// subcommands that need one (dump); the fire-and-forget subcommands use
// ctrlbus.Send directly since the server never replies to them.
func roundTrip(addr string, pkt libctb.Packet) ([]byte, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if _, err = conn.Write(pkt.Encode()); err != nil {
		return nil, err
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64*1024)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// watchBatch drives a bubbletea progress view while issuing cmd to every
// address in turn, each one a fire-and-forget control packet.
func watchBatch(addr string, cmd libctb.Command, nodes []string) error {
	p := mpb.New(mpb.WithWidth(48))
	bar := p.AddBar(int64(len(nodes)),
		mpb.PrependDecorators(mpbd.Name("nodes")),
		mpb.AppendDecorators(mpbd.CountersNoUnit("%d / %d")),
	)

	prog := tea.NewProgram(newBatchModel(len(nodes)))

	go func() {
		for _, n := range nodes {
			_ = libctb.Send(addr, libctb.Packet{Cmd: cmd, Payload: []byte(n)})
			bar.Increment()
			prog.Send(stepMsg{node: n})
			time.Sleep(50 * time.Millisecond)
		}
		prog.Send(doneMsg{})
	}()

	_, err := prog.Run()
	p.Wait()
	return err
}

type stepMsg struct{ node string }
type doneMsg struct{}

type batchModel struct {
	total int
	done  int
	last  string
	quit  bool
}

func newBatchModel(total int) batchModel {
	return batchModel{total: total}
}

func (m batchModel) Init() tea.Cmd { return nil }

func (m batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case stepMsg:
		m.done++
		m.last = v.node
	case doneMsg:
		m.quit = true
		return m, tea.Quit
	case tea.KeyMsg:
		if v.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m batchModel) View() string {
	if m.quit {
		return color.GreenString("done: %d/%d nodes updated\n", m.done, m.total)
	}
	return fmt.Sprintf("updating %s (%d/%d)\n", m.last, m.done, m.total)
}
