/*
MIT License

Copyright (c) 2026 the isy authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package directory

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console is the Directory operator's interactive REPL:
// /banner, /banner_clr, /sys, /list, /help, /quit. It is the second of the
// Directory's two goroutines, the first being the UDP main loop.
type Console struct {
	in     *bufio.Scanner
	out    io.Writer
	srv    *Server
	prompt *color.Color
	info   *color.Color
}

// NewConsole wires the console to an already-running Server.
func NewConsole(in io.Reader, out io.Writer, srv *Server) *Console {
	return &Console{
		in:     bufio.NewScanner(in),
		out:    out,
		srv:    srv,
		prompt: color.New(color.FgCyan, color.Bold),
		info:   color.New(color.FgYellow),
	}
}

// Run reads operator commands until ctx is cancelled or the input closes.
// It reports whether the operator explicitly asked to quit; a closed stdin
// (e.g. the directory running detached) leaves the service up.
func (c *Console) Run(ctx context.Context) (quit bool) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for c.in.Scan() {
			lines <- c.in.Text()
		}
	}()

	for {
		c.prompt.Fprint(c.out, "isy> ")
		select {
		case <-ctx.Done():
			return false
		case line, ok := <-lines:
			if !ok {
				return false
			}
			if c.dispatch(strings.TrimSpace(line)) {
				return true
			}
		}
	}
}

func (c *Console) dispatch(line string) (quit bool) {
	if line == "" {
		return false
	}
	fields := strings.Fields(line)
	cmd := fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(line, cmd))

	switch cmd {
	case "/help":
		c.printHelp()

	case "/list":
		entries := c.srv.reg.List()
		if len(entries) == 0 {
			c.info.Fprintln(c.out, "(aucun)")
			return false
		}
		for _, e := range entries {
			fmt.Fprintf(c.out, "%s %d\n", e.Name, e.Port)
		}

	case "/banner":
		if rest == "" {
			c.info.Fprintln(c.out, "usage: /banner <text>")
			return false
		}
		c.srv.BroadcastBanner(rest, false)

	case "/banner_clr":
		c.srv.BroadcastBanner("", true)

	case "/sys":
		if rest == "" {
			c.info.Fprintln(c.out, "usage: /sys <text>")
			return false
		}
		c.srv.BroadcastSys(rest)

	case "/quit":
		c.info.Fprintln(c.out, "arret du directory")
		return true

	default:
		c.info.Fprintf(c.out, "unknown command %q, try /help\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, "/list                 list live groups")
	fmt.Fprintln(c.out, "/banner <text>        push a sticky admin banner to every group")
	fmt.Fprintln(c.out, "/banner_clr           clear the admin banner everywhere")
	fmt.Fprintln(c.out, "/sys <text>           broadcast a non-sticky announcement")
	fmt.Fprintln(c.out, "/help                 show this message")
	fmt.Fprintln(c.out, "/quit                 stop the directory (ctrl-c also works)")
}
