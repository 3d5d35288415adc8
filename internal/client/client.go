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

package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	liblog "github.com/nabbar/golib/logger"
	"golang.org/x/sync/errgroup"

	"github.com/chatfabric/isy/internal/clientconf"
)

// Client is the top-level handle a cmd/client entrypoint drives: it wires a
// Session to an interactive console, gating chat rendering on "dialogue"
// mode (suppressed at the menu so incoming chat never interleaves with
// command prompts).
type Client struct {
	sess *Session
	log  liblog.Logger

	in  *bufio.Scanner
	out io.Writer

	prompt *color.Color
	chat   *color.Color
	sys    *color.Color

	mu       sync.Mutex
	dialogue bool
}

// NewClient records the Directory's endpoint and binds the local data socket
// per cfg, wiring the resulting Session to an interactive console.
func NewClient(cfg clientconf.Config, in io.Reader, out io.Writer, log liblog.Logger) (*Client, error) {
	sess, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Client{
		sess:   sess,
		log:    log,
		in:     bufio.NewScanner(in),
		out:    out,
		prompt: color.New(color.FgCyan, color.Bold),
		chat:   color.New(color.FgGreen),
		sys:    color.New(color.FgYellow),
	}, nil
}

// Run drives the console loop and the receive loop together until ctx is
// cancelled or the operator quits.
func (c *Client) Run(ctx context.Context) error {
	defer c.sess.Close()

	g, gctx := errgroup.WithContext(ctx)

	events := c.sess.Receive(gctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				c.handleEvent(ev)
			}
		}
	})

	g.Go(func() error {
		c.repl(gctx)
		return nil
	})

	return g.Wait()
}

func (c *Client) handleEvent(ev Event) {
	switch ev.Kind {
	case EventChat:
		// Chat is rendered only in dialogue mode; at the menu it would
		// interleave with command prompts.
		if !c.inDialogue() {
			return
		}
		c.chat.Fprintln(c.out, ev.Text)

	case EventBanner:
		if ev.BannerClear {
			return
		}
		c.sys.Fprintf(c.out, "[banner] %s\n", ev.Text)

	case EventDeleted:
		c.sys.Fprintf(c.out, "[%s] %s\n", currentOrUnknown(c.sess), ev.Text)
		c.sess.clearAttached()
		c.setDialogue(false)

	case EventRedirect:
		c.sys.Fprintf(c.out, "[fusion] redirection vers %q\n", ev.Redirect.NewGroup)
		if o := c.sess.TakeRedirect(); o != nil {
			c.sess.ApplyRedirect(o)
		}
	}
}

func currentOrUnknown(s *Session) string {
	if name, ok := s.CurrentGroup(); ok {
		return name
	}
	return "?"
}

func (c *Client) setDialogue(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialogue = v
}

func (c *Client) inDialogue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialogue
}

// repl is the keyboard-driven command loop: menu commands at
// the top level, plain lines forwarded as chat once attached.
func (c *Client) repl(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for c.in.Scan() {
			lines <- c.in.Text()
		}
	}()

	for {
		c.printPrompt()
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if c.dispatch(strings.TrimSpace(line)) {
				return
			}
		}
	}
}

func (c *Client) printPrompt() {
	if name, ok := c.sess.CurrentGroup(); ok {
		c.prompt.Fprintf(c.out, "%s> ", name)
		return
	}
	c.prompt.Fprint(c.out, "isy> ")
}

func (c *Client) dispatch(line string) (quit bool) {
	if line == "" {
		return false
	}

	if c.inDialogue() && !strings.HasPrefix(line, "/") {
		c.sess.SendChat(line)
		return false
	}

	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "/help":
		c.printHelp()

	case "/list":
		entries, ok := c.sess.List()
		if !ok {
			c.sys.Fprintln(c.out, "directory did not respond, try again")
			return false
		}
		if len(entries) == 0 {
			c.sys.Fprintln(c.out, "(aucun)")
			return false
		}
		for _, e := range entries {
			fmt.Fprintf(c.out, "%s %d\n", e.Name, e.Port)
		}

	case "/create":
		if len(args) == 0 {
			c.sys.Fprintln(c.out, "usage: /create <name> [admin]")
			return false
		}
		admin := len(args) >= 2 && args[1] == "admin"
		if _, err := c.sess.Create(args[0], admin); err != nil {
			c.sys.Fprintln(c.out, err)
		}

	case "/join":
		if len(args) != 1 {
			c.sys.Fprintln(c.out, "usage: /join <name>")
			return false
		}
		if _, err := c.sess.Join(args[0]); err != nil {
			c.sys.Fprintln(c.out, err)
			return false
		}
		c.setDialogue(true)

	case "/leave":
		c.sess.Leave()
		c.setDialogue(false)

	case "/merge":
		if len(args) != 2 {
			c.sys.Fprintln(c.out, "usage: /merge <group_a> <group_b>")
			return false
		}
		if _, err := c.sess.Merge(args[0], args[1]); err != nil {
			c.sys.Fprintln(c.out, err)
		}

	case "/token":
		if len(args) != 2 {
			c.sys.Fprintln(c.out, "usage: /token <group> <token>")
			return false
		}
		c.sess.Tokens().Set(args[0], args[1])
		c.sys.Fprintf(c.out, "token importe pour %q\n", args[0])

	case "/quit":
		c.sess.Leave()
		return true

	default:
		c.sys.Fprintf(c.out, "unknown command %q, try /help\n", cmd)
	}
	return false
}

func (c *Client) printHelp() {
	fmt.Fprintln(c.out, "/list                        list live groups")
	fmt.Fprintln(c.out, "/create <name> [admin]       create a group, optionally as its admin")
	fmt.Fprintln(c.out, "/join <name>                 attach to a group")
	fmt.Fprintln(c.out, "/leave                       detach from the current group")
	fmt.Fprintln(c.out, "/merge <group_a> <group_b>   fuse two groups you administer")
	fmt.Fprintln(c.out, "/token <group> <token>       import an admin token received out of band")
	fmt.Fprintln(c.out, "/help                        show this message")
	fmt.Fprintln(c.out, "/quit                        leave and exit")
	fmt.Fprintln(c.out, "any other line, once joined, is sent as chat")
}
