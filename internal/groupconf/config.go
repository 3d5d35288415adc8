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

// Package groupconf parses the Group daemon's process arguments. The
// Directory execs the daemon with exactly these positional arguments, so
// there is no config file or flag parser here, only argv.
package groupconf

import (
	"fmt"
	"strconv"

	"github.com/nabbar/golib/duration"
)

// Config is the Group daemon's resolved configuration.
type Config struct {
	Name        string
	Port        int
	IdleTimeout duration.Duration
}

// Parse validates and converts the three positional arguments passed to
// cmd/group (not including argv[0]).
func Parse(args []string) (Config, error) {
	if len(args) != 3 {
		return Config{}, fmt.Errorf("usage: group <name> <port> <idle_timeout_seconds>")
	}

	name := args[0]
	if name == "" || len(name) > 31 {
		return Config{}, fmt.Errorf("invalid group name %q", name)
	}

	port, err := strconv.Atoi(args[1])
	if err != nil || port <= 0 {
		return Config{}, fmt.Errorf("invalid port %q", args[1])
	}

	idleSec, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || idleSec < 0 {
		return Config{}, fmt.Errorf("invalid idle_timeout_seconds %q", args[2])
	}

	return Config{
		Name:        name,
		Port:        port,
		IdleTimeout: duration.Seconds(idleSec),
	}, nil
}
