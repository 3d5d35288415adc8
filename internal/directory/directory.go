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

// Package directory implements the control-plane process:
// the live Group Registry, the UDP request server (LIST/CREATE/JOIN/MERGE),
// child-process spawning and reaping for group daemons, and the operator
// console.
package directory

import (
	"context"
	"errors"
	"fmt"
	"os"

	liblog "github.com/nabbar/golib/logger"
	"golang.org/x/sync/errgroup"

	"github.com/chatfabric/isy/internal/directoryconf"
)

// errOperatorQuit cancels the errgroup context when the operator types
// /quit, so the UDP loop winds down alongside the console.
var errOperatorQuit = errors.New("operator quit")

// Directory wires the registry, server, spawner, and console into a
// two-goroutine concurrency model: one goroutine drives the UDP main loop,
// the other drives the operator console.
type Directory struct {
	cfg directoryconf.Config
	reg *Registry
	srv *Server
	log liblog.Logger
}

// New constructs a Directory bound to cfg, spawning group daemons by execing
// groupBinary as a child process.
func New(cfg directoryconf.Config, groupBinary string, log liblog.Logger) (*Directory, error) {
	reg := NewRegistry(cfg.MaxGroups, cfg.BasePort)
	spawn := execSpawner(reg, groupBinary, log)
	idleTimeoutSec := int64(cfg.IdleTimeoutSec.Time().Seconds())

	srv, err := NewServer(cfg.ServerIP, cfg.ServerPort, reg, spawn, idleTimeoutSec, log)
	if err != nil {
		return nil, err
	}

	return &Directory{cfg: cfg, reg: reg, srv: srv, log: log}, nil
}

// Run serves the control plane and the operator console until ctx is
// cancelled, returning once both goroutines have exited.
func (d *Directory) Run(ctx context.Context) error {
	defer d.srv.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.srv.Run(gctx)
		return nil
	})

	g.Go(func() error {
		console := NewConsole(os.Stdin, os.Stdout, d.srv)
		if console.Run(gctx) {
			return errOperatorQuit
		}
		return nil
	})

	d.log.Info(fmt.Sprintf("directory listening on %s:%d (base_port=%d, max_groups=%d)",
		d.cfg.ServerIP, d.cfg.ServerPort, d.cfg.BasePort, d.cfg.MaxGroups), nil)

	err := g.Wait()
	if errors.Is(err, errOperatorQuit) {
		err = nil
	}

	// Cooperative shutdown: signal every live child before exiting. Each
	// child's own reaper goroutine (spawned by execSpawner) frees its slot
	// asynchronously once the process actually exits.
	d.log.Info("shutting down: signaling live groups", nil)
	d.reg.StopAll()

	return err
}
