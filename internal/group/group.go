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

package group

import (
	"context"
	"fmt"

	liblog "github.com/nabbar/golib/logger"

	"github.com/chatfabric/isy/internal/groupconf"
)

// Daemon is the top-level handle a cmd/group entrypoint drives.
type Daemon struct {
	srv *Server
	log liblog.Logger
	cfg groupconf.Config
}

// New binds the daemon's socket from cfg.
func New(cfg groupconf.Config, log liblog.Logger) (*Daemon, error) {
	srv, err := NewServer(cfg.Name, cfg.Port, cfg.IdleTimeout.Time(), log)
	if err != nil {
		return nil, err
	}
	return &Daemon{srv: srv, log: log, cfg: cfg}, nil
}

// Run serves the group until ctx is cancelled, the idle timer expires it,
// or it is redirected away and exits on its own.
func (d *Daemon) Run(ctx context.Context) {
	defer d.srv.Close()
	d.log.Info(fmt.Sprintf("group %q listening on port %d (idle_timeout=%s)",
		d.cfg.Name, d.cfg.Port, d.cfg.IdleTimeout.Time()), nil)
	d.srv.Run(ctx)
}
