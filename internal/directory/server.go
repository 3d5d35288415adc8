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
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	liberr "github.com/nabbar/golib/errors"
	liblog "github.com/nabbar/golib/logger"
	libsck "github.com/nabbar/golib/socket"
	sckclt "github.com/nabbar/golib/socket/client/udp"
	scksrv "github.com/nabbar/golib/socket/server/udp"

	"github.com/chatfabric/isy/internal/wire"
	"github.com/chatfabric/isy/internal/xerrors"
)

// maxDatagram bounds a single control-plane request.
const maxDatagram = 2048

// ctrlPushTimeout bounds one administrative push to a group's loopback
// endpoint; pushes are best-effort and never retried.
const ctrlPushTimeout = 2 * time.Second

// Server is the Directory's UDP control-plane listener. It is
// the sole mutator of the Group Registry: CREATE allocates, the spawner's
// reaper frees (both funnel through Registry, which is itself the mutex).
type Server struct {
	srv            scksrv.ServerTcp
	reg            *Registry
	spawn          Spawner
	log            liblog.Logger
	idleTimeoutSec int64
}

// NewServer registers the Directory's control-plane UDP endpoint; the socket
// itself is bound when Run starts listening. idleTimeoutSec is handed to
// every group daemon spawned via CREATE.
func NewServer(bindIP string, bindPort int, reg *Registry, spawn Spawner, idleTimeoutSec int64, log liblog.Logger) (*Server, error) {
	s := &Server{reg: reg, spawn: spawn, idleTimeoutSec: idleTimeoutSec, log: log}
	s.srv = scksrv.New(s.handle)
	if err := s.srv.RegisterServer(fmt.Sprintf("%s:%d", bindIP, bindPort)); err != nil {
		return nil, fmt.Errorf("register directory control socket %s:%d: %w", bindIP, bindPort, err)
	}
	return s, nil
}

// Close releases the control-plane socket.
func (s *Server) Close() error {
	return s.srv.Close()
}

// Run serves requests until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	if err := s.srv.Listen(ctx); err != nil && ctx.Err() == nil {
		s.log.Error(fmt.Sprintf("control socket listen: %v", err), nil)
	}
}

// handle serves one request datagram: the response writer sends the reply
// back to the datagram's source.
func (s *Server) handle(req libsck.Reader, rsp libsck.Writer) {
	defer func() {
		_ = req.Close()
		_ = rsp.Close()
	}()

	buf := make([]byte, maxDatagram)
	n, err := req.Read(buf)
	if err != nil && err != io.EOF {
		return
	}
	if n == 0 {
		return
	}

	r := wire.ParseDirectoryRequest(string(buf[:n]))

	switch r.Kind {
	case wire.DirList:
		s.reply(rsp, wire.FormatListReply(s.reg.List()))

	case wire.DirCreate:
		s.handleCreate(r, rsp)

	case wire.DirJoin:
		s.handleJoin(r, rsp)

	case wire.DirMerge:
		s.handleMerge(r, rsp)

	case wire.DirMergeSyntax:
		s.reply(rsp, wire.FormatErr(xerrors.Reason(xerrors.New(xerrors.CodeMergeSyntax))))

	default:
		s.reply(rsp, wire.FormatErr(xerrors.Reason(xerrors.New(xerrors.CodeUnknownCmd))))
	}
}

func (s *Server) handleCreate(req wire.DirectoryRequest, rsp libsck.Writer) {
	rec, existed, err := s.reg.Reserve(req.Name, req.User, s.idleTimeoutSec, s.spawn)
	if err != nil {
		s.log.Warning(fmt.Sprintf("CREATE %q failed: %v", req.Name, err), nil)
		s.reply(rsp, wire.FormatErr(reasonOf(err)))
		return
	}
	if !existed && rec.Token != "" {
		if err := s.sendCtrl(rec.AdminAddr, wire.FormatSetToken(rec.Token)); err != nil {
			s.log.Warning(fmt.Sprintf("settoken push to group %q failed: %v", rec.Name, err), nil)
		}
	}

	// Only a CREATE that itself supplies a user is ever owed the admin
	// token back; an unauthenticated caller re-creating an existing group
	// must not learn another user's token.
	token := ""
	if req.User != "" {
		token = rec.Token
	}
	s.reply(rsp, wire.FormatCreateOK(rec.Name, rec.Port, token))
}

func (s *Server) handleJoin(req wire.DirectoryRequest, rsp libsck.Writer) {
	rec, ok := s.reg.FindByName(req.Name)
	if !ok {
		s.reply(rsp, wire.FormatErr(xerrors.Reason(xerrors.New(xerrors.CodeNotFound))))
		return
	}
	s.reply(rsp, wire.FormatJoinOK(rec.Name, rec.Port))
}

func (s *Server) handleMerge(req wire.DirectoryRequest, rsp libsck.Writer) {
	recA, okA := s.reg.FindByName(req.GroupA)
	recB, okB := s.reg.FindByName(req.GroupB)
	if !okA || !okB {
		s.reply(rsp, wire.FormatErr(xerrors.Reason(xerrors.New(xerrors.CodeNotFound))))
		return
	}

	if recA.Token == "" || recB.Token == "" {
		s.reply(rsp, wire.FormatErr(xerrors.Reason(xerrors.New(xerrors.CodeNoToken))))
		return
	}
	if recA.Token != req.TokenA || recB.Token != req.TokenB {
		s.reply(rsp, wire.FormatErr(xerrors.Reason(xerrors.New(xerrors.CodeBadToken))))
		return
	}

	if err := s.sendCtrl(recB.AdminAddr, wire.FormatRedirect(recA.Name, recA.Port, "merge")); err != nil {
		s.log.Warning(fmt.Sprintf("redirect to group %q failed: %v", recB.Name, err), nil)
	}

	announce := fmt.Sprintf("[Fusion] %s a fusionne %s -> %s", req.User, recB.Name, recA.Name)
	for _, addr := range s.reg.AllAdminAddrs() {
		if err := s.sendCtrl(addr, wire.FormatSys(announce)); err != nil {
			s.log.Warning(fmt.Sprintf("sys broadcast to %s failed: %v", addr, err), nil)
		}
	}

	s.reply(rsp, wire.FormatMergeOK(recA.Name, recB.Name))
}

// BroadcastBanner pushes a sticky admin banner set/clear to every live
// group, backing the operator console's /banner and /banner_clr commands.
func (s *Server) BroadcastBanner(text string, clear bool) {
	msg := wire.FormatBannerSet(false, text)
	if clear {
		msg = wire.FormatBannerClr(false)
	}
	for _, addr := range s.reg.AllAdminAddrs() {
		if err := s.sendCtrl(addr, msg); err != nil {
			s.log.Warning(fmt.Sprintf("banner broadcast to %s failed: %v", addr, err), nil)
		}
	}
}

// BroadcastSys pushes a non-sticky announcement to every live group,
// backing the operator console's /sys command.
func (s *Server) BroadcastSys(text string) {
	for _, addr := range s.reg.AllAdminAddrs() {
		if err := s.sendCtrl(addr, wire.FormatSys(text)); err != nil {
			s.log.Warning(fmt.Sprintf("sys broadcast to %s failed: %v", addr, err), nil)
		}
	}
}

// sendCtrl delivers one administrative datagram to a group's loopback
// endpoint through a one-shot socket client, fire-and-forget.
func (s *Server) sendCtrl(addr *net.UDPAddr, msg string) error {
	cli, err := sckclt.New(addr.String())
	if err != nil {
		return err
	}
	defer func() {
		_ = cli.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), ctrlPushTimeout)
	defer cancel()

	return cli.Once(ctx, bytes.NewBufferString(msg), nil)
}

func (s *Server) reply(rsp libsck.Writer, msg string) {
	if _, err := rsp.Write([]byte(msg)); err != nil {
		s.log.Warning(fmt.Sprintf("reply failed: %v", err), nil)
	}
}

func reasonOf(err error) string {
	if le, ok := err.(liberr.Error); ok {
		return xerrors.Reason(le)
	}
	return "spawn"
}
