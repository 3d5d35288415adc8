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
	"net"
	"sync"
	"time"

	liblog "github.com/nabbar/golib/logger"

	"github.com/chatfabric/isy/internal/wire"
	"github.com/chatfabric/isy/internal/xerrors"
)

// readTimeout bounds each ReadFromUDP call, the same cooperative-shutdown
// idiom the Directory uses.
const readTimeout = 300 * time.Millisecond

// tickInterval drives the idle-timer goroutine, waking once a second.
const tickInterval = time.Second

// redirectDrain is how long the daemon waits after fanning out a REDIRECT
// before exiting, giving clients a chance to observe it.
const redirectDrain = 500 * time.Millisecond

// Server is a single group's UDP daemon: one socket serves both the
// client-facing MSG/CMD grammar and the directory's administrative
// CTRL/SYS channel.
type Server struct {
	mu    sync.Mutex
	state *State

	conn *net.UDPConn
	log  liblog.Logger

	done chan struct{}
}

// NewServer binds a group's UDP socket and initializes its state.
func NewServer(name string, port int, idleTimeout time.Duration, log liblog.Logger) (*Server, error) {
	addr := &net.UDPAddr{IP: net.IPv4zero, Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind group %q socket on port %d: %w", name, port, err)
	}
	return &Server{
		state: NewState(name, idleTimeout),
		conn:  conn,
		log:   log,
		done:  make(chan struct{}),
	}, nil
}

// Close releases the group's socket.
func (s *Server) Close() error {
	return s.conn.Close()
}

// Run drives the UDP reader until ctx is cancelled or the group expires or
// is redirected away. It blocks until both the reader and the idle ticker
// have stopped.
func (s *Server) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.readLoop(ctx)
	}()

	go func() {
		defer wg.Done()
		s.idleTicker(ctx)
	}()

	wg.Wait()
}

func (s *Server) readLoop(ctx context.Context) {
	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			continue
		}

		if s.handle(string(buf[:n]), from) {
			return
		}
	}
}

func (s *Server) idleTicker(ctx context.Context) {
	if s.getIdleTimeout() <= 0 {
		return
	}
	t := time.NewTicker(tickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-t.C:
			if s.tick() {
				return
			}
		}
	}
}

func (s *Server) getIdleTimeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IdleTimeout
}

// tick evaluates the idle state machine once per second.
// It returns true once the group has expired and the caller should stop.
func (s *Server) tick() bool {
	s.mu.Lock()
	st := s.state

	if st.ShouldWarn() {
		st.Phase = PhaseWarned
		deadline := time.Now().Add(st.IdleTimeout - st.Elapsed())
		text := fmt.Sprintf("Inactivite detectee: le groupe '%s' sera supprime a %s sans activite.",
			st.Name, deadline.Format("15:04:05"))
		st.IdleBanner = BannerSlot{Active: true, Text: text}
		s.broadcastLocked(wire.FormatBannerSet(true, text))
		s.mu.Unlock()
		return false
	}

	if st.ShouldExpire() {
		s.broadcastLocked("SYS Le groupe est supprime pour cause d'inactivite. Tappez \"quit\" pour quitter.")
		s.mu.Unlock()
		s.log.Info(fmt.Sprintf("group %q expired after %s idle", st.Name, st.Elapsed()), nil)
		close(s.done)
		return true
	}

	s.mu.Unlock()
	return false
}

// handle processes one datagram. It returns true once the group should
// terminate (successful REDIRECT fan-out).
func (s *Server) handle(raw string, from *net.UDPAddr) bool {
	msg := wire.ParseGroupMessage(raw)

	switch msg.Kind {
	case wire.GroupMsg:
		s.handleMsg(msg, from)

	case wire.GroupCmdList:
		s.touch()
		s.handleCmdList(from)

	case wire.GroupCmdDelete:
		s.touch()
		s.handleCmdDelete(msg, from)

	case wire.GroupCmdBan:
		s.touch()
		s.handleBan(msg.Token, "", msg.TargetUser, from)
	case wire.GroupCmdBan2:
		s.touch()
		s.handleBan(msg.Token, msg.AdminUser, msg.TargetUser, from)
	case wire.GroupCmdUnban:
		s.touch()
		s.handleUnban(msg.Token, "", msg.TargetUser, from)
	case wire.GroupCmdUnban2:
		s.touch()
		s.handleUnban(msg.Token, msg.AdminUser, msg.TargetUser, from)

	case wire.GroupCmdBadArgs:
		s.sendTo(from, wire.FormatErr(xerrors.Reason(xerrors.New(xerrors.CodeBadArgs))))
	case wire.GroupCmdUnknown:
		s.sendTo(from, wire.FormatErr(xerrors.Reason(xerrors.New(xerrors.CodeUnknownCmd))))

	case wire.GroupCtrlBannerSet:
		s.setBanner(false, msg.Text)
	case wire.GroupCtrlBannerClr:
		s.clearBanner(false)
	case wire.GroupCtrlIBannerSet:
		s.setBanner(true, msg.Text)
	case wire.GroupCtrlIBannerClr:
		s.clearBanner(true)

	case wire.GroupCtrlSetToken:
		s.mu.Lock()
		s.state.SetToken(msg.Token)
		s.mu.Unlock()

	case wire.GroupCtrlRedirect:
		return s.handleRedirect(msg, raw)

	case wire.GroupSys:
		s.mu.Lock()
		s.broadcastLocked(wire.FormatBroadcastSys(s.state.Name, msg.Text))
		s.mu.Unlock()

	default:
		// Unparseable datagram: dropped silently rather than risk an ERR
		// reply to a sender whose intent (MSG vs CMD) couldn't be told apart.
	}
	return false
}

func (s *Server) handleMsg(msg wire.GroupMessage, from *net.UDPAddr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if cleared := st.Touch(); cleared {
		s.broadcastLocked(wire.FormatBannerClr(true))
	}

	if st.IsBanned(msg.User) {
		s.sendTo(from, "SYS Vous etes banni de ce groupe.")
		return
	}

	member, ok := st.FindOrAllocate(msg.User, from)
	if !ok {
		s.sendTo(from, "SYS Groupe plein.")
		return
	}
	member.Addr = from
	member.LastSeen = time.Now()

	if msg.Text == wire.SentinelJoined {
		s.replayBanners(member)
	}

	s.broadcastLocked(wire.FormatBroadcast(st.Name, msg.User, msg.Text))

	// The (left) sender is removed only after the broadcast, so the
	// departure line still reaches the member who is leaving.
	if msg.Text == wire.SentinelLeft {
		st.Remove(msg.User)
	}
}

// touch resets the idle clock for a CMD datagram; MSG handling does the same
// inline under its own lock hold.
func (s *Server) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Touch() {
		s.broadcastLocked(wire.FormatBannerClr(true))
	}
}

func (s *Server) replayBanners(m *Member) {
	st := s.state
	if st.AdminBanner.Active {
		s.sendTo(m.Addr, wire.FormatBannerSet(false, st.AdminBanner.Text))
	}
	if st.IdleBanner.Active {
		s.sendTo(m.Addr, wire.FormatBannerSet(true, st.IdleBanner.Text))
	}
}

func (s *Server) handleCmdList(from *net.UDPAddr) {
	s.mu.Lock()
	members := s.state.Snapshot()
	s.mu.Unlock()

	entries := make([]wire.MemberEntry, 0, len(members))
	for _, m := range members {
		entries = append(entries, wire.MemberEntry{User: m.User, Addr: m.Addr.String()})
	}
	s.sendTo(from, wire.FormatGroupListReply(entries))
}

// handleCmdDelete implements the legacy soft-mark: it frees the member's
// slot without adding a BanEntry, so the user may simply rejoin.
func (s *Server) handleCmdDelete(msg wire.GroupMessage, from *net.UDPAddr) {
	s.mu.Lock()
	_, existed := s.state.Members[msg.TargetUser]
	s.state.Remove(msg.TargetUser)
	s.mu.Unlock()

	if existed {
		s.sendTo(from, wire.FormatOK("deleted"))
	} else {
		s.sendTo(from, wire.FormatErr(xerrors.Reason(xerrors.New(xerrors.CodeNotFound))))
	}
}

func (s *Server) handleBan(token, adminUser, victim string, from *net.UDPAddr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.BindToken(token) {
		s.sendTo(from, wire.FormatErr(xerrors.Reason(xerrors.New(xerrors.CodeNotAdmin))))
		return
	}

	s.state.Banned[victim] = struct{}{}
	s.state.Remove(victim)

	actor := adminUser
	if actor == "" {
		actor = "admin"
	}
	s.sendTo(from, wire.FormatOK("banned"))
	s.broadcastLocked(wire.FormatBroadcastAudit(s.state.Name, wire.FormatBanAudit(actor, victim)))
}

func (s *Server) handleUnban(token, adminUser, victim string, from *net.UDPAddr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.BindToken(token) {
		s.sendTo(from, wire.FormatErr(xerrors.Reason(xerrors.New(xerrors.CodeNotAdmin))))
		return
	}

	if _, ok := s.state.Banned[victim]; !ok {
		s.sendTo(from, wire.FormatOK("not_banned"))
		return
	}
	delete(s.state.Banned, victim)

	actor := adminUser
	if actor == "" {
		actor = "admin"
	}
	s.sendTo(from, wire.FormatOK("unbanned"))
	s.broadcastLocked(wire.FormatBroadcastAudit(s.state.Name, wire.FormatUnbanAudit(actor, victim)))
}

func (s *Server) setBanner(idle bool, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idle {
		s.state.IdleBanner = BannerSlot{Active: true, Text: text}
	} else {
		s.state.AdminBanner = BannerSlot{Active: true, Text: text}
	}
	s.broadcastLocked(wire.FormatBannerSet(idle, text))
}

func (s *Server) clearBanner(idle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idle {
		s.state.IdleBanner = BannerSlot{}
	} else {
		s.state.AdminBanner = BannerSlot{}
	}
	s.broadcastLocked(wire.FormatBannerClr(idle))
}

// handleRedirect forwards the order verbatim to every member, drains
// briefly, then signals the caller to terminate.
func (s *Server) handleRedirect(msg wire.GroupMessage, raw string) bool {
	s.mu.Lock()
	s.broadcastLocked(raw)
	name := s.state.Name
	s.mu.Unlock()

	s.log.Info(fmt.Sprintf("group %q redirected to %s:%s (%s), exiting", name, msg.NewGroup, msg.NewPort, msg.Reason), nil)
	time.Sleep(redirectDrain)
	close(s.done)
	return true
}

// broadcastLocked fans msg out to every attached member. Caller must hold
// s.mu; send errors are non-fatal and ignored per destination.
func (s *Server) broadcastLocked(msg string) {
	for _, m := range s.state.Snapshot() {
		s.sendTo(m.Addr, msg)
	}
}

func (s *Server) sendTo(addr *net.UDPAddr, msg string) {
	if _, err := s.conn.WriteToUDP([]byte(msg), addr); err != nil {
		s.log.Warning(fmt.Sprintf("send to %s failed: %v", addr, err), nil)
	}
}
