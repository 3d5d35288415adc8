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
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	sckclt "github.com/nabbar/golib/socket/client/udp"

	"github.com/chatfabric/isy/internal/wire"
)

// LIST replies ride the same lossy datagram transport as everything else,
// so the query is retried a bounded number of times with a per-attempt
// timeout before being declared inconclusive.
const (
	ListRetries         = 3
	listAttemptTimeout  = 1 * time.Second
	controlReplyTimeout = 2 * time.Second
)

// List queries the Directory for the live group registry. ok is false if
// every attempt timed out; the caller should treat that as inconclusive,
// not as an empty registry.
func (s *Session) List() (entries []wire.ListEntry, ok bool) {
	for attempt := 0; attempt < ListRetries; attempt++ {
		reply, err := s.roundTrip(wire.FormatListRequest(), listAttemptTimeout)
		if err != nil {
			s.log.Warning(fmt.Sprintf("LIST attempt %d/%d: %v", attempt+1, ListRetries, err), nil)
			continue
		}
		if reply.Kind == wire.ReplyList {
			return reply.Entries, true
		}
	}
	return nil, false
}

// Create asks the Directory to create (or re-fetch) a group, recording any
// returned admin token in the TokenStore.
func (s *Session) Create(name string, admin bool) (wire.DirectoryReply, error) {
	user := ""
	if admin {
		user = s.user
	}
	reply, err := s.roundTrip(wire.FormatCreateRequest(name, user), controlReplyTimeout)
	if err != nil {
		return wire.DirectoryReply{}, err
	}
	if reply.Kind == wire.ReplyErr {
		return reply, fmt.Errorf("CREATE %s: %s", name, reply.Reason)
	}
	if reply.Token != "" {
		s.tokens.Set(reply.Name, reply.Token)
		s.log.Info(fmt.Sprintf("admin token for group %q received and stored", reply.Name), nil)
	}
	return reply, nil
}

// Join locates a group and performs the attach protocol: stores the peer
// address, then sends the (joined) handshake.
func (s *Session) Join(name string) (wire.DirectoryReply, error) {
	reply, err := s.roundTrip(wire.FormatJoinRequest(name, s.user, "0.0.0.0", 0), controlReplyTimeout)
	if err != nil {
		return wire.DirectoryReply{}, err
	}
	if reply.Kind == wire.ReplyErr {
		return reply, fmt.Errorf("JOIN %s: %s", name, reply.Reason)
	}

	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: reply.Port}
	s.setAttached(reply.Name, addr)
	s.sendData(addr, wire.FormatMsg(s.user, wire.SentinelJoined))
	return reply, nil
}

// Leave detaches from the current group, sending the (left) sentinel
// before clearing local state.
func (s *Session) Leave() {
	name, attached := s.CurrentGroup()
	if !attached {
		return
	}
	s.sendData(s.peer(), wire.FormatMsg(s.user, wire.SentinelLeft))
	s.clearAttached()
	s.log.Info(fmt.Sprintf("left group %q", name), nil)
}

// Merge authenticates as admin of both groups and requests a fusion.
func (s *Session) Merge(groupA, groupB string) (wire.DirectoryReply, error) {
	tokenA, okA := s.tokens.Get(groupA)
	tokenB, okB := s.tokens.Get(groupB)
	if !okA || !okB {
		return wire.DirectoryReply{}, fmt.Errorf("merge %s/%s: missing admin token for at least one group", groupA, groupB)
	}
	reply, err := s.roundTrip(wire.FormatMergeRequest(s.user, tokenA, groupA, tokenB, groupB), controlReplyTimeout)
	if err != nil {
		return wire.DirectoryReply{}, err
	}
	if reply.Kind == wire.ReplyErr {
		return reply, fmt.Errorf("MERGE %s %s: %s", groupA, groupB, reply.Reason)
	}
	return reply, nil
}

// SendChat sends a chat payload to the currently attached group.
func (s *Session) SendChat(text string) {
	addr := s.peer()
	if addr == nil {
		return
	}
	s.sendData(addr, wire.FormatMsg(s.user, text))
}

// roundTrip performs one request/reply exchange with the Directory through
// a one-shot socket client: the request datagram goes out, the response
// callback reads the single reply datagram, and the socket closes.
func (s *Session) roundTrip(req string, timeout time.Duration) (wire.DirectoryReply, error) {
	cli, err := sckclt.New(s.controlAddr)
	if err != nil {
		return wire.DirectoryReply{}, err
	}
	defer func() {
		_ = cli.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var (
		n    int
		rerr error
		buf  = make([]byte, 2048)
	)
	if err := cli.Once(ctx, bytes.NewBufferString(req), func(r io.Reader) {
		n, rerr = r.Read(buf)
	}); err != nil {
		return wire.DirectoryReply{}, err
	}
	if rerr != nil && rerr != io.EOF {
		return wire.DirectoryReply{}, rerr
	}
	if n == 0 {
		return wire.DirectoryReply{}, fmt.Errorf("empty reply from directory %s", s.controlAddr)
	}
	return wire.ParseDirectoryReply(string(buf[:n])), nil
}

func (s *Session) sendData(addr *net.UDPAddr, msg string) {
	if addr == nil {
		return
	}
	if _, err := s.dataConn.WriteToUDP([]byte(msg), addr); err != nil {
		s.log.Warning(fmt.Sprintf("send to %s failed: %v", addr, err), nil)
	}
}
