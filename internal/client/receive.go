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
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/chatfabric/isy/internal/wire"
)

const recvReadTimeout = 300 * time.Millisecond

// EventKind categorizes a datagram observed on the data socket.
type EventKind uint8

const (
	EventChat EventKind = iota
	EventBanner
	EventRedirect
	EventDeleted
)

// Event is delivered on the channel returned by Session.Receive. The
// consumer decides whether chat lines are currently visible; Client gates
// them on its "dialogue" mode.
type Event struct {
	Kind EventKind
	Text string

	BannerIdle  bool
	BannerClear bool

	Redirect *RedirectOrder
}

// Receive starts the data-socket reader, returning a channel of Events.
// The channel closes once ctx is cancelled.
func (s *Session) Receive(ctx context.Context) <-chan Event {
	out := make(chan Event, 16)
	go s.receiveLoop(ctx, out)
	return out
}

func (s *Session) receiveLoop(ctx context.Context, out chan<- Event) {
	defer close(out)
	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = s.dataConn.SetReadDeadline(time.Now().Add(recvReadTimeout))
		n, _, err := s.dataConn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			continue
		}

		if ev, ok := s.categorize(string(buf[:n])); ok {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// categorize classifies a raw datagram into banner updates, redirect
// notifications, deletion announcements, and ordinary chat lines.
func (s *Session) categorize(raw string) (Event, bool) {
	if strings.HasPrefix(raw, "GROUPE[") {
		return Event{Kind: EventChat, Text: raw}, true
	}

	msg := wire.ParseGroupMessage(raw)
	switch msg.Kind {
	case wire.GroupCtrlBannerSet:
		return Event{Kind: EventBanner, Text: msg.Text}, true
	case wire.GroupCtrlBannerClr:
		return Event{Kind: EventBanner, BannerClear: true}, true
	case wire.GroupCtrlIBannerSet:
		return Event{Kind: EventBanner, BannerIdle: true, Text: msg.Text}, true
	case wire.GroupCtrlIBannerClr:
		return Event{Kind: EventBanner, BannerIdle: true, BannerClear: true}, true

	case wire.GroupCtrlRedirect:
		port, _ := strconv.Atoi(msg.NewPort)
		order := &RedirectOrder{NewGroup: msg.NewGroup, NewPort: port, Reason: msg.Reason}
		s.setRedirectPending(order)
		return Event{Kind: EventRedirect, Redirect: order}, true

	case wire.GroupSys:
		if strings.Contains(msg.Text, "supprime pour cause d'inactivite") {
			s.setGroupDeleted()
			return Event{Kind: EventDeleted, Text: msg.Text}, true
		}
		return Event{Kind: EventChat, Text: raw}, true

	default:
		return Event{}, false
	}
}

// ApplyRedirect performs redirect reaction: emit (left) to
// the old group, rebind to the new peer, emit (joined) to the new one.
func (s *Session) ApplyRedirect(o *RedirectOrder) {
	s.Leave()
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: o.NewPort}
	s.setAttached(o.NewGroup, addr)
	s.sendData(addr, wire.FormatMsg(s.user, wire.SentinelJoined))
}
