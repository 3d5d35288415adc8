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
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"
	liblog "github.com/nabbar/golib/logger"

	"github.com/chatfabric/isy/internal/clientconf"
)

// RedirectOrder is a pending migration observed on the data socket.
type RedirectOrder struct {
	NewGroup string
	NewPort  int
	Reason   string
}

// Session holds the client's mutable attachment state: the currently
// attached group, a pending redirect, and whether that group has announced
// its own deletion. A single mutex protects all of it.
type Session struct {
	mu sync.Mutex

	user string

	attached  bool
	groupName string
	peerAddr  *net.UDPAddr

	pendingRedirect *RedirectOrder
	groupDeleted    bool

	tokens *TokenStore

	// controlAddr is the Directory's endpoint; each control round-trip
	// opens a one-shot socket client against it. dataConn stays a bound
	// socket: the group records its local port as the member address, so
	// every send and receive must ride that same port.
	controlAddr string
	dataConn    *net.UDPConn

	log liblog.Logger

	// id is a per-session correlation value generated when the session is
	// created. The log calls in this package do not include it.
	id string
}

// New records the Directory's control endpoint and binds the client's local
// data socket.
func New(cfg clientconf.Config, log liblog.Logger) (*Session, error) {
	dataConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: cfg.LocalRecvPort})
	if err != nil {
		return nil, err
	}

	return &Session{
		user:        cfg.User,
		tokens:      NewTokenStore(),
		controlAddr: net.JoinHostPort(cfg.ServerIP, strconv.Itoa(cfg.ServerPort)),
		dataConn:    dataConn,
		log:         log,
		id:          uuid.New().String(),
	}, nil
}

// Close releases the data socket.
func (s *Session) Close() {
	_ = s.dataConn.Close()
}

// User returns the configured user name.
func (s *Session) User() string { return s.user }

// Tokens exposes the session's TokenStore.
func (s *Session) Tokens() *TokenStore { return s.tokens }

// CurrentGroup returns the attached group name, if any.
func (s *Session) CurrentGroup() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupName, s.attached
}

// setAttached records a successful JOIN's result as the new peer.
func (s *Session) setAttached(name string, addr *net.UDPAddr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = true
	s.groupName = name
	s.peerAddr = addr
	s.groupDeleted = false
}

func (s *Session) clearAttached() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = false
	s.groupName = ""
	s.peerAddr = nil
}

func (s *Session) setRedirectPending(o *RedirectOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingRedirect = o
}

// TakeRedirect returns and clears any pending redirect, if one is set.
func (s *Session) TakeRedirect() *RedirectOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.pendingRedirect
	s.pendingRedirect = nil
	return o
}

func (s *Session) setGroupDeleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupDeleted = true
}

// GroupDeleted reports whether the attached group has announced its own
// deletion (idle expiry), clearing the flag once observed.
func (s *Session) GroupDeleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.groupDeleted
	s.groupDeleted = false
	return v
}

func (s *Session) peer() *net.UDPAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerAddr
}
