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

// Package group implements a single group's broadcast daemon:
// membership table, ban list, sticky banner state, admin token binding, and
// the idle-timer state machine. One process owns exactly one group; the
// Directory never shares memory with it, only UDP datagrams.
package group

import (
	"net"
	"time"
)

// MaxMembers bounds a group's membership table: allocate a free slot, or
// reply "Groupe plein" if none remain. A map with a size cap is the
// Go-idiomatic equivalent of a fixed slot array.
const MaxMembers = 64

// Member is one attached user.
type Member struct {
	User     string
	Addr     *net.UDPAddr
	LastSeen time.Time
}

// BannerSlot is one of the group's two sticky banner slots (admin or idle).
type BannerSlot struct {
	Active bool
	Text   string
}

// IdlePhase is the idle-timer state machine's current phase.
type IdlePhase uint8

const (
	PhaseActive IdlePhase = iota
	PhaseWarned
	PhaseExpired
)

// State is the Group daemon's entire mutable world. The caller guards every
// read-modify-write of membership, bans, banner state, and last activity
// under one mutex, held across broadcast fan-outs so a coherent snapshot of
// the member set is what gets broadcast.
type State struct {
	Name        string
	IdleTimeout time.Duration

	Token string

	Members map[string]*Member
	Banned  map[string]struct{}

	AdminBanner BannerSlot
	IdleBanner  BannerSlot

	LastActivity time.Time
	Phase        IdlePhase
}

// NewState creates the daemon's state for a freshly spawned group.
func NewState(name string, idleTimeout time.Duration) *State {
	return &State{
		Name:         name,
		IdleTimeout:  idleTimeout,
		Members:      make(map[string]*Member),
		Banned:       make(map[string]struct{}),
		LastActivity: time.Now(),
	}
}

// IsBanned reports whether user is currently banned.
func (s *State) IsBanned(user string) bool {
	_, ok := s.Banned[user]
	return ok
}

// Touch resets the activity clock and, if the group was Warned, clears the
// idle banner and returns to Active.
// It reports whether the idle banner was just cleared, so the caller knows
// to broadcast CTRL IBANNER_CLR.
func (s *State) Touch() (clearedIdleBanner bool) {
	s.LastActivity = time.Now()
	if s.Phase == PhaseWarned {
		s.Phase = PhaseActive
		s.IdleBanner = BannerSlot{}
		return true
	}
	return false
}

// warnThreshold is the elapsed duration after which the group enters
// Warned: floor(idle_timeout/2), or the full timeout if it is <= 1s.
func (s *State) warnThreshold() time.Duration {
	if s.IdleTimeout <= time.Second {
		return s.IdleTimeout
	}
	return (s.IdleTimeout / 2).Truncate(time.Second)
}

// Elapsed reports how long the group has been idle.
func (s *State) Elapsed() time.Duration {
	return time.Since(s.LastActivity)
}

// ShouldWarn reports whether the group should transition Active -> Warned.
func (s *State) ShouldWarn() bool {
	return s.IdleTimeout > 0 && s.Phase == PhaseActive && s.Elapsed() >= s.warnThreshold()
}

// ShouldExpire reports whether the group should transition Warned -> Expired.
func (s *State) ShouldExpire() bool {
	return s.IdleTimeout > 0 && s.Phase == PhaseWarned && s.Elapsed() >= s.IdleTimeout
}

// FindOrAllocate returns the Member for user, allocating a new slot if the
// group has capacity.
func (s *State) FindOrAllocate(user string, addr *net.UDPAddr) (*Member, bool) {
	if m, ok := s.Members[user]; ok {
		m.Addr = addr
		m.LastSeen = time.Now()
		return m, true
	}
	if len(s.Members) >= MaxMembers {
		return nil, false
	}
	m := &Member{User: user, Addr: addr, LastSeen: time.Now()}
	s.Members[user] = m
	return m, true
}

// Remove detaches a member, e.g. on (left) or a successful ban.
func (s *State) Remove(user string) {
	delete(s.Members, user)
}

// Snapshot returns a coherent copy of the currently attached addresses, for
// broadcast fan-out under the lock.
func (s *State) Snapshot() []*Member {
	out := make([]*Member, 0, len(s.Members))
	for _, m := range s.Members {
		out = append(out, m)
	}
	return out
}

// BindToken implements the admin token binding rule:
// trust-on-first-use for CMD-supplied tokens, unconditional overwrite for
// CTRL SETTOKEN (the caller distinguishes by calling SetToken directly
// instead). It reports whether token authorizes the caller as admin.
func (s *State) BindToken(token string) bool {
	if token == "" {
		return false
	}
	if s.Token == "" {
		s.Token = token
		return true
	}
	return s.Token == token
}

// SetToken unconditionally overwrites the stored token (CTRL SETTOKEN).
func (s *State) SetToken(token string) {
	s.Token = token
}
