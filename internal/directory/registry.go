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
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/chatfabric/isy/internal/wire"
	"github.com/chatfabric/isy/internal/xerrors"
)

// GroupRecord is one live entry of the Group Registry.
// AdminAddr is the loopback+port endpoint the directory uses to push CTRL
// datagrams to this group's daemon.
type GroupRecord struct {
	Slot      int
	Name      string
	Port      int
	AdminAddr *net.UDPAddr
	Token     string
	Used      bool

	exit func()
}

// Registry is the Directory's exclusive owner of the Group Registry.
// The only mutator is the UDP main loop: CREATE allocates, the reaper
// frees. A single mutex serializes both.
type Registry struct {
	mu       sync.Mutex
	slots    []*GroupRecord
	basePort int
}

// NewRegistry allocates a registry with maxGroups slots, ports starting at
// basePort.
func NewRegistry(maxGroups, basePort int) *Registry {
	return &Registry{
		slots:    make([]*GroupRecord, maxGroups),
		basePort: basePort,
	}
}

// FindByName returns the live record for name, if any.
func (r *Registry) FindByName(name string) (*GroupRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByNameLocked(name)
}

func (r *Registry) findByNameLocked(name string) (*GroupRecord, bool) {
	for _, s := range r.slots {
		if s != nil && s.Used && s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// List enumerates the live registry as name/port pairs.
func (r *Registry) List() []wire.ListEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]wire.ListEntry, 0, len(r.slots))
	for _, s := range r.slots {
		if s != nil && s.Used {
			out = append(out, wire.ListEntry{Name: s.Name, Port: s.Port})
		}
	}
	return out
}

// Spawner starts a group daemon child process bound to port for the given
// group name, slot, and idle timeout, returning a function to stop it. The
// spawner is responsible for arranging its own reap (e.g. a goroutine
// blocked in cmd.Wait) and calling Registry.Free(slot) once the child exits.
type Spawner func(slot int, name string, port int, idleTimeoutSec int64) (stop func(), err error)

// Reserve allocates the lowest-indexed free slot for name, reserves its
// port, and invokes spawn. On success the record is live from the moment
// the fork succeeds, even though spawn itself happens synchronously here.
// If name already has a live record, that record is returned unchanged.
func (r *Registry) Reserve(name, user string, idleTimeoutSec int64, spawn Spawner) (rec *GroupRecord, existed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.findByNameLocked(name); ok {
		return existing, true, nil
	}

	slot := -1
	for i, s := range r.slots {
		if s == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		return nil, false, xerrors.New(xerrors.CodeNoSlot)
	}

	port := r.basePort + slot
	token := ""
	if user != "" {
		token = generateToken()
	}

	stop, serr := spawn(slot, name, port, idleTimeoutSec)
	if serr != nil {
		return nil, false, xerrors.New(xerrors.CodeSpawnFailure, serr)
	}

	rec = &GroupRecord{
		Slot:      slot,
		Name:      name,
		Port:      port,
		AdminAddr: &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port},
		Token:     token,
		Used:      true,
		exit:      stop,
	}
	r.slots[slot] = rec
	return rec, false, nil
}

// Free releases slot, e.g. once its child process has exited. Safe to call
// more than once for the same slot.
func (r *Registry) Free(slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot >= 0 && slot < len(r.slots) {
		r.slots[slot] = nil
	}
}

// StopAll signals every live group to exit. The asynchronous reaper
// goroutine each spawn started (see supervise) still frees the slot once
// the child actually exits, so StopAll only requests termination, it does
// not wait.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s != nil && s.Used && s.exit != nil {
			s.exit()
		}
	}
}

// AllAdminAddrs returns every live group's loopback administrative address,
// used to fan console broadcasts (/banner, /sys) out to all groups.
func (r *Registry) AllAdminAddrs() []*net.UDPAddr {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*net.UDPAddr, 0, len(r.slots))
	for _, s := range r.slots {
		if s != nil && s.Used {
			out = append(out, s.AdminAddr)
		}
	}
	return out
}

// generateToken produces a 128-bit admin token as 32 lowercase hex
// characters, preferring OS randomness with a time+pid fallback.
func generateToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	now := time.Now().UnixNano()
	pid := os.Getpid()
	fallback := fmt.Sprintf("%016x%016x", now, pid)
	if len(fallback) >= 32 {
		return fallback[:32]
	}
	for len(fallback) < 32 {
		fallback += "0"
	}
	return fallback
}
