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
	"fmt"
	"os/exec"
	"strconv"

	liblog "github.com/nabbar/golib/logger"
)

// execSpawner launches the real Group daemon binary as a child process,
// the Go-idiomatic analogue of the original fork/exec fleet:
// one OS process per group, reaped asynchronously by a dedicated goroutine
// instead of a SIGCHLD handler.
func execSpawner(reg *Registry, binary string, log liblog.Logger) Spawner {
	return func(slot int, name string, port int, idleTimeoutSec int64) (func(), error) {
		cmd := exec.Command(binary, name, strconv.Itoa(port), strconv.FormatInt(idleTimeoutSec, 10))

		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("spawn group %q: %w", name, err)
		}

		log.Info(fmt.Sprintf("spawned group %q on port %d (pid %d)", name, port, cmd.Process.Pid), nil)

		go supervise(reg, slot, name, cmd, log)

		stop := func() {
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
		return stop, nil
	}
}

// supervise blocks until the child for slot exits, then frees the slot.
// The record is considered live from the moment the fork succeeds, and
// freed only once the process has actually exited.
func supervise(reg *Registry, slot int, name string, cmd *exec.Cmd, log liblog.Logger) {
	err := cmd.Wait()
	reg.Free(slot)
	if err != nil {
		log.Warning(fmt.Sprintf("group %q (slot %d) exited: %v", name, slot, err), nil)
	} else {
		log.Info(fmt.Sprintf("group %q (slot %d) exited", name, slot), nil)
	}
}
