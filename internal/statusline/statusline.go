// Package statusline renders a live, in-place terminal status display of
// in-flight compilations, one line per in-flight project key; there is no
// separate summary line. Grounded on internal/batch/batch.go's isTerminal /
// refreshStatus / updateStatus trio, generalized from a fixed worker-index
// array to a map keyed by project so pipelined compiles (which may outlive
// the worker goroutine that started them) can still update their own line.
package statusline

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// IsTerminal reports whether fd is attached to a terminal, checked the same
// way internal/batch/batch.go did (unix.IoctlGetTermios), with
// mattn/go-isatty as a portable second check for platforms where the ioctl
// differs.
func IsTerminal(fd uintptr) bool {
	if _, err := unix.IoctlGetTermios(int(fd), unix.TCGETS); err == nil {
		return true
	}
	return isatty.IsTerminal(fd)
}

// Status is a live-updating multi-line terminal display.
type Status struct {
	enabled bool

	mu         sync.Mutex
	lines      []string
	order      []string
	lastRedraw time.Time
}

// New returns a Status attached to descriptor fd, disabled automatically
// when fd is not a terminal (matching batch.go's behavior of silently
// no-op'ing status updates when stdout is redirected to a file).
func New(fd uintptr) *Status {
	return &Status{enabled: IsTerminal(fd)}
}

func (s *Status) indexOf(key string) int {
	for i, k := range s.order {
		if k == key {
			return i
		}
	}
	s.order = append(s.order, key)
	s.lines = append(s.lines, "")
	return len(s.order) - 1
}

// Update sets key's line to text and redraws, throttled to at most once
// per 100ms so printing status doesn't slow down the scheduler itself.
func (s *Status) Update(key, text string) {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(key)
	if diff := len(s.lines[idx]) - len(text); diff > 0 {
		text += strings.Repeat(" ", diff)
	}
	s.lines[idx] = text
	if time.Since(s.lastRedraw) < 100*time.Millisecond {
		return
	}
	s.redrawLocked()
}

// Clear removes key's line entirely (a compile finished) and redraws.
func (s *Status) Clear(key string) {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			break
		}
	}
	s.redrawLocked()
}

func (s *Status) redrawLocked() {
	s.lastRedraw = time.Now()
	for _, line := range s.lines {
		fmt.Println(line)
	}
	fmt.Printf("\033[%dA", len(s.lines)) // restore cursor position
}

// Flush forces a redraw regardless of the throttle, used when a terminal
// resize or explicit refresh is requested.
func (s *Status) Flush() {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var maxLen int
	for _, line := range s.lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}
	for i, line := range s.lines {
		if len(line) < maxLen {
			s.lines[i] = line + strings.Repeat(" ", maxLen-len(line))
		}
	}
	s.redrawLocked()
}
