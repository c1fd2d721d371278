// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a single terminal line while a tool runs. It owns the
// line between Start and Stop; callers must Stop before writing to out.
type spinner struct {
	out      io.Writer
	color    *color.Color
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func newSpinner(out io.Writer, c *color.Color) *spinner {
	if c == nil {
		c = color.New()
		c.DisableColor()
	}
	return &spinner{out: out, color: c, interval: spinnerInterval}
}

// Start begins animating message. It is a no-op while already running.
func (s *spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(message, s.stop, s.done)
}

// Stop halts the animation and returns once the line has been cleared.
func (s *spinner) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the animation goroutine is active.
func (s *spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

func (s *spinner) run(message string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	width := utf8.RuneCountInString(message) + 2
	frame := 0
	draw := func() {
		fmt.Fprintf(s.out, "\r%s %s", s.color.Sprint(spinnerFrames[frame]), message)
		frame = (frame + 1) % len(spinnerFrames)
	}

	draw()
	for {
		select {
		case <-stop:
			fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", width))
			return
		case <-ticker.C:
			draw()
		}
	}
}
