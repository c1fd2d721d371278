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
	"context"
	"os"
	"os/signal"
	"sync"
)

// interruptHandler turns termination signals into a cancelled context and
// runs registered cleanup hooks exactly once.
type interruptHandler struct {
	cancel context.CancelFunc

	mu      sync.Mutex
	hooks   []func()
	fired   bool
	trigger sync.Once
}

func newInterruptHandler(parent context.Context) (context.Context, *interruptHandler) {
	ctx, cancel := context.WithCancel(parent)
	return ctx, &interruptHandler{cancel: cancel}
}

// OnInterrupt registers fn to run after the context is cancelled.
func (h *interruptHandler) OnInterrupt(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, fn)
}

// Trigger cancels the context and runs the hooks in registration order.
func (h *interruptHandler) Trigger() {
	h.trigger.Do(func() {
		h.mu.Lock()
		h.fired = true
		hooks := append([]func(){}, h.hooks...)
		h.mu.Unlock()

		h.cancel()
		for _, fn := range hooks {
			fn()
		}
	})
}

// Interrupted reports whether Trigger has run.
func (h *interruptHandler) Interrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}

// Listen triggers on the first of signals. The returned func stops listening.
func (h *interruptHandler) Listen(signals ...os.Signal) func() {
	if len(signals) == 0 {
		// signal.Notify with no signals relays every signal.
		return func() {}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			h.Trigger()
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
