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
	"testing"
)

func TestInterruptHandlerTriggerRunsHooksOnce(t *testing.T) {
	ctx, h := newInterruptHandler(context.Background())

	var order []string
	h.OnInterrupt(func() {
		if ctx.Err() == nil {
			t.Error("hooks must run after the context is cancelled")
		}
		order = append(order, "spinner")
	})
	h.OnInterrupt(func() { order = append(order, "readline") })

	if h.Interrupted() {
		t.Fatal("expected no interrupt yet")
	}
	h.Trigger()
	h.Trigger()

	if ctx.Err() == nil {
		t.Fatal("expected context to be cancelled")
	}
	if !h.Interrupted() {
		t.Fatal("expected Interrupted to report true")
	}
	if len(order) != 2 || order[0] != "spinner" || order[1] != "readline" {
		t.Fatalf("unexpected hook order %v", order)
	}
}

func TestInterruptHandlerStopListening(t *testing.T) {
	ctx, h := newInterruptHandler(context.Background())
	stop := h.Listen()
	stop()
	stop()
	if ctx.Err() != nil {
		t.Fatal("stopping the listener must not cancel the context")
	}
}
