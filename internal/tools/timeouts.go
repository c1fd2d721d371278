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

package tools

import "time"

const (
	defaultCommandTimeout = 30 * time.Second
	defaultMaxTimeout     = 10 * time.Minute
)

// TimeoutConfig configures command execution timeouts.
type TimeoutConfig struct {
	Default time.Duration
	Max     time.Duration
}

// DefaultTimeoutConfig returns the default timeout configuration.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Default: defaultCommandTimeout,
		Max:     defaultMaxTimeout,
	}
}

func (t TimeoutConfig) normalize() TimeoutConfig {
	if t.Default <= 0 {
		t.Default = defaultCommandTimeout
	}
	if t.Max <= 0 {
		t.Max = defaultMaxTimeout
	}
	if t.Default > t.Max {
		t.Default = t.Max
	}
	return t
}

// Clamp resolves a requested timeout in milliseconds. Zero or negative
// requests use the default; requests above Max are capped.
func (t TimeoutConfig) Clamp(requestedMS int) time.Duration {
	t = t.normalize()
	if requestedMS <= 0 {
		return t.Default
	}
	if int64(requestedMS) >= int64(t.Max/time.Millisecond) {
		return t.Max
	}
	return time.Duration(requestedMS) * time.Millisecond
}
