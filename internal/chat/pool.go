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

package chat

import (
	"strings"
	"sync"
)

// argument fragments of streamed tool calls are assembled in pooled builders
var builderPool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

func getBuilder() *strings.Builder {
	builder := builderPool.Get().(*strings.Builder)
	builder.Reset()
	return builder
}

func putBuilder(builder *strings.Builder) {
	if builder == nil {
		return
	}
	builder.Reset()
	builderPool.Put(builder)
}

// releaseBuilders returns every builder of a finished stream to the pool.
func releaseBuilders(builders map[string]*strings.Builder) {
	for key, builder := range builders {
		putBuilder(builder)
		delete(builders, key)
	}
}
