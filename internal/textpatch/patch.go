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

// Package textpatch implements exact substring find/replace used by the
// apply_diff tool. Matching is byte-exact: no whitespace normalization, no
// regular expressions.
package textpatch

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the search text does not occur in the content.
var ErrNotFound = errors.New("search text not found")

// Result describes a successful patch.
type Result struct {
	Content     string
	Occurrences int
	// SizeDelta is len(Content) minus the length of the original content, in bytes.
	SizeDelta int
}

// Patch replaces find with replacement in content. With replaceAll unset
// only the leftmost occurrence is replaced; otherwise every non-overlapping
// occurrence is. A find equal to replacement still succeeds and reports the
// occurrences it matched.
func Patch(content, find, replacement string, replaceAll bool) (Result, error) {
	if find == "" || !strings.Contains(content, find) {
		return Result{}, ErrNotFound
	}

	var updated string
	occurrences := 1
	if replaceAll {
		occurrences = Count(content, find)
		updated = strings.ReplaceAll(content, find, replacement)
	} else {
		updated = strings.Replace(content, find, replacement, 1)
	}

	return Result{
		Content:     updated,
		Occurrences: occurrences,
		SizeDelta:   len(updated) - len(content),
	}, nil
}

// Count returns the number of non-overlapping occurrences of find in content.
func Count(content, find string) int {
	if find == "" {
		return 0
	}
	return strings.Count(content, find)
}
