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
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"chai/internal/theme"
)

const (
	diffContextLines = 2
	maxDiffLines     = 40
)

// unifiedDiff returns a unified diff between before and after, one line per
// element, without trailing newlines.
func unifiedDiff(path, before, after string) []string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  diffContextLines,
	})
	if err != nil || text == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}

// colorDiffLine colors one unified diff line by its marker.
func colorDiffLine(colors *theme.ColorScheme, line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return colors.Muted.Sprint(line)
	case strings.HasPrefix(line, "@@"):
		return colors.DiffHunk.Sprint(line)
	case strings.HasPrefix(line, "+"):
		return colors.DiffAdd.Sprint(line)
	case strings.HasPrefix(line, "-"):
		return colors.DiffRemove.Sprint(line)
	default:
		return line
	}
}
