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

package theme

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/fatih/color"
)

// Theme represents the color theme for the terminal renderer
type Theme struct {
	HeaderColor     string `json:"header_color"`
	AssistantColor  string `json:"assistant_color"`
	ToolColor       string `json:"tool_color"`
	DetailColor     string `json:"detail_color"`
	ErrorColor      string `json:"error_color"`
	SuccessColor    string `json:"success_color"`
	SpinnerColor    string `json:"spinner_color"`
	DiffAddColor    string `json:"diff_add_color"`
	DiffRemoveColor string `json:"diff_remove_color"`
	DiffHunkColor   string `json:"diff_hunk_color"`
	MutedColor      string `json:"muted_color"`
}

// ColorScheme provides color styles based on theme
type ColorScheme struct {
	Header     *color.Color
	Assistant  *color.Color
	Tool       *color.Color
	Detail     *color.Color
	Error      *color.Color
	Success    *color.Color
	Spinner    *color.Color
	DiffAdd    *color.Color
	DiffRemove *color.Color
	DiffHunk   *color.Color
	Muted      *color.Color
}

// DefaultTheme returns a theme with default values
func DefaultTheme() *Theme {
	return &Theme{
		HeaderColor:     "#cba6f7",
		AssistantColor:  "#cdd6f4",
		ToolColor:       "#89b4fa",
		DetailColor:     "#9399b2",
		ErrorColor:      "#f38ba8",
		SuccessColor:    "#a6e3a1",
		SpinnerColor:    "#fab387",
		DiffAddColor:    "#a6e3a1",
		DiffRemoveColor: "#f38ba8",
		DiffHunkColor:   "#89dceb",
		MutedColor:      "#6c7086",
	}
}

// LoadTheme loads theme configuration from a JSON file
func LoadTheme(filepath string) (*Theme, error) {
	theme := DefaultTheme()

	// If theme file doesn't exist, return default theme
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return theme, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, theme); err != nil {
		return nil, err
	}

	return theme, nil
}

// ToColorScheme converts theme hex values to 24-bit color styles.
// Call ValidateTheme first; unparsable values fall back to no color.
func (t *Theme) ToColorScheme() *ColorScheme {
	header := hexColor(t.HeaderColor)
	header.Add(color.Bold)
	return &ColorScheme{
		Header:     header,
		Assistant:  hexColor(t.AssistantColor),
		Tool:       hexColor(t.ToolColor).Add(color.Bold),
		Detail:     hexColor(t.DetailColor),
		Error:      hexColor(t.ErrorColor),
		Success:    hexColor(t.SuccessColor),
		Spinner:    hexColor(t.SpinnerColor),
		DiffAdd:    hexColor(t.DiffAddColor),
		DiffRemove: hexColor(t.DiffRemoveColor),
		DiffHunk:   hexColor(t.DiffHunkColor),
		Muted:      hexColor(t.MutedColor),
	}
}

// DefaultColorScheme returns a scheme built from the basic 16 ANSI colors,
// for terminals without truecolor support.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Header:     color.New(color.FgMagenta, color.Bold),
		Assistant:  color.New(color.Reset),
		Tool:       color.New(color.FgCyan, color.Bold),
		Detail:     color.New(color.FgHiBlack),
		Error:      color.New(color.FgRed, color.Bold),
		Success:    color.New(color.FgGreen),
		Spinner:    color.New(color.FgYellow),
		DiffAdd:    color.New(color.FgGreen),
		DiffRemove: color.New(color.FgRed),
		DiffHunk:   color.New(color.FgCyan),
		Muted:      color.New(color.FgHiBlack),
	}
}

// DisabledColorScheme returns a color scheme with all colors disabled (for NO_COLOR).
func DisabledColorScheme() *ColorScheme {
	scheme := &ColorScheme{
		Header:     color.New(),
		Assistant:  color.New(),
		Tool:       color.New(),
		Detail:     color.New(),
		Error:      color.New(),
		Success:    color.New(),
		Spinner:    color.New(),
		DiffAdd:    color.New(),
		DiffRemove: color.New(),
		DiffHunk:   color.New(),
		Muted:      color.New(),
	}
	for _, c := range scheme.all() {
		c.DisableColor()
	}
	return scheme
}

func (s *ColorScheme) all() []*color.Color {
	return []*color.Color{
		s.Header, s.Assistant, s.Tool, s.Detail, s.Error, s.Success,
		s.Spinner, s.DiffAdd, s.DiffRemove, s.DiffHunk, s.Muted,
	}
}

func hexColor(hex string) *color.Color {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return color.New()
	}
	return color.RGB(r, g, b)
}

func parseHex(hex string) (r, g, b int, ok bool) {
	if !hexColorRegex.MatchString(hex) {
		return 0, 0, 0, false
	}
	digits := hex[1:]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	value, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(value >> 16 & 0xff), int(value >> 8 & 0xff), int(value & 0xff), true
}
