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
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()
	if err := ValidateTheme(theme); err != nil {
		t.Fatalf("default theme should validate: %v", err)
	}
	if theme.ToolColor == "" {
		t.Error("expected ToolColor to be set")
	}
	if theme.DiffAddColor == "" || theme.DiffRemoveColor == "" {
		t.Error("expected diff colors to be set")
	}
}

func TestLoadThemeNonExistent(t *testing.T) {
	theme, err := LoadTheme(filepath.Join(t.TempDir(), "theme.json"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if theme.HeaderColor != DefaultTheme().HeaderColor {
		t.Errorf("expected default header color, got %q", theme.HeaderColor)
	}
}

func TestLoadThemePartialOverride(t *testing.T) {
	themeFile := filepath.Join(t.TempDir(), "theme.json")
	content := `{"tool_color": "#ff0000", "diff_add_color": "#0f0"}`
	if err := os.WriteFile(themeFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write theme file: %v", err)
	}

	theme, err := LoadTheme(themeFile)
	if err != nil {
		t.Fatalf("LoadTheme() error = %v", err)
	}
	if theme.ToolColor != "#ff0000" {
		t.Errorf("expected tool color override, got %s", theme.ToolColor)
	}
	if theme.DiffAddColor != "#0f0" {
		t.Errorf("expected diff add override, got %s", theme.DiffAddColor)
	}
	if theme.ErrorColor != DefaultTheme().ErrorColor {
		t.Errorf("expected untouched fields to keep defaults, got %s", theme.ErrorColor)
	}
}

func TestLoadThemeInvalidJSON(t *testing.T) {
	themeFile := filepath.Join(t.TempDir(), "theme.json")
	if err := os.WriteFile(themeFile, []byte(`{"tool_color":`), 0o644); err != nil {
		t.Fatalf("failed to write theme file: %v", err)
	}
	if _, err := LoadTheme(themeFile); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b int
		ok      bool
	}{
		{"#ff8000", 255, 128, 0, true},
		{"#FFF", 255, 255, 255, true},
		{"#0a0", 0, 170, 0, true},
		{"red", 0, 0, 0, false},
		{"#12345", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			r, g, b, ok := parseHex(tt.hex)
			if ok != tt.ok {
				t.Fatalf("parseHex(%q) ok = %v, want %v", tt.hex, ok, tt.ok)
			}
			if ok && (r != tt.r || g != tt.g || b != tt.b) {
				t.Errorf("parseHex(%q) = %d,%d,%d, want %d,%d,%d", tt.hex, r, g, b, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestDisabledColorSchemePrintsPlainText(t *testing.T) {
	scheme := DisabledColorScheme()
	for _, c := range scheme.all() {
		if got := c.Sprint("plain"); got != "plain" {
			t.Fatalf("expected uncolored output, got %q", got)
		}
	}
}

func TestToColorSchemeCoversAllRoles(t *testing.T) {
	scheme := DefaultTheme().ToColorScheme()
	for i, c := range scheme.all() {
		if c == nil {
			t.Fatalf("color %d is nil", i)
		}
	}
	for i, c := range DefaultColorScheme().all() {
		if c == nil {
			t.Fatalf("basic color %d is nil", i)
		}
	}
}
