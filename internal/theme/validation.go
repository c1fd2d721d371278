package theme

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrInvalidColor = errors.New("invalid color format")
	ErrEmptyColor   = errors.New("color cannot be empty")
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateTheme validates all theme color values.
func ValidateTheme(t *Theme) error {
	if t == nil {
		return fmt.Errorf("theme is nil")
	}

	fields := []struct {
		name  string
		value string
	}{
		{"header_color", t.HeaderColor},
		{"assistant_color", t.AssistantColor},
		{"tool_color", t.ToolColor},
		{"detail_color", t.DetailColor},
		{"error_color", t.ErrorColor},
		{"success_color", t.SuccessColor},
		{"spinner_color", t.SpinnerColor},
		{"diff_add_color", t.DiffAddColor},
		{"diff_remove_color", t.DiffRemoveColor},
		{"diff_hunk_color", t.DiffHunkColor},
		{"muted_color", t.MutedColor},
	}

	for _, field := range fields {
		if err := ValidateColor(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}

	return nil
}

// ValidateColor validates a single color value (hex format).
func ValidateColor(color string) error {
	if color == "" {
		return ErrEmptyColor
	}

	if !hexColorRegex.MatchString(color) {
		return fmt.Errorf("%w: %q (expected #RGB or #RRGGBB)", ErrInvalidColor, color)
	}

	return nil
}
