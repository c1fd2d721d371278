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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	apperrors "chai/internal/errors"
	"chai/internal/tools"
)

const (
	defaultModel              = "gpt-4o-mini"
	defaultAPIURL             = "https://api.openai.com/v1"
	defaultCommandHistoryFile = ".chai_history"
	defaultMaxSteps           = 25
	defaultParallelTools      = 1
)

// Config represents the application configuration
type Config struct {
	APIKey             string            `json:"api_key"`
	APIURL             string            `json:"api_url,omitempty"`
	Model              string            `json:"model"`
	Temperature        *float32          `json:"temperature,omitempty"`
	MaxTokens          *int              `json:"max_tokens,omitempty"`
	MaxSteps           int               `json:"max_steps,omitempty"`
	ParallelTools      int               `json:"parallel_tools,omitempty"`
	CommandHistoryFile string            `json:"command_history_file,omitempty"`
	ToolLimits         ToolLimits        `json:"tool_limits,omitempty"`
	ToolTimeouts       ToolTimeouts      `json:"tool_timeouts,omitempty"`
	ToolOutputFilters  ToolOutputFilters `json:"tool_output_filters,omitempty"`
}

// ToolLimits configures resource limits for tool execution.
type ToolLimits struct {
	MaxFileSizeBytes int64 `json:"max_file_size_bytes,omitempty"`
}

// ToolTimeouts configures shell command timeouts in milliseconds.
type ToolTimeouts struct {
	DefaultMS int `json:"default_ms,omitempty"`
	MaxMS     int `json:"max_ms,omitempty"`
}

// ToolOutputFilters configures output sanitization for tool results.
type ToolOutputFilters struct {
	MaxChars     int  `json:"max_chars,omitempty"`
	StripANSI    bool `json:"strip_ansi"`
	StripControl bool `json:"strip_control"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	timeouts := tools.DefaultTimeoutConfig()
	filters := tools.DefaultOutputFilterConfig()
	return &Config{
		Model:              defaultModel,
		APIURL:             defaultAPIURL,
		MaxSteps:           defaultMaxSteps,
		ParallelTools:      defaultParallelTools,
		CommandHistoryFile: defaultCommandHistoryFile,
		ToolLimits: ToolLimits{
			MaxFileSizeBytes: tools.DefaultLimits().MaxFileSizeBytes,
		},
		ToolTimeouts: ToolTimeouts{
			DefaultMS: int(timeouts.Default / time.Millisecond),
			MaxMS:     int(timeouts.Max / time.Millisecond),
		},
		ToolOutputFilters: ToolOutputFilters{
			MaxChars:     filters.MaxChars,
			StripANSI:    filters.StripANSI,
			StripControl: filters.StripControl,
		},
	}
}

// LoadDotEnv loads variables from a .env file without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.Wrap(apperrors.CodeConfig, "failed to stat env file", err)
	}
	if err := godotenv.Load(path); err != nil {
		return apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("failed to load %s", path), err)
	}
	return nil
}

// LoadConfig loads configuration from a JSON file, applies env overrides, and validates required fields.
func LoadConfig(filepath string) (*Config, error) {
	config := DefaultConfig()

	// If config file exists, load it
	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, "failed to read config", err)
		}
		if err := validateConfigJSON(data); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, filepath, err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfig, filepath, err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	// Set defaults for any missing values
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.APIURL == "" {
		config.APIURL = defaultAPIURL
	}
	if config.MaxSteps <= 0 {
		config.MaxSteps = defaultMaxSteps
	}
	if config.ParallelTools <= 0 {
		config.ParallelTools = defaultParallelTools
	}

	if config.APIKey == "" {
		return nil, apperrors.New(apperrors.CodeConfig, "API key is required (set api_key in config.json or OPENAI_API_KEY)")
	}

	return config, nil
}

// Env overrides apply regardless of whether a config file exists.
func applyEnvOverrides(config *Config) error {
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		config.APIKey = val
	}
	if val := os.Getenv("OPENAI_API_URL"); val != "" {
		config.APIURL = val
	}
	if val := os.Getenv("CHAI_MODEL"); val != "" {
		config.Model = val
	}
	if val := os.Getenv("CHAI_MAX_STEPS"); val != "" {
		steps, err := strconv.Atoi(val)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeConfig, "CHAI_MAX_STEPS must be an integer", err)
		}
		config.MaxSteps = steps
	}
	return nil
}

// ToolLimitsConfig returns tool limits for runtime enforcement.
func (c *Config) ToolLimitsConfig() tools.Limits {
	return tools.Limits{MaxFileSizeBytes: c.ToolLimits.MaxFileSizeBytes}
}

// ToolTimeoutsConfig returns timeout configuration for shell commands.
func (c *Config) ToolTimeoutsConfig() tools.TimeoutConfig {
	return tools.TimeoutConfig{
		Default: time.Duration(c.ToolTimeouts.DefaultMS) * time.Millisecond,
		Max:     time.Duration(c.ToolTimeouts.MaxMS) * time.Millisecond,
	}
}

// ToolOutputFiltersConfig returns output filter configuration for tools.
func (c *Config) ToolOutputFiltersConfig() tools.OutputFilterConfig {
	return tools.OutputFilterConfig{
		MaxChars:     c.ToolOutputFilters.MaxChars,
		StripANSI:    c.ToolOutputFilters.StripANSI,
		StripControl: c.ToolOutputFilters.StripControl,
	}
}

// ValidationWarning represents a non-fatal configuration issue
type ValidationWarning struct {
	Field   string
	Message string
}

// Validate checks the configuration for common issues and returns warnings
func (c *Config) Validate() []ValidationWarning {
	var warnings []ValidationWarning

	// Validate temperature range (OpenAI expects 0-2)
	if c.Temperature != nil {
		temp := *c.Temperature
		if temp < 0 || temp > 2 {
			warnings = append(warnings, ValidationWarning{
				Field:   "temperature",
				Message: fmt.Sprintf("temperature %.2f is outside recommended range [0, 2]", temp),
			})
		}
	}

	// Validate max_tokens (OpenAI models have different limits)
	if c.MaxTokens != nil {
		tokens := *c.MaxTokens
		if tokens <= 0 {
			warnings = append(warnings, ValidationWarning{
				Field:   "max_tokens",
				Message: fmt.Sprintf("max_tokens %d must be positive", tokens),
			})
		}
		if tokens > 128000 {
			warnings = append(warnings, ValidationWarning{
				Field:   "max_tokens",
				Message: fmt.Sprintf("max_tokens %d exceeds typical model limits", tokens),
			})
		}
	}

	if c.MaxSteps > 100 {
		warnings = append(warnings, ValidationWarning{
			Field:   "max_steps",
			Message: fmt.Sprintf("max_steps %d allows very long tool loops", c.MaxSteps),
		})
	}

	if c.ParallelTools > 8 {
		warnings = append(warnings, ValidationWarning{
			Field:   "parallel_tools",
			Message: fmt.Sprintf("parallel_tools %d runs many commands at once", c.ParallelTools),
		})
	}

	if c.ToolTimeouts.MaxMS > 0 && c.ToolTimeouts.DefaultMS > c.ToolTimeouts.MaxMS {
		warnings = append(warnings, ValidationWarning{
			Field:   "tool_timeouts.default_ms",
			Message: fmt.Sprintf("default_ms %d exceeds max_ms %d, using max_ms", c.ToolTimeouts.DefaultMS, c.ToolTimeouts.MaxMS),
		})
	}

	if c.ToolOutputFilters.MaxChars < 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "tool_output_filters.max_chars",
			Message: fmt.Sprintf("max_chars %d should be positive, using default", c.ToolOutputFilters.MaxChars),
		})
	}

	return warnings
}
