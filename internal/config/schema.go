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
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaJSON returns the JSON schema for config.json.
func SchemaJSON() string {
	return configSchemaJSON
}

// ExampleConfigJSON returns a minimal example config accepted by the schema.
func ExampleConfigJSON() string {
	return exampleConfigJSON
}

var configSchema = mustCompileSchema(configSchemaJSON)

func mustCompileSchema(source string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("invalid config schema: %v", err))
	}
	return schema
}

// validateConfigJSON rejects unknown fields and wrongly typed values.
func validateConfigJSON(data []byte) error {
	result, err := configSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("invalid configuration JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, describeSchemaError(desc))
	}
	sort.Strings(problems)
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

func describeSchemaError(desc gojsonschema.ResultError) string {
	if desc.Type() == "additional_property_not_allowed" {
		field := fmt.Sprint(desc.Details()["property"])
		if ctx := desc.Field(); ctx != "(root)" {
			field = ctx + "." + field
		}
		return fmt.Sprintf("unknown configuration field %q", field)
	}
	return desc.String()
}

const configSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "chai config",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "api_key": { "type": "string" },
    "api_url": { "type": "string" },
    "model": { "type": "string" },
    "temperature": { "type": "number" },
    "max_tokens": { "type": "integer" },
    "max_steps": { "type": "integer" },
    "parallel_tools": { "type": "integer" },
    "command_history_file": { "type": "string" },
    "tool_limits": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "max_file_size_bytes": { "type": "integer" }
      }
    },
    "tool_timeouts": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "default_ms": { "type": "integer" },
        "max_ms": { "type": "integer" }
      }
    },
    "tool_output_filters": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "max_chars": { "type": "integer" },
        "strip_ansi": { "type": "boolean" },
        "strip_control": { "type": "boolean" }
      }
    }
  }
}`

const exampleConfigJSON = `{
  "api_key": "sk-...",
  "api_url": "https://api.openai.com/v1",
  "model": "gpt-4o-mini",
  "max_steps": 25,
  "tool_timeouts": {
    "default_ms": 30000,
    "max_ms": 600000
  },
  "tool_output_filters": {
    "max_chars": 30000,
    "strip_ansi": true,
    "strip_control": true
  }
}`
