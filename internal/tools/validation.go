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

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationRule checks tool arguments and returns an error if invalid.
type ValidationRule func(args map[string]interface{}) error

// argumentSchema validates decoded tool arguments against a tool's JSON schema.
type argumentSchema struct {
	schema *gojsonschema.Schema
}

func compileArgumentSchema(params map[string]interface{}) (*argumentSchema, error) {
	if len(params) == 0 {
		return nil, nil
	}
	doc := make(map[string]interface{}, len(params))
	for k, v := range params {
		// gojsonschema understands drafts 4 to 7 only.
		if k == "$schema" || k == "$id" {
			continue
		}
		doc[k] = v
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile argument schema: %w", err)
	}
	return &argumentSchema{schema: schema}, nil
}

// Check returns one message per schema violation, or nil when args conform.
func (s *argumentSchema) Check(args map[string]interface{}) ([]string, error) {
	if s == nil {
		return nil, nil
	}
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return details, nil
}

func parseToolArgs(argsJSON string) (map[string]interface{}, error) {
	args := map[string]interface{}{}
	if strings.TrimSpace(argsJSON) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %v", err)
	}
	if args == nil {
		return map[string]interface{}{}, nil
	}
	return args, nil
}

// ChainValidation runs rules in order until the first error.
func ChainValidation(rules ...ValidationRule) ValidationRule {
	return func(args map[string]interface{}) error {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			if err := rule(args); err != nil {
				return err
			}
		}
		return nil
	}
}

// RequireStringArg ensures a string argument is present and non-empty.
func RequireStringArg(key, message string) ValidationRule {
	return func(args map[string]interface{}) error {
		value, ok := args[key]
		if !ok || value == nil {
			return fmt.Errorf("%s", message)
		}
		str, ok := value.(string)
		if !ok || strings.TrimSpace(str) == "" {
			return fmt.Errorf("%s", message)
		}
		return nil
	}
}

// RequirePresentArg ensures an argument key is present, allowing empty values.
func RequirePresentArg(key, message string) ValidationRule {
	return func(args map[string]interface{}) error {
		if value, ok := args[key]; !ok || value == nil {
			return fmt.Errorf("%s", message)
		}
		return nil
	}
}
