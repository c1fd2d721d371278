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
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/567-labs/instructor-go/pkg/instructor"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

func mustSchemaParametersFor[T any]() map[string]interface{} {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		panic("schema type is nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	params, err := schemaParametersForType(t)
	if err != nil {
		panic(err)
	}
	return params
}

func schemaParametersForType(t reflect.Type) (map[string]interface{}, error) {
	schema, err := instructor.NewSchema(t)
	if err != nil {
		return nil, err
	}

	defName := t.Name()
	for _, fn := range schema.Functions {
		if fn.Name != defName {
			continue
		}
		return jsonSchemaToMap(fn.Parameters)
	}

	return reflectedParameters(t)
}

// reflectedParameters inlines the struct schema when instructor did not emit a
// function definition for the type.
func reflectedParameters(t reflect.Type) (map[string]interface{}, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	schema := reflector.ReflectFromType(t)
	if schema == nil {
		return nil, fmt.Errorf("schema definition %q not found", t.Name())
	}
	params, err := jsonSchemaToMap(schema)
	if err != nil {
		return nil, err
	}
	delete(params, "$schema")
	delete(params, "$id")
	return params, nil
}

func jsonSchemaToMap(schema interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var params map[string]interface{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	return params, nil
}

var (
	argValidatorOnce sync.Once
	argValidator     *validator.Validate
)

func structValidator() *validator.Validate {
	argValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		argValidator = v
	})
	return argValidator
}

// unmarshalAndValidate decodes tool arguments into T and applies its
// `validate` struct tags. Field names in errors use the JSON argument names.
func unmarshalAndValidate[T any](args map[string]interface{}) (T, error) {
	var out T
	raw, err := json.Marshal(args)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return out, fmt.Errorf("invalid '%s' parameter: expected %s", typeErr.Field, typeErr.Type.String())
		}
		return out, err
	}
	if err := structValidator().Struct(out); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			details := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				details = append(details, describeFieldError(fe))
			}
			return out, fmt.Errorf("%s", strings.Join(details, "; "))
		}
		return out, err
	}
	return out, nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("missing or invalid '%s' parameter", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("'%s' parameter must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("'%s' parameter must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("invalid '%s' parameter: failed '%s' check", fe.Field(), fe.Tag())
	}
}
