// Package validator checks inbound JSON request bodies against a schema of
// required fields and per-field patterns.
//
// A schema is the local, executable form of an API Gateway request model:
// the same schema that validates requests in the emulator and the Lambda
// handler is rendered into the AWS::ApiGateway::Model of the deployed API.
package validator

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// JSONSchemaDraft4 is the $schema URI API Gateway models are written in.
const JSONSchemaDraft4 = "http://json-schema.org/draft-04/schema#"

// Field is one declared payload field and its pattern.
type Field struct {
	Name    string
	Pattern string
}

// ValidationSchema declares the required fields and field patterns of a
// JSON payload. Every required field must also have a pattern.
type ValidationSchema struct {
	// Name is the model name the schema is registered under.
	Name        string
	Title       string
	ContentType string
	Description string
	Required    []string
	Fields      []Field

	compiled map[string]*regexp.Regexp
}

// Violation is one field that failed validation.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Result is the outcome of validating one body.
type Result struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// Fields returns the names of the violating fields in report order.
func (r Result) Fields() []string {
	out := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		out[i] = v.Field
	}
	return out
}

// Compile checks the schema's invariants and compiles its patterns.
// Validate compiles on first use; schemas shared between goroutines should
// be compiled up front.
func (s *ValidationSchema) Compile() error {
	compiled := make(map[string]*regexp.Regexp, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %s: field with empty name", s.Name)
		}
		if _, dup := compiled[f.Name]; dup {
			return fmt.Errorf("schema %s: field %q declared twice", s.Name, f.Name)
		}
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("schema %s: field %q: %w", s.Name, f.Name, err)
		}
		compiled[f.Name] = re
	}

	seen := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		if seen[name] {
			return fmt.Errorf("schema %s: required field %q listed twice", s.Name, name)
		}
		seen[name] = true
		if _, ok := compiled[name]; !ok {
			return fmt.Errorf("schema %s: required field %q has no pattern", s.Name, name)
		}
	}

	s.compiled = compiled
	return nil
}

// MustCompile is like Compile but panics on error. For package-level schemas.
func (s *ValidationSchema) MustCompile() *ValidationSchema {
	if err := s.Compile(); err != nil {
		panic(err)
	}
	return s
}

// Validate checks a raw request body. A body that is not a JSON object fails
// as a whole under the empty field name.
func (s *ValidationSchema) Validate(body []byte) Result {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return Result{Violations: []Violation{{Field: "", Reason: "body is not a JSON object"}}}
	}
	return s.ValidateObject(obj)
}

// ValidateObject checks a decoded JSON object. Extra fields are ignored.
// Violations are reported with required fields first, in declaration order,
// then optional declared fields in declaration order.
func (s *ValidationSchema) ValidateObject(obj map[string]any) Result {
	if s.compiled == nil {
		if err := s.Compile(); err != nil {
			return Result{Violations: []Violation{{Field: "", Reason: err.Error()}}}
		}
	}

	var violations []Violation
	checked := make(map[string]bool, len(s.Fields))

	check := func(name string, required bool) {
		checked[name] = true
		raw, present := obj[name]
		if !present {
			if required {
				violations = append(violations, Violation{Field: name, Reason: "required field missing"})
			}
			return
		}
		str, ok := raw.(string)
		if !ok {
			violations = append(violations, Violation{Field: name, Reason: "must be a string"})
			return
		}
		if re := s.compiled[name]; re != nil && !re.MatchString(str) {
			violations = append(violations, Violation{
				Field:  name,
				Reason: fmt.Sprintf("does not match pattern %s", re.String()),
			})
		}
	}

	for _, name := range s.Required {
		check(name, true)
	}
	for _, f := range s.Fields {
		if !checked[f.Name] {
			check(f.Name, false)
		}
	}

	return Result{Valid: len(violations) == 0, Violations: violations}
}

// JSONSchema renders the schema as the draft-04 document API Gateway models
// take. Every declared field is typed string.
func (s *ValidationSchema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		properties[f.Name] = map[string]any{
			"type":    "string",
			"pattern": f.Pattern,
		}
	}

	doc := map[string]any{
		"$schema":    JSONSchemaDraft4,
		"type":       "object",
		"properties": properties,
	}
	if s.Title != "" {
		doc["title"] = s.Title
	}
	if len(s.Required) > 0 {
		doc["required"] = append([]string(nil), s.Required...)
	}
	return doc
}
