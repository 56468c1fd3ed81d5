// Package schema provides offline CloudFormation schema validation.
// It validates resources against the schemas of the resource types the
// workshop stack emits.
package schema

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/lex00/cloudformation-schema-go/enums"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

// Options configures schema validation.
type Options struct {
	// Strict reports properties the schema does not know as warnings
	Strict bool
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []workshop.SchemaError
	Warnings []workshop.SchemaError
}

// ValidateTemplate validates a CloudFormation template against known schemas.
// Resources are checked in name order so reports are stable.
func ValidateTemplate(template *workshop.Template, opts Options) *Result {
	result := &Result{Valid: true}

	names := make([]string, 0, len(template.Resources))
	for name := range template.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errs, warnings := validateResource(name, template.Resources[name], opts)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// validateResource validates a single resource.
func validateResource(name string, resource workshop.ResourceDef, opts Options) ([]workshop.SchemaError, []workshop.SchemaError) {
	var errs, warnings []workshop.SchemaError

	if !isValidResourceType(resource.Type) {
		errs = append(errs, workshop.SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resource.Type),
		})
	}

	for _, policy := range []struct{ attr, value string }{
		{"DeletionPolicy", resource.DeletionPolicy},
		{"UpdateReplacePolicy", resource.UpdateReplacePolicy},
	} {
		if policy.value != "" && !slices.Contains(removalPolicies, policy.value) {
			errs = append(errs, workshop.SchemaError{
				Resource: name,
				Property: policy.attr,
				Message:  fmt.Sprintf("value %q not in allowed values: %v", policy.value, removalPolicies),
			})
		}
	}

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		// CloudFormation may have resource types not yet in our schema
		warnings = append(warnings, workshop.SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s (schema not available for validation)", resource.Type),
		})
		return errs, warnings
	}

	for _, required := range schema.Required {
		if _, exists := resource.Properties[required]; !exists {
			errs = append(errs, workshop.SchemaError{
				Resource: name,
				Property: required,
				Message:  fmt.Sprintf("missing required property: %s", required),
			})
		}
	}

	props := make([]string, 0, len(resource.Properties))
	for prop := range resource.Properties {
		props = append(props, prop)
	}
	sort.Strings(props)

	for _, propName := range props {
		propValue := resource.Properties[propName]
		propSchema, ok := schema.Properties[propName]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, workshop.SchemaError{
					Resource: name,
					Property: propName,
					Message:  fmt.Sprintf("unknown property: %s", propName),
				})
			}
			continue
		}

		errs = append(errs, validateProperty(name, propName, propValue, propSchema)...)
		if w, ok := checkEnum(name, resource.Type, propName, propValue); ok {
			warnings = append(warnings, w)
		}
	}

	return errs, warnings
}

var removalPolicies = []string{"Delete", "Retain", "Snapshot", "RetainExceptOnCreate"}

// isValidResourceType checks if a resource type has valid format.
func isValidResourceType(resourceType string) bool {
	// CloudFormation resource types follow pattern: AWS::Service::Resource or Custom::*
	if strings.HasPrefix(resourceType, "Custom::") {
		return true
	}
	parts := strings.Split(resourceType, "::")
	if len(parts) != 3 {
		return false
	}
	return parts[0] == "AWS" || parts[0] == "Alexa"
}

// validateProperty validates a property value against its schema.
func validateProperty(resource, property string, value any, schema PropertySchema) []workshop.SchemaError {
	var errs []workshop.SchemaError

	if !isValidType(value, schema.Type) {
		errs = append(errs, workshop.SchemaError{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("expected type %s", schema.Type),
		})
	}

	if len(schema.AllowedValues) > 0 {
		if strVal, ok := value.(string); ok && !slices.Contains(schema.AllowedValues, strVal) {
			errs = append(errs, workshop.SchemaError{
				Resource: resource,
				Property: property,
				Message:  fmt.Sprintf("value %q not in allowed values: %v", strVal, schema.AllowedValues),
			})
		}
	}

	return errs
}

// checkEnum reports a literal string that the service's published enum
// does not list. The enum tables trail new service releases, so this is
// a warning only.
func checkEnum(resource, resourceType, property string, value any) (workshop.SchemaError, bool) {
	strVal, ok := value.(string)
	if !ok {
		return workshop.SchemaError{}, false
	}
	service := enumServices[serviceOf(resourceType)]
	if service == "" {
		return workshop.SchemaError{}, false
	}
	enumName := enums.GetEnumForProperty(service, property)
	if enumName == "" || enums.IsValidValue(service, enumName, strVal) {
		return workshop.SchemaError{}, false
	}
	return workshop.SchemaError{
		Resource: resource,
		Property: property,
		Message:  fmt.Sprintf("value %q is not a known %s %s", strVal, service, enumName),
	}, true
}

// serviceOf returns the lower-cased service of a CloudFormation type.
func serviceOf(resourceType string) string {
	parts := strings.Split(resourceType, "::")
	if len(parts) != 3 {
		return ""
	}
	return strings.ToLower(parts[1])
}

// isValidType checks if a value matches the expected type.
func isValidType(value any, expectedType string) bool {
	// CloudFormation intrinsic functions are always valid
	if m, ok := value.(map[string]any); ok {
		for key := range m {
			if strings.HasPrefix(key, "Fn::") || key == "Ref" {
				return true
			}
		}
	}

	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch value.(type) {
		case int, int32, int64, float64:
			return true
		}
		return false
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	case "Json":
		return true
	default:
		return true
	}
}

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Type       string
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property.
type PropertySchema struct {
	Type          string
	AllowedValues []string
}
