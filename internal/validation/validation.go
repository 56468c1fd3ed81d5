// Package validation checks a synthesized template before it is deployed.
//
// Two passes run over the template:
//   - schema: offline required-property and type checks (internal/schema)
//   - cfn-lint-go: CloudFormation lint rules (library dependency)
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	workshop "github.com/dineshpithiya/cdk-workshop"
	"github.com/dineshpithiya/cdk-workshop/internal/schema"
	"github.com/dineshpithiya/cdk-workshop/internal/template"
)

// Options configures template validation.
type Options struct {
	// Strict reports unknown properties as warnings
	Strict bool
	// SkipLint disables the cfn-lint pass
	SkipLint bool
}

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// LintTemplate writes t to a temporary file and runs cfn-lint-go on it.
func LintTemplate(t *workshop.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, fmt.Errorf("encoding template: %w", err)
	}

	dir, err := os.MkdirTemp("", "cdk-workshop-lint-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}

	return RunCfnLint(path)
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// formatSchemaError formats an offline schema violation for display.
func formatSchemaError(e workshop.SchemaError) string {
	return fmt.Sprintf("%s.%s: %s", e.Resource, e.Property, e.Message)
}

// Validate runs the schema pass and, unless disabled, the cfn-lint pass.
// Informational lint findings are reported as warnings.
func Validate(t *workshop.Template, opts Options) (*workshop.ValidateResult, error) {
	result := &workshop.ValidateResult{Resources: len(t.Resources)}

	s := schema.ValidateTemplate(t, schema.Options{Strict: opts.Strict})
	for _, e := range s.Errors {
		result.Errors = append(result.Errors, formatSchemaError(e))
	}
	for _, w := range s.Warnings {
		result.Warnings = append(result.Warnings, formatSchemaError(w))
	}

	if !opts.SkipLint {
		lintResult, err := LintTemplate(t)
		if err != nil {
			return nil, fmt.Errorf("running cfn-lint: %w", err)
		}
		result.Errors = append(result.Errors, lintResult.Errors...)
		result.Warnings = append(result.Warnings, lintResult.Warnings...)
		result.Warnings = append(result.Warnings, lintResult.Informational...)
	}

	result.Success = len(result.Errors) == 0
	return result, nil
}
