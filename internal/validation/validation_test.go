package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lex00/cfn-lint-go/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

func TestCfnLintResult_TotalIssues(t *testing.T) {
	tests := []struct {
		name     string
		result   CfnLintResult
		expected int
	}{
		{
			name:     "empty result",
			result:   CfnLintResult{},
			expected: 0,
		},
		{
			name:     "errors only",
			result:   CfnLintResult{Errors: []string{"error1", "error2"}},
			expected: 2,
		},
		{
			name: "mixed issues",
			result: CfnLintResult{
				Errors:        []string{"error1"},
				Warnings:      []string{"warning1", "warning2"},
				Informational: []string{"info1"},
			},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.TotalIssues())
		})
	}
}

func TestFormatMatch(t *testing.T) {
	tests := []struct {
		name     string
		match    lint.Match
		expected string
	}{
		{
			name: "simple match",
			match: lint.Match{
				Rule:    lint.MatchRule{ID: "E3002"},
				Message: "Invalid property",
			},
			expected: "E3002: Invalid property",
		},
		{
			name: "match with path",
			match: lint.Match{
				Rule:    lint.MatchRule{ID: "W3005"},
				Message: "Redundant DependsOn",
				Location: lint.MatchLocation{
					Path: []any{"Resources", "EndpointDeployment", "DependsOn", 0},
				},
			},
			expected: "W3005: Redundant DependsOn (at Resources/EndpointDeployment/DependsOn/0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMatch(tt.match))
		})
	}
}

func TestFormatSchemaError(t *testing.T) {
	got := formatSchemaError(workshop.SchemaError{
		Resource: "SiteBucketPolicy",
		Property: "PolicyDocument",
		Message:  "missing required property: PolicyDocument",
	})
	assert.Equal(t, "SiteBucketPolicy.PolicyDocument: missing required property: PolicyDocument", got)
}

func TestRunCfnLint_FileNotFound(t *testing.T) {
	result, err := RunCfnLint("/nonexistent/template.yaml")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Template file not found")
}

func TestRunCfnLint_ValidTemplate(t *testing.T) {
	templatePath := filepath.Join(t.TempDir(), "template.yaml")

	validTemplate := `AWSTemplateFormatVersion: '2010-09-09'
Description: Test template
Resources:
  SiteBucket:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: test-bucket
`
	require.NoError(t, os.WriteFile(templatePath, []byte(validTemplate), 0644))

	result, err := RunCfnLint(templatePath)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestLintTemplate(t *testing.T) {
	tmpl := &workshop.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources: map[string]workshop.ResourceDef{
			"SiteBucket": {Type: "AWS::S3::Bucket"},
		},
	}

	result, err := LintTemplate(tmpl)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestValidate_SchemaOnly(t *testing.T) {
	tmpl := &workshop.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources: map[string]workshop.ResourceDef{
			"SiteBucket": {Type: "AWS::S3::Bucket"},
			"SiteBucketPolicy": {
				Type:       "AWS::S3::BucketPolicy",
				Properties: map[string]any{"Bucket": map[string]any{"Ref": "SiteBucket"}},
			},
		},
	}

	result, err := Validate(tmpl, Options{SkipLint: true})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Resources)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "SiteBucketPolicy.PolicyDocument")
}
