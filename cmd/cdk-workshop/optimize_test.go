package main

import (
	"bytes"
	"strings"
	"testing"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

func TestNewOptimizeCmd(t *testing.T) {
	cmd := newOptimizeCmd(&globalOptions{})

	if cmd.Use != "optimize" {
		t.Errorf("Use = %q, want 'optimize'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	// Check flags exist
	if cmd.Flags().Lookup("format") == nil {
		t.Error("missing --format flag")
	}

	if cmd.Flags().Lookup("category") == nil {
		t.Error("missing --category flag")
	}
}

func TestOptimizeInvalidCategory(t *testing.T) {
	_, _, err := execute(t, "optimize", "--category", "invalid")
	if err == nil || !strings.Contains(err.Error(), "invalid category") {
		t.Errorf("expected invalid category error, got %v", err)
	}
}

func TestOutputOptimizeResultText(t *testing.T) {
	result := workshop.OptimizeResult{
		Success:       true,
		ResourceCount: 2,
		Suggestions: []workshop.OptimizeSuggestion{
			{Rule: "OPT-S3-002", Resource: "SiteBucket", Category: "reliability", Severity: "medium", Title: "S3 bucket is deleted with the stack"},
		},
		Summary: workshop.OptimizeSummary{Reliability: 1, Total: 1},
	}

	var buf bytes.Buffer
	if err := outputOptimizeResult(result, "text", &buf); err != nil {
		t.Fatalf("outputOptimizeResult() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Found 1 suggestions", "=== Reliability (1) ===", "Resource: SiteBucket", "(OPT-S3-002)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestOptimizeCommand(t *testing.T) {
	cfgPath, _ := testWorkspace(t)

	stdout, _, err := execute(t, "optimize", "--config", cfgPath, "--category", "reliability")
	if err != nil {
		t.Fatalf("optimize error = %v", err)
	}
	if !strings.Contains(stdout, "SiteBucket") {
		t.Errorf("expected a SiteBucket suggestion:\n%s", stdout)
	}
}
