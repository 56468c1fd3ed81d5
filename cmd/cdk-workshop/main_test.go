package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

// testWorkspace writes a config file and every asset directory under a
// temporary root and returns the config path and the output directory.
func testWorkspace(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()

	dirs := map[string]string{
		"hello_handler":  "lambda/helloHandler",
		"nodejs_handler": "lambda/nodeJsLayerHandler",
		"python_handler": "lambda/pythonLayerHandler",
		"nodejs_layer_1": "lambda/layers/nodejs_layers/layer_1",
		"nodejs_layer_2": "lambda/layers/nodejs_layers/layer_2",
		"python_layer_1": "lambda/layers/python_layers/layer_1",
		"python_layer_2": "lambda/layers/python_layers/layer_2",
	}

	var sb strings.Builder
	outDir := filepath.Join(root, "cdk.out")
	fmt.Fprintf(&sb, "stack_name: TestStack\nout_dir: %s\nassets:\n", outDir)
	for key, rel := range dirs {
		dir := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.js"), []byte(key), 0o644))
		fmt.Fprintf(&sb, "  %s: %s\n", key, dir)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, dirs["hello_handler"], "bootstrap"), []byte("binary"), 0o755))

	site := filepath.Join(root, "site-contents")
	require.NoError(t, os.MkdirAll(site, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(site, "index.html"), []byte("<h1>hi</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(site, "error.html"), []byte("<h1>oops</h1>"), 0o644))
	fmt.Fprintf(&sb, "site:\n  contents_dir: %s\nlogging:\n  level: error\n", site)

	path := filepath.Join(root, "workshop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path, outDir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"synth", "list", "graph", "diff", "validate", "optimize", "serve", "watch", "deploy", "destroy", "version"} {
		assert.Contains(t, names, want)
	}

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}

func TestSynth(t *testing.T) {
	cfgPath, outDir := testWorkspace(t)

	stdout, _, err := execute(t, "synth", "--config", cfgPath)
	require.NoError(t, err)

	var tmpl map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &tmpl))
	assert.Equal(t, "2010-09-09", tmpl["AWSTemplateFormatVersion"])

	resources := tmpl["Resources"].(map[string]any)
	assert.Contains(t, resources, "HelloHandler")
	assert.Contains(t, resources, "SiteBucket")
	assert.Contains(t, resources, "Endpoint")

	assert.FileExists(t, filepath.Join(outDir, "TestStack.template.json"))
	assert.FileExists(t, filepath.Join(outDir, "manifest.json"))
}

func TestSynth_YAMLQuiet(t *testing.T) {
	cfgPath, outDir := testWorkspace(t)

	stdout, _, err := execute(t, "synth", "--config", cfgPath, "--format", "yaml", "-q")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(filepath.Join(outDir, "TestStack.template.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "AWSTemplateFormatVersion:")
}

func TestSynth_MissingConfig(t *testing.T) {
	_, _, err := execute(t, "synth", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestList_JSON(t *testing.T) {
	cfgPath, _ := testWorkspace(t)

	stdout, _, err := execute(t, "list", "--config", cfgPath, "--format", "json")
	require.NoError(t, err)

	var result workshop.ListResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.NotEmpty(t, result.Resources)

	byName := make(map[string]workshop.ListResource)
	for _, r := range result.Resources {
		byName[r.Name] = r
	}
	assert.Equal(t, "AWS::S3::Bucket", byName["SiteBucket"].Type)
	assert.Contains(t, byName["SiteBucketPolicy"].DependsOn, "SiteBucket")
}

func TestDiff_NoChanges(t *testing.T) {
	cfgPath, _ := testWorkspace(t)

	_, _, err := execute(t, "synth", "--config", cfgPath, "-q")
	require.NoError(t, err)

	stdout, _, err := execute(t, "diff", "--config", cfgPath, "--fail")
	require.NoError(t, err)
	assert.Contains(t, stdout, "There were no differences")
}

func TestDiff_NoPreviousTemplate(t *testing.T) {
	cfgPath, _ := testWorkspace(t)

	_, _, err := execute(t, "diff", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no previous template")
}

func TestGraph_Mermaid(t *testing.T) {
	cfgPath, _ := testWorkspace(t)

	stdout, _, err := execute(t, "graph", "--config", cfgPath, "--format", "mermaid")
	require.NoError(t, err)
	assert.Contains(t, stdout, "SiteBucketPolicy")
}

func TestDestroy_RequiresForce(t *testing.T) {
	_, _, err := execute(t, "destroy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
}

func TestDeploy_RequiresAssetBucket(t *testing.T) {
	cfgPath, _ := testWorkspace(t)
	t.Setenv("CDKW_ASSET_BUCKET", "")

	_, _, err := execute(t, "deploy", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asset_bucket")
}

func TestReportBuildFailure(t *testing.T) {
	var stderr bytes.Buffer
	err := reportBuildFailure(fmt.Errorf("wrap: %w", errors.Join(errors.New("first"), errors.New("second"))), &stderr)

	require.EqualError(t, err, "synth failed")
	assert.Equal(t, "first\nsecond\n", stderr.String())
}
