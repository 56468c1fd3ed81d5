// Package differ provides semantic comparison of CloudFormation templates.
package differ

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// OutputDiff lists the outputs that differ between two templates.
type OutputDiff struct {
	Added    []string `json:"added,omitempty"`
	Removed  []string `json:"removed,omitempty"`
	Modified []string `json:"modified,omitempty"`
}

// Result contains the difference between two templates.
type Result struct {
	Diff    workshop.TemplateDiff `json:"diff"`
	Outputs OutputDiff            `json:"outputs"`
	Summary workshop.DiffSummary  `json:"summary"`
}

// Empty reports whether the templates were equivalent.
func (r *Result) Empty() bool {
	return r.Summary.Total == 0 &&
		len(r.Outputs.Added)+len(r.Outputs.Removed)+len(r.Outputs.Modified) == 0
}

// Compare compares the previous template with the current one.
// Both templates are normalized through JSON first, so a freshly built
// template compares equal to the same template read back from disk.
func Compare(previous, current *workshop.Template, opts Options) (*Result, error) {
	old, err := normalize(previous)
	if err != nil {
		return nil, fmt.Errorf("normalize previous template: %w", err)
	}
	cur, err := normalize(current)
	if err != nil {
		return nil, fmt.Errorf("normalize current template: %w", err)
	}

	result := &Result{}

	for name, def := range cur.Resources {
		if _, exists := old.Resources[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, workshop.DiffEntry{Resource: name, Type: def.Type})
		}
	}

	for name, def := range old.Resources {
		def2, exists := cur.Resources[name]
		if !exists {
			result.Diff.Removed = append(result.Diff.Removed, workshop.DiffEntry{Resource: name, Type: def.Type})
			continue
		}
		if changes := compareResources(def, def2, opts); len(changes) > 0 {
			result.Diff.Modified = append(result.Diff.Modified, workshop.DiffEntry{
				Resource: name,
				Type:     def2.Type,
				Changes:  changes,
			})
		}
	}

	for name := range cur.Outputs {
		if _, exists := old.Outputs[name]; !exists {
			result.Outputs.Added = append(result.Outputs.Added, name)
		}
	}
	for name, out := range old.Outputs {
		out2, exists := cur.Outputs[name]
		switch {
		case !exists:
			result.Outputs.Removed = append(result.Outputs.Removed, name)
		case !deepEqual(out, out2, opts):
			result.Outputs.Modified = append(result.Outputs.Modified, name)
		}
	}

	// Sort entries for consistent output
	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)
	sort.Strings(result.Outputs.Added)
	sort.Strings(result.Outputs.Removed)
	sort.Strings(result.Outputs.Modified)

	result.Summary = workshop.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFile compares a template file with the current template.
func CompareFile(previousPath string, current *workshop.Template, opts Options) (*Result, error) {
	previous, err := LoadTemplate(previousPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", previousPath, err)
	}
	return Compare(previous, current, opts)
}

// LoadTemplate loads a CloudFormation template from a JSON or YAML file.
func LoadTemplate(path string) (*workshop.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var template workshop.Template

	// Try JSON first
	if err := json.Unmarshal(data, &template); err != nil {
		if err := yaml.Unmarshal(data, &template); err != nil {
			return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
		}
	}

	return &template, nil
}

// Render writes a human-readable report of r to w.
func Render(w io.Writer, r *Result) error {
	var sb strings.Builder

	for _, e := range r.Diff.Added {
		fmt.Fprintf(&sb, "[+] %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range r.Diff.Removed {
		fmt.Fprintf(&sb, "[-] %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range r.Diff.Modified {
		fmt.Fprintf(&sb, "[~] %s (%s)\n", e.Resource, e.Type)
		for _, c := range e.Changes {
			fmt.Fprintf(&sb, "    %s\n", c)
		}
	}
	for _, name := range r.Outputs.Added {
		fmt.Fprintf(&sb, "[+] Outputs.%s\n", name)
	}
	for _, name := range r.Outputs.Removed {
		fmt.Fprintf(&sb, "[-] Outputs.%s\n", name)
	}
	for _, name := range r.Outputs.Modified {
		fmt.Fprintf(&sb, "[~] Outputs.%s\n", name)
	}

	if r.Empty() {
		sb.WriteString("There were no differences\n")
	} else {
		fmt.Fprintf(&sb, "\n%d added, %d removed, %d modified\n", r.Summary.Added, r.Summary.Removed, r.Summary.Modified)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func normalize(t *workshop.Template) (*workshop.Template, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var out workshop.Template
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// compareResources compares two resource definitions and returns changes.
func compareResources(def1, def2 workshop.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	changes = append(changes, compareProperties("", def1.Properties, def2.Properties, opts)...)

	if !slices.Equal(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}
	if def1.DeletionPolicy != def2.DeletionPolicy {
		changes = append(changes, fmt.Sprintf("DeletionPolicy changed: %q → %q", def1.DeletionPolicy, def2.DeletionPolicy))
	}
	if def1.UpdateReplacePolicy != def2.UpdateReplacePolicy {
		changes = append(changes, fmt.Sprintf("UpdateReplacePolicy changed: %q → %q", def1.UpdateReplacePolicy, def2.UpdateReplacePolicy))
	}

	return changes
}

// compareProperties recursively compares property maps.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	for key, val2 := range props2 {
		path := joinPath(prefix, key)

		val1, exists := props1[key]
		if !exists {
			changes = append(changes, fmt.Sprintf("%s added", path))
			continue
		}

		m1, ok1 := val1.(map[string]any)
		m2, ok2 := val2.(map[string]any)
		if ok1 && ok2 && !isIntrinsic(m1) && !isIntrinsic(m2) {
			changes = append(changes, compareProperties(path, m1, m2, opts)...)
			continue
		}
		if !deepEqual(val1, val2, opts) {
			changes = append(changes, fmt.Sprintf("%s modified", path))
		}
	}

	for key := range props1 {
		if _, exists := props2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s removed", joinPath(prefix, key)))
		}
	}

	sort.Strings(changes)
	return changes
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// isIntrinsic reports whether m is a single-key Ref or Fn:: expression,
// which is compared as a whole.
func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || strings.HasPrefix(k, "Fn::")
	}
	return false
}

// deepEqual compares two values deeply, optionally ignoring order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts slices by their JSON encoding so element order
// does not affect comparison.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = normalizeValue(item)
		}
		sort.SliceStable(result, func(i, j int) bool {
			return encodeKey(result[i]) < encodeKey(result[j])
		})
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

func encodeKey(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// sortEntries sorts diff entries by resource name.
func sortEntries(entries []workshop.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
