// Package template builds CloudFormation templates from the resources of a stack.
package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	workshop "github.com/dineshpithiya/cdk-workshop"
	"github.com/dineshpithiya/cdk-workshop/internal/discover"
	"github.com/dineshpithiya/cdk-workshop/internal/serialize"
)

// FormatVersion is the only template format version CloudFormation accepts.
const FormatVersion = "2010-09-09"

// ErrCycle is returned when resources depend on each other in a loop.
var ErrCycle = errors.New("circular dependency detected")

// Resource is one resource registered with the builder.
type Resource struct {
	Name          string
	Value         workshop.Resource
	DependsOn     []string
	RemovalPolicy workshop.RemovalPolicy
}

// Builder constructs a CloudFormation template from stack resources.
type Builder struct {
	description string
	resources   []Resource
	outputs     map[string]workshop.Output
}

// NewBuilder creates an empty template builder.
func NewBuilder(description string) *Builder {
	return &Builder{
		description: description,
		outputs:     make(map[string]workshop.Output),
	}
}

// AddResource registers a resource. Registration order is the tie-breaker
// for resources with no dependency between them.
func (b *Builder) AddResource(r Resource) {
	b.resources = append(b.resources, r)
}

// AddOutput registers a template output.
func (b *Builder) AddOutput(name string, out workshop.Output) {
	b.outputs[name] = out
}

// Discover serializes every resource and returns its dependency graph.
// Undefined references in resources or outputs are returned as an error
// wrapping discover.ErrUndefinedReference.
func (b *Builder) Discover() (*discover.Result, map[string]map[string]any, error) {
	props := make(map[string]map[string]any, len(b.resources))
	entries := make([]discover.Entry, 0, len(b.resources))
	declared := make(map[string]bool, len(b.resources))

	for _, r := range b.resources {
		p, err := serialize.Properties(r.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("serializing %s: %w", r.Name, err)
		}
		props[r.Name] = p
		declared[r.Name] = true
		entries = append(entries, discover.Entry{
			Name:       r.Name,
			Type:       r.Value.ResourceType(),
			Properties: p,
			DependsOn:  r.DependsOn,
		})
	}

	result := discover.Discover(entries)

	for _, name := range sortedKeys(b.outputs) {
		value, err := serialize.Value(b.outputs[name].Value)
		if err != nil {
			return nil, nil, fmt.Errorf("serializing output %s: %w", name, err)
		}
		deps, _ := discover.References(value)
		for _, dep := range deps {
			if !declared[dep] {
				result.Errors = append(result.Errors,
					fmt.Errorf("output %s references %q: %w", name, dep, discover.ErrUndefinedReference))
			}
		}
	}

	if err := result.Err(); err != nil {
		return result, props, err
	}
	return result, props, nil
}

// Build validates the resource graph and constructs the template.
// Nothing is emitted when the graph has undefined references or cycles.
func (b *Builder) Build() (*workshop.Template, error) {
	result, props, err := b.Discover()
	if err != nil {
		return nil, err
	}

	order, err := b.topologicalSort(result.Resources)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]Resource, len(b.resources))
	for _, r := range b.resources {
		byName[r.Name] = r
	}

	t := &workshop.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.description,
		Resources:                make(map[string]workshop.ResourceDef, len(order)),
		ResourceOrder:            order,
	}

	for _, name := range order {
		r := byName[name]
		def := workshop.ResourceDef{
			Type:       r.Value.ResourceType(),
			Properties: props[name],
			DependsOn:  r.DependsOn,
		}
		if r.RemovalPolicy != "" {
			def.DeletionPolicy = string(r.RemovalPolicy)
			def.UpdateReplacePolicy = string(r.RemovalPolicy)
		}
		t.Resources[name] = def
	}

	if len(b.outputs) > 0 {
		t.Outputs = make(map[string]workshop.Output, len(b.outputs))
		for name, out := range b.outputs {
			value, err := serialize.Value(out.Value)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			out.Value = value
			t.Outputs[name] = out
		}
	}

	return t, nil
}

// topologicalSort orders resources so every dependency precedes its dependents.
func (b *Builder) topologicalSort(resources map[string]workshop.DiscoveredResource) ([]string, error) {
	position := make(map[string]int, len(b.resources))
	for i, r := range b.resources {
		position[r.Name] = i
	}

	dependents := make(map[string][]string, len(resources))
	inDegree := make(map[string]int, len(resources))
	for name := range resources {
		inDegree[name] += 0
	}
	for name, res := range resources {
		for _, dep := range res.Dependencies {
			if _, ok := resources[dep]; !ok {
				continue
			}
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	byPosition := func(queue []string) {
		sort.Slice(queue, func(i, j int) bool { return position[queue[i]] < position[queue[j]] })
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	byPosition(queue)

	order := make([]string, 0, len(resources))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, next := range dependents[node] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
		byPosition(queue)
	}

	if len(order) != len(resources) {
		return nil, detectCycle(resources, b.names())
	}
	return order, nil
}

func (b *Builder) names() []string {
	names := make([]string, len(b.resources))
	for i, r := range b.resources {
		names[i] = r.Name
	}
	return names
}

// detectCycle finds one dependency loop and reports it as A → B → A.
func detectCycle(resources map[string]workshop.DiscoveredResource, names []string) error {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(resources))
	var stack []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		state[name] = onPath
		stack = append(stack, name)

		for _, dep := range resources[name].Dependencies {
			if _, ok := resources[dep]; !ok {
				continue
			}
			switch state[dep] {
			case onPath:
				for i, n := range stack {
					if n == dep {
						cycle = append(append([]string{}, stack[i:]...), dep)
						break
					}
				}
				return true
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done
		return false
	}

	for _, name := range names {
		if state[name] == unvisited && visit(name) {
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " → "))
		}
	}
	return ErrCycle
}

// ToJSON serializes a template to indented JSON, resources in dependency order.
func ToJSON(t *workshop.Template) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	if err := writeJSONField(&buf, "AWSTemplateFormatVersion", t.AWSTemplateFormatVersion, true); err != nil {
		return nil, err
	}
	if t.Description != "" {
		if err := writeJSONField(&buf, "Description", t.Description, false); err != nil {
			return nil, err
		}
	}

	buf.WriteString(`,"Resources":{`)
	for i, name := range resourceOrder(t) {
		if err := writeJSONField(&buf, name, t.Resources[name], i == 0); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
	}
	buf.WriteByte('}')

	if len(t.Outputs) > 0 {
		if err := writeJSONField(&buf, "Outputs", t.Outputs, false); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeJSONField(buf *bytes.Buffer, key string, value any, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// ToYAML serializes a template to YAML, resources in dependency order.
func ToYAML(t *workshop.Template) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}

	if err := addYAMLField(doc, "AWSTemplateFormatVersion", t.AWSTemplateFormatVersion); err != nil {
		return nil, err
	}
	if t.Description != "" {
		if err := addYAMLField(doc, "Description", t.Description); err != nil {
			return nil, err
		}
	}

	resources := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range resourceOrder(t) {
		if err := addYAMLField(resources, name, t.Resources[name]); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
	}
	doc.Content = append(doc.Content, scalar("Resources"), resources)

	if len(t.Outputs) > 0 {
		if err := addYAMLField(doc, "Outputs", t.Outputs); err != nil {
			return nil, err
		}
	}

	return yaml.Marshal(doc)
}

func addYAMLField(m *yaml.Node, key string, value any) error {
	var v yaml.Node
	if err := v.Encode(value); err != nil {
		return err
	}
	m.Content = append(m.Content, scalar(key), &v)
	return nil
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// resourceOrder returns the emitted order, or sorted names for parsed templates.
func resourceOrder(t *workshop.Template) []string {
	if len(t.ResourceOrder) == len(t.Resources) {
		return t.ResourceOrder
	}
	return sortedKeys(t.Resources)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
