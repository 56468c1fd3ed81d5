// Package stack assembles the workshop's CloudFormation resources.
//
// A Stack is an ordered set of resources keyed by logical ID plus the
// template outputs. Synthesize hands them to the template builder, which
// rejects undefined references and cycles before anything is emitted.
package stack

import (
	"errors"
	"fmt"

	workshop "github.com/dineshpithiya/cdk-workshop"
	"github.com/dineshpithiya/cdk-workshop/internal/template"
)

// ErrDuplicateResource is returned when a logical ID is added twice.
var ErrDuplicateResource = errors.New("duplicate resource")

// Entry is a resource registered on a stack.
type Entry struct {
	ID            workshop.LogicalID
	Resource      workshop.Resource
	DependsOn     []workshop.LogicalID
	RemovalPolicy workshop.RemovalPolicy
}

// Option customises an entry.
type Option func(*Entry)

// DependsOn adds explicit dependencies.
func DependsOn(ids ...workshop.LogicalID) Option {
	return func(e *Entry) {
		e.DependsOn = append(e.DependsOn, ids...)
	}
}

// WithRemovalPolicy sets the DeletionPolicy and UpdateReplacePolicy.
func WithRemovalPolicy(p workshop.RemovalPolicy) Option {
	return func(e *Entry) {
		e.RemovalPolicy = p
	}
}

// Stack holds the resources and outputs of one CloudFormation stack.
type Stack struct {
	name        string
	description string
	entries     []*Entry
	index       map[workshop.LogicalID]*Entry
	outputs     map[string]workshop.Output
	outputOrder []string
}

// New creates an empty stack.
func New(name, description string) *Stack {
	return &Stack{
		name:        name,
		description: description,
		index:       make(map[workshop.LogicalID]*Entry),
		outputs:     make(map[string]workshop.Output),
	}
}

// Name returns the stack name.
func (s *Stack) Name() string { return s.name }

// Add registers a resource under id.
func (s *Stack) Add(id workshop.LogicalID, r workshop.Resource, opts ...Option) error {
	if id == "" {
		return errors.New("empty logical ID")
	}
	if _, exists := s.index[id]; exists {
		return fmt.Errorf("%s: %w", id, ErrDuplicateResource)
	}
	e := &Entry{ID: id, Resource: r}
	for _, opt := range opts {
		opt(e)
	}
	s.entries = append(s.entries, e)
	s.index[id] = e
	return nil
}

// Output registers a template output. A later output with the same name
// replaces the earlier one.
func (s *Stack) Output(name string, out workshop.Output) {
	if _, exists := s.outputs[name]; !exists {
		s.outputOrder = append(s.outputOrder, name)
	}
	s.outputs[name] = out
}

// Entries returns the registered resources in registration order.
func (s *Stack) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e
	}
	return out
}

// Lookup returns the resource registered under id.
func (s *Stack) Lookup(id workshop.LogicalID) (workshop.Resource, bool) {
	e, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return e.Resource, true
}

// OutputNames returns output names in registration order.
func (s *Stack) OutputNames() []string {
	return append([]string(nil), s.outputOrder...)
}

func (s *Stack) builder() *template.Builder {
	b := template.NewBuilder(s.description)
	for _, e := range s.entries {
		deps := make([]string, len(e.DependsOn))
		for i, d := range e.DependsOn {
			deps[i] = string(d)
		}
		b.AddResource(template.Resource{
			Name:          string(e.ID),
			Value:         e.Resource,
			DependsOn:     deps,
			RemovalPolicy: e.RemovalPolicy,
		})
	}
	for _, name := range s.outputOrder {
		b.AddOutput(name, s.outputs[name])
	}
	return b
}

// Synthesize builds the CloudFormation template.
func (s *Stack) Synthesize() (*workshop.Template, error) {
	t, err := s.builder().Build()
	if err != nil {
		return nil, fmt.Errorf("synthesize %s: %w", s.name, err)
	}
	return t, nil
}

// Graph returns the discovered dependency graph of the stack.
func (s *Stack) Graph() (map[string]workshop.DiscoveredResource, error) {
	result, _, err := s.builder().Discover()
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", s.name, err)
	}
	return result.Resources, nil
}
