// Package discover finds the references between the resources of a stack.
//
// It walks serialized resource properties looking for the intrinsic forms
// that point at another logical ID:
//
//	{"Ref": "SiteBucket"}
//	{"Fn::GetAtt": ["SiteBucket", "RegionalDomainName"]}
//	{"Fn::Sub": "arn:${AWS::Partition}:s3:::${SiteBucket}/*"}
//
// Pseudo parameters (AWS::Region, AWS::AccountId, ...) are not resources and
// are never reported as dependencies.
package discover

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	workshop "github.com/dineshpithiya/cdk-workshop"
	"github.com/dineshpithiya/cdk-workshop/intrinsics"
)

// ErrUndefinedReference is returned when a resource points at a logical ID
// that is not declared in the stack.
var ErrUndefinedReference = errors.New("undefined reference")

// Entry is one declared resource handed to discovery.
type Entry struct {
	Name       string
	Type       string
	Properties map[string]any
	// DependsOn lists explicit dependencies declared alongside the resource.
	DependsOn []string
}

// Result contains all discovered resources and any errors.
type Result struct {
	// Resources maps logical name to discovered resource
	Resources map[string]workshop.DiscoveredResource
	// Errors lists every undefined reference, one per (resource, target) pair
	Errors []error
}

// Err joins the discovery errors, or returns nil when there are none.
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}

// subVar matches ${Name} and ${Name.Attr}; ${!Literal} escapes are excluded.
var subVar = regexp.MustCompile(`\$\{([^!}][^}]*)\}`)

// Discover builds the dependency graph for a set of entries. Undefined
// references are collected in Result.Errors in deterministic order.
func Discover(entries []Entry) *Result {
	result := &Result{Resources: make(map[string]workshop.DiscoveredResource, len(entries))}

	declared := make(map[string]bool, len(entries))
	for _, e := range entries {
		declared[e.Name] = true
	}

	for _, e := range entries {
		deps, attrRefs := References(e.Properties)
		deps = appendUnique(deps, e.DependsOn...)

		result.Resources[e.Name] = workshop.DiscoveredResource{
			Name:          e.Name,
			Type:          e.Type,
			Dependencies:  deps,
			AttrRefUsages: attrRefs,
		}
	}

	names := make([]string, 0, len(result.Resources))
	for name := range result.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, dep := range result.Resources[name].Dependencies {
			if declared[dep] {
				continue
			}
			result.Errors = append(result.Errors,
				fmt.Errorf("%s references %q: %w", name, dep, ErrUndefinedReference))
		}
	}

	return result
}

// References returns the logical IDs referenced anywhere inside a serialized
// value, in first-seen order, plus every attribute reference with its path.
func References(v any) ([]string, []workshop.AttrRefUsage) {
	w := &walker{seen: make(map[string]bool)}
	w.walk(v, "")
	return w.deps, w.attrRefs
}

type walker struct {
	deps     []string
	attrRefs []workshop.AttrRefUsage
	seen     map[string]bool
}

func (w *walker) add(name string) {
	if name == "" || intrinsics.IsPseudoParameter(name) || w.seen[name] {
		return
	}
	w.seen[name] = true
	w.deps = append(w.deps, name)
}

func (w *walker) addAttr(name, attr, path string) {
	if intrinsics.IsPseudoParameter(name) {
		return
	}
	w.add(name)
	w.attrRefs = append(w.attrRefs, workshop.AttrRefUsage{
		ResourceName: name,
		Attribute:    attr,
		FieldPath:    path,
	})
}

func (w *walker) walk(v any, path string) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 1 {
			if w.intrinsic(val, path) {
				return
			}
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			w.walk(val[k], join(path, k))
		}

	case []any:
		for i, elem := range val {
			w.walk(elem, fmt.Sprintf("%s[%d]", path, i))
		}
	}
}

// intrinsic handles single-key intrinsic maps and reports whether it did.
func (w *walker) intrinsic(m map[string]any, path string) bool {
	if ref, ok := m["Ref"].(string); ok {
		w.add(ref)
		return true
	}

	if getAtt, ok := m["Fn::GetAtt"]; ok {
		switch ga := getAtt.(type) {
		case []any:
			if len(ga) == 2 {
				name, _ := ga[0].(string)
				attr, _ := ga[1].(string)
				w.addAttr(name, attr, path)
			}
		case string:
			name, attr, _ := strings.Cut(ga, ".")
			w.addAttr(name, attr, path)
		}
		return true
	}

	if sub, ok := m["Fn::Sub"]; ok {
		switch s := sub.(type) {
		case string:
			w.subString(s, nil, path)
		case []any:
			if len(s) == 2 {
				str, _ := s[0].(string)
				vars, _ := s[1].(map[string]any)
				w.subString(str, vars, path)
				w.walk(s[1], join(path, "Fn::Sub"))
			}
		}
		return true
	}

	return false
}

func (w *walker) subString(s string, vars map[string]any, path string) {
	for _, match := range subVar.FindAllStringSubmatch(s, -1) {
		ref := match[1]
		if _, local := vars[ref]; local {
			continue
		}
		if name, attr, ok := strings.Cut(ref, "."); ok {
			w.addAttr(name, attr, path)
			continue
		}
		w.add(ref)
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
