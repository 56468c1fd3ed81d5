// Package routes holds the API route table and the exact-match dispatcher
// built from it.
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoRoute is returned by Match when no route has the requested method and path.
var ErrNoRoute = errors.New("no route")

// RouteEntry binds one (method, path) pair to a handler.
type RouteEntry struct {
	Method string `json:"method" yaml:"method"`
	Path   string `json:"path" yaml:"path"`
	// Handler is the logical name of the function serving the route.
	Handler string `json:"handler" yaml:"handler"`
	// Validator names the request schema gating the route; empty means pass-through.
	Validator string `json:"validator,omitempty" yaml:"validator,omitempty"`
}

// Validated reports whether the route carries a request validator.
func (r RouteEntry) Validated() bool {
	return r.Validator != ""
}

func (r RouteEntry) String() string {
	return r.Method + " " + r.Path
}

// Table is an ordered list of routes.
type Table []RouteEntry

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodHead:   true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Validate checks the table against the declared handlers and schema names.
// All problems are reported together.
func (t Table) Validate(handlers, schemas []string) error {
	knownHandler := toSet(handlers)
	knownSchema := toSet(schemas)
	seen := make(map[string]bool, len(t))

	var errs []error
	for _, r := range t {
		if !allowedMethods[r.Method] {
			errs = append(errs, fmt.Errorf("%s: unsupported method %q", r, r.Method))
		}
		if err := checkPath(r.Path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r, err))
		}
		if seen[r.String()] {
			errs = append(errs, fmt.Errorf("%s: duplicate route", r))
		}
		seen[r.String()] = true

		if !knownHandler[r.Handler] {
			errs = append(errs, fmt.Errorf("%s: undeclared handler %q", r, r.Handler))
		}
		if r.Validated() {
			if r.Method == http.MethodGet {
				errs = append(errs, fmt.Errorf("%s: GET routes take no body and cannot be validated", r))
			}
			if !knownSchema[r.Validator] {
				errs = append(errs, fmt.Errorf("%s: unknown schema %q", r, r.Validator))
			}
		}
	}
	return errors.Join(errs...)
}

// Paths returns the distinct paths of the table in declaration order.
func (t Table) Paths() []string {
	var paths []string
	seen := make(map[string]bool)
	for _, r := range t {
		if !seen[r.Path] {
			seen[r.Path] = true
			paths = append(paths, r.Path)
		}
	}
	return paths
}

// Handlers returns the distinct handler names of the table in declaration order.
func (t Table) Handlers() []string {
	var names []string
	seen := make(map[string]bool)
	for _, r := range t {
		if !seen[r.Handler] {
			seen[r.Handler] = true
			names = append(names, r.Handler)
		}
	}
	return names
}

func checkPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path %q is not absolute", path)
	}
	if path == "/" {
		return nil
	}
	for _, seg := range strings.Split(path[1:], "/") {
		if seg == "" {
			return fmt.Errorf("path %q has an empty segment", path)
		}
		if strings.ContainsAny(seg, "{}*+") {
			return fmt.Errorf("path %q is not literal", path)
		}
	}
	return nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// Dispatcher resolves requests to routes by exact (method, path) match.
// It is immutable after construction and safe for concurrent use.
type Dispatcher struct {
	routes map[string]RouteEntry
	paths  map[string]bool
}

// NewDispatcher indexes a table. The table should already be validated;
// a duplicate route is still an error here.
func NewDispatcher(t Table) (*Dispatcher, error) {
	d := &Dispatcher{
		routes: make(map[string]RouteEntry, len(t)),
		paths:  make(map[string]bool, len(t)),
	}
	for _, r := range t {
		key := r.String()
		if _, dup := d.routes[key]; dup {
			return nil, fmt.Errorf("%s: duplicate route", key)
		}
		d.routes[key] = r
		d.paths[r.Path] = true
	}
	return d, nil
}

// Match returns the route for method and path, or ErrNoRoute.
// Paths are compared literally: no trailing-slash folding, no parameters.
func (d *Dispatcher) Match(method, path string) (RouteEntry, error) {
	r, ok := d.routes[method+" "+path]
	if !ok {
		return RouteEntry{}, fmt.Errorf("%s %s: %w", method, path, ErrNoRoute)
	}
	return r, nil
}

// HasPath reports whether any route is declared on path.
func (d *Dispatcher) HasPath(path string) bool {
	return d.paths[path]
}
