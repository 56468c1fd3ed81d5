// Package api defines the workshop REST API as one immutable document: the
// route table, the request schemas, CORS preflight options and the stage.
//
// The same Definition is rendered into API Gateway resources by the stack,
// served by the local emulator and used by the Lambda handler to dispatch.
package api

import (
	"errors"
	"fmt"

	"github.com/dineshpithiya/cdk-workshop/internal/routes"
	"github.com/dineshpithiya/cdk-workshop/internal/validator"
)

// Config is the input to New.
type Config struct {
	Name        string
	Description string
	StageName   string
	// RequestValidatorName names the API Gateway body validator of validated routes.
	RequestValidatorName string
	Routes               routes.Table
	Schemas              []*validator.ValidationSchema
	CORS                 routes.CORSOptions
	// Handlers lists the declared handler names routes may reference.
	Handlers []string
}

// Definition is a validated, read-only API document. It is safe for
// concurrent use.
type Definition struct {
	cfg        Config
	schemas    map[string]*validator.ValidationSchema
	dispatcher *routes.Dispatcher
}

// New validates cfg and builds a Definition. Schemas are compiled, the
// route table is checked against the declared handlers and schemas, and
// the dispatcher is indexed.
func New(cfg Config) (*Definition, error) {
	if cfg.Name == "" {
		return nil, errors.New("api: name is required")
	}
	if cfg.StageName == "" {
		return nil, errors.New("api: stage name is required")
	}

	schemas := make(map[string]*validator.ValidationSchema, len(cfg.Schemas))
	names := make([]string, 0, len(cfg.Schemas))
	for _, s := range cfg.Schemas {
		if _, dup := schemas[s.Name]; dup {
			return nil, fmt.Errorf("api: schema %q declared twice", s.Name)
		}
		if err := s.Compile(); err != nil {
			return nil, fmt.Errorf("api: %w", err)
		}
		schemas[s.Name] = s
		names = append(names, s.Name)
	}

	if err := cfg.Routes.Validate(cfg.Handlers, names); err != nil {
		return nil, fmt.Errorf("api: invalid route table: %w", err)
	}

	dispatcher, err := routes.NewDispatcher(cfg.Routes)
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	cfg.Routes = append(routes.Table(nil), cfg.Routes...)
	cfg.Schemas = append([]*validator.ValidationSchema(nil), cfg.Schemas...)
	cfg.Handlers = append([]string(nil), cfg.Handlers...)

	return &Definition{cfg: cfg, schemas: schemas, dispatcher: dispatcher}, nil
}

func (d *Definition) Name() string                 { return d.cfg.Name }
func (d *Definition) Description() string          { return d.cfg.Description }
func (d *Definition) StageName() string            { return d.cfg.StageName }
func (d *Definition) RequestValidatorName() string { return d.cfg.RequestValidatorName }
func (d *Definition) CORS() routes.CORSOptions     { return d.cfg.CORS }

// Routes returns a copy of the route table.
func (d *Definition) Routes() routes.Table {
	return append(routes.Table(nil), d.cfg.Routes...)
}

// Schemas returns the schemas in declaration order. They must not be modified.
func (d *Definition) Schemas() []*validator.ValidationSchema {
	return append([]*validator.ValidationSchema(nil), d.cfg.Schemas...)
}

// Schema looks up a schema by name.
func (d *Definition) Schema(name string) (*validator.ValidationSchema, bool) {
	s, ok := d.schemas[name]
	return s, ok
}

// Handlers returns the declared handler names.
func (d *Definition) Handlers() []string {
	return append([]string(nil), d.cfg.Handlers...)
}

// Match resolves a request to its route. See routes.Dispatcher.Match.
func (d *Definition) Match(method, path string) (routes.RouteEntry, error) {
	return d.dispatcher.Match(method, path)
}

// HasPath reports whether any route is declared on path.
func (d *Definition) HasPath(path string) bool {
	return d.dispatcher.HasPath(path)
}

// Check resolves a request and, for validated routes, checks its body.
// Pass-through routes always return a valid result without reading body.
func (d *Definition) Check(method, path string, body []byte) (routes.RouteEntry, validator.Result, error) {
	route, err := d.Match(method, path)
	if err != nil {
		return routes.RouteEntry{}, validator.Result{}, err
	}
	if !route.Validated() {
		return route, validator.Result{Valid: true}, nil
	}
	return route, d.schemas[route.Validator].Validate(body), nil
}
