package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dineshpithiya/cdk-workshop/internal/routes"
	"github.com/dineshpithiya/cdk-workshop/internal/validator"
)

func TestWorkshop(t *testing.T) {
	d := Workshop()

	assert.Equal(t, "getUser", d.Name())
	assert.Equal(t, "example api gateway", d.Description())
	assert.Equal(t, "dev", d.StageName())
	assert.Equal(t, "body-validator", d.RequestValidatorName())
	assert.Len(t, d.Routes(), 2)
	assert.Equal(t, []string{"HelloHandler"}, d.Handlers())

	schema, ok := d.Schema(UserModel)
	require.True(t, ok)
	assert.Equal(t, "pollRequest", schema.Title)

	cors := d.CORS()
	assert.Equal(t, []string{"Content-Type", "X-Amz-Date", "Authorization", "X-Api-Key"}, cors.AllowHeaders)
	assert.Equal(t, []string{"GET"}, cors.AllowMethods)
}

func TestDefinition_Check(t *testing.T) {
	d := Workshop()

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		valid   bool
		fields  []string
		noRoute bool
	}{
		{name: "get bypasses validation", method: "GET", path: "/getUser", body: "", valid: true},
		{name: "get ignores garbage body", method: "GET", path: "/getUser", body: "not json", valid: true},
		{name: "valid post", method: "POST", path: "/user", body: `{"username":"a1","phone":"5","email":"a@b"}`, valid: true},
		{name: "invalid post", method: "POST", path: "/user", body: `{"username":"1x","phone":"5","email":"a@b"}`, fields: []string{"username"}},
		{name: "post without body", method: "POST", path: "/user", body: "", fields: []string{""}},
		{name: "unknown route", method: "DELETE", path: "/user", noRoute: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, result, err := d.Check(tt.method, tt.path, []byte(tt.body))
			if tt.noRoute {
				assert.True(t, errors.Is(err, routes.ErrNoRoute))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, HelloHandler, route.Handler)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.Equal(t, tt.fields, result.Fields())
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "missing name",
			mutate: func(c *Config) { c.Name = "" },
			errMsg: "name is required",
		},
		{
			name:   "missing stage",
			mutate: func(c *Config) { c.StageName = "" },
			errMsg: "stage name is required",
		},
		{
			name:   "route references missing schema",
			mutate: func(c *Config) { c.Schemas = nil },
			errMsg: `unknown schema "getUsermodelcdk"`,
		},
		{
			name:   "route references undeclared handler",
			mutate: func(c *Config) { c.Handlers = []string{"Other"} },
			errMsg: `undeclared handler "HelloHandler"`,
		},
		{
			name: "schema breaks required subset",
			mutate: func(c *Config) {
				c.Schemas = []*validator.ValidationSchema{{Name: UserModel, Required: []string{"username"}}}
			},
			errMsg: "has no pattern",
		},
		{
			name:   "duplicate schema",
			mutate: func(c *Config) { c.Schemas = []*validator.ValidationSchema{UserSchema(), UserSchema()} },
			errMsg: "declared twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := WorkshopConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDefinition_RoutesIsACopy(t *testing.T) {
	d := Workshop()
	r := d.Routes()
	r[0].Path = "/changed"

	_, err := d.Match("GET", "/getUser")
	assert.NoError(t, err)
	assert.Equal(t, "/getUser", d.Routes()[0].Path)
}
