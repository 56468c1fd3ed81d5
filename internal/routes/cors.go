package routes

import "strings"

// CORSOptions configures the preflight response of every API resource.
type CORSOptions struct {
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
	AllowHeaders []string `json:"allow_headers" yaml:"allow_headers"`
	AllowMethods []string `json:"allow_methods" yaml:"allow_methods"`
}

// DefaultAllowHeaders are the request headers API Gateway clients send.
var DefaultAllowHeaders = []string{"Content-Type", "X-Amz-Date", "Authorization", "X-Api-Key"}

// AllOrigins allows requests from any origin.
var AllOrigins = []string{"*"}

// PreflightHeaders returns the Access-Control-* headers of a preflight response.
func (c CORSOptions) PreflightHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Headers": strings.Join(c.AllowHeaders, ","),
		"Access-Control-Allow-Origin":  strings.Join(c.AllowOrigins, ","),
		"Access-Control-Allow-Methods": strings.Join(c.AllowMethods, ","),
	}
}

// IntegrationResponseParameters renders the preflight headers in the quoted
// "method.response.header.X" form a MOCK integration response expects.
func (c CORSOptions) IntegrationResponseParameters() map[string]string {
	headers := c.PreflightHeaders()
	params := make(map[string]string, len(headers))
	for name, value := range headers {
		params["method.response.header."+name] = "'" + value + "'"
	}
	return params
}

// MethodResponseParameters declares the preflight headers on a method response.
func (c CORSOptions) MethodResponseParameters() map[string]bool {
	headers := c.PreflightHeaders()
	params := make(map[string]bool, len(headers))
	for name := range headers {
		params["method.response.header."+name] = true
	}
	return params
}
