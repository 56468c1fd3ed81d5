// Package apigateway provides the AWS::ApiGateway resource types used by the
// workshop stack's REST API.
package apigateway

// AttrRootResourceId is the RestApi attribute holding the "/" resource ID.
const AttrRootResourceId = "RootResourceId"

// Authorization and integration types.
const (
	AuthorizationNone = "NONE"
	IntegrationProxy  = "AWS_PROXY"
	IntegrationMock   = "MOCK"
)

// RestApi is AWS::ApiGateway::RestApi.
type RestApi struct {
	Name                  any                            `json:"Name"`
	Description           string                         `json:"Description,omitempty"`
	EndpointConfiguration *RestApi_EndpointConfiguration `json:"EndpointConfiguration,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (RestApi) ResourceType() string { return "AWS::ApiGateway::RestApi" }

// RestApi_EndpointConfiguration selects the endpoint type (EDGE, REGIONAL, PRIVATE).
type RestApi_EndpointConfiguration struct {
	Types []string `json:"Types,omitempty"`
}

// Resource is AWS::ApiGateway::Resource, one path segment of the API.
type Resource struct {
	ParentId  any    `json:"ParentId"`
	PathPart  string `json:"PathPart"`
	RestApiId any    `json:"RestApiId"`
}

// ResourceType returns the CloudFormation type.
func (Resource) ResourceType() string { return "AWS::ApiGateway::Resource" }

// Method is AWS::ApiGateway::Method.
type Method struct {
	HttpMethod         string                  `json:"HttpMethod"`
	ResourceId         any                     `json:"ResourceId"`
	RestApiId          any                     `json:"RestApiId"`
	AuthorizationType  string                  `json:"AuthorizationType,omitempty"`
	Integration        *Method_Integration     `json:"Integration,omitempty"`
	MethodResponses    []Method_MethodResponse `json:"MethodResponses,omitempty"`
	RequestModels      map[string]any          `json:"RequestModels,omitempty"`
	RequestValidatorId any                     `json:"RequestValidatorId,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Method) ResourceType() string { return "AWS::ApiGateway::Method" }

// Method_Integration is the backend a method calls.
type Method_Integration struct {
	Type_                 string                       `json:"Type"`
	IntegrationHttpMethod string                       `json:"IntegrationHttpMethod,omitempty"`
	Uri                   any                          `json:"Uri,omitempty"`
	RequestTemplates      map[string]string            `json:"RequestTemplates,omitempty"`
	IntegrationResponses  []Method_IntegrationResponse `json:"IntegrationResponses,omitempty"`
}

// Method_IntegrationResponse maps a backend response onto a method response.
type Method_IntegrationResponse struct {
	StatusCode         string            `json:"StatusCode"`
	ResponseParameters map[string]string `json:"ResponseParameters,omitempty"`
}

// Method_MethodResponse declares a response the method can return.
type Method_MethodResponse struct {
	StatusCode         string          `json:"StatusCode"`
	ResponseParameters map[string]bool `json:"ResponseParameters,omitempty"`
}

// Model is AWS::ApiGateway::Model. Its Ref is the model name.
type Model struct {
	RestApiId   any    `json:"RestApiId"`
	ContentType string `json:"ContentType,omitempty"`
	Description string `json:"Description,omitempty"`
	Name        string `json:"Name,omitempty"`
	Schema      any    `json:"Schema,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Model) ResourceType() string { return "AWS::ApiGateway::Model" }

// RequestValidator is AWS::ApiGateway::RequestValidator.
type RequestValidator struct {
	RestApiId                 any    `json:"RestApiId"`
	Name                      string `json:"Name,omitempty"`
	ValidateRequestBody       bool   `json:"ValidateRequestBody,omitempty"`
	ValidateRequestParameters bool   `json:"ValidateRequestParameters,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (RequestValidator) ResourceType() string { return "AWS::ApiGateway::RequestValidator" }

// Deployment is AWS::ApiGateway::Deployment.
type Deployment struct {
	RestApiId   any    `json:"RestApiId"`
	Description string `json:"Description,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Deployment) ResourceType() string { return "AWS::ApiGateway::Deployment" }

// Stage is AWS::ApiGateway::Stage.
type Stage struct {
	RestApiId    any    `json:"RestApiId"`
	DeploymentId any    `json:"DeploymentId"`
	StageName    string `json:"StageName"`
}

// ResourceType returns the CloudFormation type.
func (Stage) ResourceType() string { return "AWS::ApiGateway::Stage" }
