package stack

import (
	"net/http"
	"regexp"
	"strings"

	workshop "github.com/dineshpithiya/cdk-workshop"
	"github.com/dineshpithiya/cdk-workshop/internal/routes"
	. "github.com/dineshpithiya/cdk-workshop/intrinsics"
	"github.com/dineshpithiya/cdk-workshop/resources/apigateway"
	"github.com/dineshpithiya/cdk-workshop/resources/lambda"
)

// Logical IDs of the REST API.
const (
	HelloHandler     workshop.LogicalID = "HelloHandler"
	Endpoint         workshop.LogicalID = "Endpoint"
	ModelValidator   workshop.LogicalID = "modelvalidator"
	BodyValidator    workshop.LogicalID = "bodyvalidator"
	EndpointDeploy   workshop.LogicalID = "EndpointDeployment"
	EndpointStage    workshop.LogicalID = "EndpointDeploymentStage"
	EndpointRootCORS workshop.LogicalID = "EndpointOPTIONS"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

// resourceID names the API resource of a path: /getUser → EndpointgetUser.
func resourceID(path string) workshop.LogicalID {
	return Endpoint + workshop.LogicalID(nonAlnum.ReplaceAllString(path, ""))
}

// methodID names a method: GET /getUser → EndpointgetUserGET.
func methodID(method, path string) workshop.LogicalID {
	return resourceID(path) + workshop.LogicalID(method)
}

// modelID names the model of a schema. The first schema keeps the short ID.
func modelID(i int, name string) workshop.LogicalID {
	if i == 0 {
		return ModelValidator
	}
	return ModelValidator + workshop.LogicalID(nonAlnum.ReplaceAllString(name, ""))
}

func (b *workshopBuilder) addAPI() {
	def := b.props.API

	b.function(HelloHandler, &lambda.Function{
		FunctionName:  "helloHandler",
		Description:   "Serves the " + def.Name() + " API",
		Runtime:       lambda.RuntimeProvidedAL23,
		Handler:       Bootstrap,
		Architectures: []string{lambda.ArchitectureARM64},
		Code:          b.code(AssetHelloHandler),
	})

	b.add(Endpoint, &apigateway.RestApi{
		Name:        def.Name(),
		Description: def.Description(),
	})

	root := Endpoint.Attr(apigateway.AttrRootResourceId)
	cors := def.CORS()
	b.add(EndpointRootCORS, corsMethod(root, cors))

	// Path resources, parents before children.
	resources := map[string]any{"/": root}
	for _, path := range def.Routes().Paths() {
		b.resourceFor(path, resources, cors)
	}

	validatorIDs := make(map[string]workshop.LogicalID)
	for i, s := range def.Schemas() {
		id := modelID(i, s.Name)
		b.add(id, &apigateway.Model{
			RestApiId:   Endpoint.Ref(),
			ContentType: s.ContentType,
			Description: s.Description,
			Name:        s.Name,
			Schema:      s.JSONSchema(),
		})
		validatorIDs[s.Name] = id
	}

	hasValidated := false
	for _, r := range def.Routes() {
		if r.Validated() {
			hasValidated = true
		}
	}
	if hasValidated {
		b.add(BodyValidator, &apigateway.RequestValidator{
			RestApiId:           Endpoint.Ref(),
			Name:                def.RequestValidatorName(),
			ValidateRequestBody: true,
		})
	}

	methods := append([]workshop.LogicalID{EndpointRootCORS}, b.preflight...)

	for _, r := range def.Routes() {
		id := methodID(r.Method, r.Path)
		handler := workshop.LogicalID(r.Handler)

		method := &apigateway.Method{
			HttpMethod:        r.Method,
			ResourceId:        resources[r.Path],
			RestApiId:         Endpoint.Ref(),
			AuthorizationType: apigateway.AuthorizationNone,
			Integration: &apigateway.Method_Integration{
				Type_:                 apigateway.IntegrationProxy,
				IntegrationHttpMethod: http.MethodPost,
				Uri: Concat(
					"arn:", AWS_PARTITION, ":apigateway:", AWS_REGION,
					":lambda:path/2015-03-31/functions/", handler.Attr(lambda.AttrArn), "/invocations",
				),
			},
		}
		if r.Validated() {
			model := validatorIDs[r.Validator]
			schema, _ := def.Schema(r.Validator)
			method.RequestValidatorId = BodyValidator.Ref()
			method.RequestModels = map[string]any{schema.ContentType: model.Ref()}
		}
		b.add(id, method)
		methods = append(methods, id)

		b.add(id+"Permission", &lambda.Permission{
			Action:       "lambda:InvokeFunction",
			FunctionName: handler.Attr(lambda.AttrArn),
			Principal:    "apigateway.amazonaws.com",
			SourceArn: Concat(
				"arn:", AWS_PARTITION, ":execute-api:", AWS_REGION, ":", AWS_ACCOUNT_ID, ":",
				Endpoint.Ref(), "/", EndpointStage.Ref(), "/", r.Method, r.Path,
			),
		})
	}

	b.add(EndpointDeploy, &apigateway.Deployment{
		RestApiId:   Endpoint.Ref(),
		Description: "Automatically created by the RestApi construct",
	}, DependsOn(methods...))

	b.add(EndpointStage, &apigateway.Stage{
		RestApiId:    Endpoint.Ref(),
		DeploymentId: EndpointDeploy.Ref(),
		StageName:    def.StageName(),
	})

	b.Output("Endpoint", workshop.Output{
		Description: "URL of the " + def.Name() + " API",
		Value: Concat(
			"https://", Endpoint.Ref(), ".execute-api.", AWS_REGION, ".", AWS_URL_SUFFIX,
			"/", EndpointStage.Ref(), "/",
		),
	})
}

// resourceFor adds the API resource of path and any missing parents, each
// with its CORS preflight method, and returns its ID reference.
func (b *workshopBuilder) resourceFor(path string, resources map[string]any, cors routes.CORSOptions) any {
	if ref, ok := resources[path]; ok {
		return ref
	}

	cut := strings.LastIndex(path, "/")
	parentPath := path[:cut]
	if parentPath == "" {
		parentPath = "/"
	}
	parent := b.resourceFor(parentPath, resources, cors)

	id := resourceID(path)
	b.add(id, &apigateway.Resource{
		ParentId:  parent,
		PathPart:  path[cut+1:],
		RestApiId: Endpoint.Ref(),
	})
	b.add(id+"OPTIONS", corsMethod(id.Ref(), cors))
	b.preflight = append(b.preflight, id+"OPTIONS")

	resources[path] = id.Ref()
	return id.Ref()
}

// corsMethod builds the MOCK OPTIONS method answering CORS preflight requests.
func corsMethod(resource any, cors routes.CORSOptions) *apigateway.Method {
	return &apigateway.Method{
		HttpMethod:        http.MethodOptions,
		ResourceId:        resource,
		RestApiId:         Endpoint.Ref(),
		AuthorizationType: apigateway.AuthorizationNone,
		Integration: &apigateway.Method_Integration{
			Type_:            apigateway.IntegrationMock,
			RequestTemplates: map[string]string{"application/json": "{ statusCode: 200 }"},
			IntegrationResponses: []apigateway.Method_IntegrationResponse{{
				StatusCode:         "204",
				ResponseParameters: cors.IntegrationResponseParameters(),
			}},
		},
		MethodResponses: []apigateway.Method_MethodResponse{{
			StatusCode:         "204",
			ResponseParameters: cors.MethodResponseParameters(),
		}},
	}
}
