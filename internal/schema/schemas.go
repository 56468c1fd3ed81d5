package schema

// enumServices maps CloudFormation service names to the service names of
// the enums package.
var enumServices = map[string]string{
	"lambda":     "lambda",
	"s3":         "s3",
	"apigateway": "apigateway",
}

var httpMethods = []string{"ANY", "GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

// resourceSchemas covers the resource types the workshop stack emits.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::S3::Bucket": {
		Type: "AWS::S3::Bucket",
		Properties: map[string]PropertySchema{
			"BucketName":                     {Type: "String"},
			"PublicAccessBlockConfiguration": {Type: "Map"},
			"WebsiteConfiguration":           {Type: "Map"},
			"Tags":                           {Type: "List"},
		},
	},
	"AWS::S3::BucketPolicy": {
		Type:     "AWS::S3::BucketPolicy",
		Required: []string{"Bucket", "PolicyDocument"},
		Properties: map[string]PropertySchema{
			"Bucket":         {Type: "String"},
			"PolicyDocument": {Type: "Json"},
		},
	},
	"AWS::IAM::Role": {
		Type:     "AWS::IAM::Role",
		Required: []string{"AssumeRolePolicyDocument"},
		Properties: map[string]PropertySchema{
			"AssumeRolePolicyDocument": {Type: "Json"},
			"ManagedPolicyArns":        {Type: "List"},
			"RoleName":                 {Type: "String"},
			"Description":              {Type: "String"},
		},
	},
	"AWS::Lambda::Function": {
		Type:     "AWS::Lambda::Function",
		Required: []string{"Code", "Role"},
		Properties: map[string]PropertySchema{
			"FunctionName":  {Type: "String"},
			"Description":   {Type: "String"},
			"Runtime":       {Type: "String"},
			"Handler":       {Type: "String"},
			"Code":          {Type: "Map"},
			"Role":          {Type: "String"},
			"Environment":   {Type: "Map"},
			"Timeout":       {Type: "Integer"},
			"MemorySize":    {Type: "Integer"},
			"Architectures": {Type: "List"},
			"Layers":        {Type: "List"},
		},
	},
	"AWS::Lambda::LayerVersion": {
		Type:     "AWS::Lambda::LayerVersion",
		Required: []string{"Content"},
		Properties: map[string]PropertySchema{
			"LayerName":          {Type: "String"},
			"Description":        {Type: "String"},
			"Content":            {Type: "Map"},
			"CompatibleRuntimes": {Type: "List"},
		},
	},
	"AWS::Lambda::Permission": {
		Type:     "AWS::Lambda::Permission",
		Required: []string{"Action", "FunctionName", "Principal"},
		Properties: map[string]PropertySchema{
			"Action":       {Type: "String"},
			"FunctionName": {Type: "String"},
			"Principal":    {Type: "String"},
			"SourceArn":    {Type: "String"},
		},
	},
	"AWS::ApiGateway::RestApi": {
		Type: "AWS::ApiGateway::RestApi",
		Properties: map[string]PropertySchema{
			"Name":                  {Type: "String"},
			"Description":           {Type: "String"},
			"EndpointConfiguration": {Type: "Map"},
		},
	},
	"AWS::ApiGateway::Resource": {
		Type:     "AWS::ApiGateway::Resource",
		Required: []string{"ParentId", "PathPart", "RestApiId"},
		Properties: map[string]PropertySchema{
			"ParentId":  {Type: "String"},
			"PathPart":  {Type: "String"},
			"RestApiId": {Type: "String"},
		},
	},
	"AWS::ApiGateway::Method": {
		Type:     "AWS::ApiGateway::Method",
		Required: []string{"HttpMethod", "ResourceId", "RestApiId"},
		Properties: map[string]PropertySchema{
			"HttpMethod":         {Type: "String", AllowedValues: httpMethods},
			"ResourceId":         {Type: "String"},
			"RestApiId":          {Type: "String"},
			"AuthorizationType":  {Type: "String", AllowedValues: []string{"NONE", "AWS_IAM", "CUSTOM", "COGNITO_USER_POOLS"}},
			"Integration":        {Type: "Map"},
			"MethodResponses":    {Type: "List"},
			"RequestModels":      {Type: "Map"},
			"RequestValidatorId": {Type: "String"},
		},
	},
	"AWS::ApiGateway::Model": {
		Type:     "AWS::ApiGateway::Model",
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"RestApiId":   {Type: "String"},
			"ContentType": {Type: "String"},
			"Description": {Type: "String"},
			"Name":        {Type: "String"},
			"Schema":      {Type: "Json"},
		},
	},
	"AWS::ApiGateway::RequestValidator": {
		Type:     "AWS::ApiGateway::RequestValidator",
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"RestApiId":                 {Type: "String"},
			"Name":                      {Type: "String"},
			"ValidateRequestBody":       {Type: "Boolean"},
			"ValidateRequestParameters": {Type: "Boolean"},
		},
	},
	"AWS::ApiGateway::Deployment": {
		Type:     "AWS::ApiGateway::Deployment",
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"RestApiId":   {Type: "String"},
			"Description": {Type: "String"},
		},
	},
	"AWS::ApiGateway::Stage": {
		Type:     "AWS::ApiGateway::Stage",
		Required: []string{"RestApiId"},
		Properties: map[string]PropertySchema{
			"RestApiId":    {Type: "String"},
			"DeploymentId": {Type: "String"},
			"StageName":    {Type: "String"},
		},
	},
	"AWS::CloudFront::CloudFrontOriginAccessIdentity": {
		Type:     "AWS::CloudFront::CloudFrontOriginAccessIdentity",
		Required: []string{"CloudFrontOriginAccessIdentityConfig"},
		Properties: map[string]PropertySchema{
			"CloudFrontOriginAccessIdentityConfig": {Type: "Map"},
		},
	},
	"AWS::CloudFront::Distribution": {
		Type:     "AWS::CloudFront::Distribution",
		Required: []string{"DistributionConfig"},
		Properties: map[string]PropertySchema{
			"DistributionConfig": {Type: "Map"},
			"Tags":               {Type: "List"},
		},
	},
}
