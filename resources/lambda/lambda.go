// Package lambda provides the AWS::Lambda resource types used by the workshop stack.
package lambda

// Runtimes used by the stack.
const (
	RuntimeNodeJS16     = "nodejs16.x"
	RuntimePython310    = "python3.10"
	RuntimeProvidedAL23 = "provided.al2023"

	ArchitectureARM64 = "arm64"
)

// AttrArn is the function ARN attribute.
const AttrArn = "Arn"

// Function is AWS::Lambda::Function.
type Function struct {
	FunctionName  any                   `json:"FunctionName,omitempty"`
	Description   string                `json:"Description,omitempty"`
	Runtime       string                `json:"Runtime"`
	Handler       string                `json:"Handler"`
	Code          Function_Code         `json:"Code"`
	Role          any                   `json:"Role"`
	Environment   *Function_Environment `json:"Environment,omitempty"`
	Timeout       int                   `json:"Timeout,omitempty"`
	MemorySize    int                   `json:"MemorySize,omitempty"`
	Architectures []string              `json:"Architectures,omitempty"`
	Layers        []any                 `json:"Layers,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Function) ResourceType() string { return "AWS::Lambda::Function" }

// Function_Code points at the deployment package.
type Function_Code struct {
	S3Bucket any    `json:"S3Bucket,omitempty"`
	S3Key    any    `json:"S3Key,omitempty"`
	ZipFile  string `json:"ZipFile,omitempty"`
}

// Function_Environment holds environment variables.
type Function_Environment struct {
	Variables map[string]string `json:"Variables,omitempty"`
}

// LayerVersion is AWS::Lambda::LayerVersion. Its Ref is the layer version ARN.
type LayerVersion struct {
	LayerName          any                  `json:"LayerName,omitempty"`
	Description        string               `json:"Description,omitempty"`
	Content            LayerVersion_Content `json:"Content"`
	CompatibleRuntimes []string             `json:"CompatibleRuntimes,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (LayerVersion) ResourceType() string { return "AWS::Lambda::LayerVersion" }

// LayerVersion_Content points at the layer archive.
type LayerVersion_Content struct {
	S3Bucket any `json:"S3Bucket"`
	S3Key    any `json:"S3Key"`
}

// Permission is AWS::Lambda::Permission.
type Permission struct {
	Action       string `json:"Action"`
	FunctionName any    `json:"FunctionName"`
	Principal    string `json:"Principal"`
	SourceArn    any    `json:"SourceArn,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Permission) ResourceType() string { return "AWS::Lambda::Permission" }
