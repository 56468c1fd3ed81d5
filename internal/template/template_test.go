package template

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	workshop "github.com/dineshpithiya/cdk-workshop"
	"github.com/dineshpithiya/cdk-workshop/intrinsics"
	"github.com/dineshpithiya/cdk-workshop/internal/discover"
	"github.com/dineshpithiya/cdk-workshop/resources/iam"
	"github.com/dineshpithiya/cdk-workshop/resources/lambda"
	"github.com/dineshpithiya/cdk-workshop/resources/s3"
)

func newFunctionBuilder() *Builder {
	b := NewBuilder("test stack")
	b.AddResource(Resource{
		Name: "HelloHandler",
		Value: &lambda.Function{
			FunctionName: "helloHandler",
			Runtime:      lambda.RuntimeProvidedAL23,
			Handler:      "bootstrap",
			Role:         workshop.AttrRef{Resource: "HelloHandlerServiceRole", Attribute: iam.AttrArn},
		},
	})
	b.AddResource(Resource{
		Name: "HelloHandlerServiceRole",
		Value: &iam.Role{
			AssumeRolePolicyDocument: iam.AssumeRoleFor("lambda.amazonaws.com"),
		},
	})
	return b
}

func TestBuilder_Build_SimpleResource(t *testing.T) {
	b := NewBuilder("")
	b.AddResource(Resource{
		Name:          "SiteBucket",
		Value:         &s3.Bucket{BucketName: "my-bucket"},
		RemovalPolicy: workshop.RemovalDestroy,
	})

	tmpl, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, tmpl.AWSTemplateFormatVersion)
	require.Len(t, tmpl.Resources, 1)

	bucket := tmpl.Resources["SiteBucket"]
	assert.Equal(t, "AWS::S3::Bucket", bucket.Type)
	assert.Equal(t, "my-bucket", bucket.Properties["BucketName"])
	assert.Equal(t, "Delete", bucket.DeletionPolicy)
	assert.Equal(t, "Delete", bucket.UpdateReplacePolicy)
}

func TestBuilder_Build_DependencyOrder(t *testing.T) {
	tmpl, err := newFunctionBuilder().Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"HelloHandlerServiceRole", "HelloHandler"}, tmpl.ResourceOrder)
	assert.Equal(t, "test stack", tmpl.Description)

	role := tmpl.Resources["HelloHandler"].Properties["Role"]
	assert.Equal(t, map[string]any{"Fn::GetAtt": []any{"HelloHandlerServiceRole", "Arn"}}, role)
}

func TestBuilder_Build_RegistrationOrderBreaksTies(t *testing.T) {
	b := NewBuilder("")
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		b.AddResource(Resource{Name: name, Value: &s3.Bucket{}})
	}

	tmpl, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, tmpl.ResourceOrder)
}

func TestBuilder_Build_ExplicitDependsOn(t *testing.T) {
	b := NewBuilder("")
	b.AddResource(Resource{Name: "Deployment", Value: &s3.Bucket{}, DependsOn: []string{"Method"}})
	b.AddResource(Resource{Name: "Method", Value: &s3.Bucket{}})

	tmpl, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"Method", "Deployment"}, tmpl.ResourceOrder)
	assert.Equal(t, []string{"Method"}, tmpl.Resources["Deployment"].DependsOn)
}

func TestBuilder_Build_UndefinedReference(t *testing.T) {
	b := NewBuilder("")
	b.AddResource(Resource{
		Name:  "SiteBucketPolicy",
		Value: &s3.BucketPolicy{Bucket: intrinsics.Ref{LogicalName: "MissingBucket"}},
	})

	tmpl, err := b.Build()
	assert.Nil(t, tmpl)
	require.Error(t, err)
	assert.True(t, errors.Is(err, discover.ErrUndefinedReference))
	assert.Contains(t, err.Error(), "MissingBucket")
}

func TestBuilder_Build_UndefinedReferenceInOutput(t *testing.T) {
	b := NewBuilder("")
	b.AddResource(Resource{Name: "SiteBucket", Value: &s3.Bucket{}})
	b.AddOutput("DistributionId", workshop.Output{Value: intrinsics.Ref{LogicalName: "SiteDistribution"}})

	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, discover.ErrUndefinedReference))
	assert.Contains(t, err.Error(), "output DistributionId")
}

func TestBuilder_Build_Cycle(t *testing.T) {
	b := NewBuilder("")
	b.AddResource(Resource{Name: "A", Value: &s3.BucketPolicy{Bucket: intrinsics.Ref{LogicalName: "B"}}})
	b.AddResource(Resource{Name: "B", Value: &s3.BucketPolicy{Bucket: intrinsics.Ref{LogicalName: "C"}}})
	b.AddResource(Resource{Name: "C", Value: &s3.BucketPolicy{Bucket: intrinsics.Ref{LogicalName: "A"}}})

	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycle))
	assert.Contains(t, err.Error(), "A → B → C → A")
}

func TestBuilder_Build_Outputs(t *testing.T) {
	b := NewBuilder("")
	b.AddResource(Resource{Name: "SiteBucket", Value: &s3.Bucket{}})
	b.AddOutput("Bucket", workshop.Output{Value: intrinsics.Ref{LogicalName: "SiteBucket"}})

	tmpl, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Ref": "SiteBucket"}, tmpl.Outputs["Bucket"].Value)
}

func TestToJSON_ResourceOrder(t *testing.T) {
	tmpl, err := newFunctionBuilder().Build()
	require.NoError(t, err)

	data, err := ToJSON(tmpl)
	require.NoError(t, err)

	out := string(data)
	assert.Less(t, strings.Index(out, `"HelloHandlerServiceRole"`), strings.Index(out, `"HelloHandler":`))
	assert.Contains(t, out, "\n  \"Resources\"")

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, FormatVersion, parsed["AWSTemplateFormatVersion"])
	assert.Len(t, parsed["Resources"], 2)
}

func TestToYAML(t *testing.T) {
	tmpl, err := newFunctionBuilder().Build()
	require.NoError(t, err)

	data, err := ToYAML(tmpl)
	require.NoError(t, err)

	out := string(data)
	assert.Less(t, strings.Index(out, "HelloHandlerServiceRole:"), strings.Index(out, "HelloHandler:"))

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, FormatVersion, parsed["AWSTemplateFormatVersion"])
	resources := parsed["Resources"].(map[string]any)
	fn := resources["HelloHandler"].(map[string]any)
	assert.Equal(t, "AWS::Lambda::Function", fn["Type"])
}
