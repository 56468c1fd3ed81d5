package workshop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAttrRef_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		ref      AttrRef
		expected string
	}{
		{
			name:     "role arn",
			ref:      AttrRef{Resource: "HelloHandlerServiceRole", Attribute: "Arn"},
			expected: `{"Fn::GetAtt":["HelloHandlerServiceRole","Arn"]}`,
		},
		{
			name:     "bucket regional domain name",
			ref:      AttrRef{Resource: "SiteBucket", Attribute: "RegionalDomainName"},
			expected: `{"Fn::GetAtt":["SiteBucket","RegionalDomainName"]}`,
		},
		{
			name:     "rest api root resource",
			ref:      AttrRef{Resource: "Endpoint", Attribute: "RootResourceId"},
			expected: `{"Fn::GetAtt":["Endpoint","RootResourceId"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.ref)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestAttrRef_IsZero(t *testing.T) {
	tests := []struct {
		name     string
		ref      AttrRef
		expected bool
	}{
		{name: "empty", ref: AttrRef{}, expected: true},
		{name: "with resource", ref: AttrRef{Resource: "SiteBucket"}, expected: false},
		{name: "with attribute", ref: AttrRef{Attribute: "Arn"}, expected: false},
		{name: "fully populated", ref: AttrRef{Resource: "SiteBucket", Attribute: "Arn"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ref.IsZero())
		})
	}
}

func TestLogicalID_RefAndAttr(t *testing.T) {
	id := LogicalID("SiteBucket")

	data, err := json.Marshal(id.Ref())
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "SiteBucket"}`, string(data))

	attr := id.Attr("Arn")
	assert.Equal(t, AttrRef{Resource: "SiteBucket", Attribute: "Arn"}, attr)
	assert.Equal(t, "SiteBucket", id.String())
}

func TestTemplate_JSON(t *testing.T) {
	template := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              "Test template",
		Resources: map[string]ResourceDef{
			"SiteBucket": {
				Type:                "AWS::S3::Bucket",
				Properties:          map[string]any{"BucketName": "test-bucket"},
				DeletionPolicy:      string(RemovalDestroy),
				UpdateReplacePolicy: string(RemovalDestroy),
			},
		},
		Outputs: map[string]Output{
			"Bucket": {
				Description: "The bucket name",
				Value:       map[string]string{"Ref": "SiteBucket"},
			},
		},
	}

	data, err := json.Marshal(template)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "2010-09-09", parsed["AWSTemplateFormatVersion"])
	assert.Equal(t, "Test template", parsed["Description"])

	resources := parsed["Resources"].(map[string]any)
	bucket := resources["SiteBucket"].(map[string]any)
	assert.Equal(t, "AWS::S3::Bucket", bucket["Type"])
	assert.Equal(t, "Delete", bucket["DeletionPolicy"])
	assert.NotContains(t, bucket, "DependsOn")

	outputs := parsed["Outputs"].(map[string]any)
	out := outputs["Bucket"].(map[string]any)
	assert.Equal(t, "The bucket name", out["Description"])
}

func TestTemplate_YAMLKeys(t *testing.T) {
	template := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources: map[string]ResourceDef{
			"SiteBucket": {Type: "AWS::S3::Bucket"},
		},
		Outputs: map[string]Output{
			"Bucket": {Value: "x", Export: &OutputExport{Name: "Site-Bucket"}},
		},
	}

	data, err := yaml.Marshal(template)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "AWSTemplateFormatVersion:")
	assert.Contains(t, out, "2010-09-09")
	assert.Contains(t, out, "Type: AWS::S3::Bucket")
	assert.Contains(t, out, "Name: Site-Bucket")
}

func TestResourceDef_DependsOn(t *testing.T) {
	resource := ResourceDef{
		Type:       "AWS::ApiGateway::Deployment",
		Properties: map[string]any{"RestApiId": map[string]any{"Ref": "Endpoint"}},
		DependsOn:  []string{"EndpointgetUserGET", "EndpointuserPOST"},
	}

	data, err := json.Marshal(resource)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	dependsOn := parsed["DependsOn"].([]any)
	assert.Len(t, dependsOn, 2)
	assert.Equal(t, "EndpointgetUserGET", dependsOn[0])
	assert.Equal(t, "EndpointuserPOST", dependsOn[1])
}

func TestBuildResult_Error(t *testing.T) {
	result := BuildResult{
		Success: false,
		Errors:  []string{"undefined reference: MissingBucket"},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.False(t, parsed["success"].(bool))
	errors := parsed["errors"].([]any)
	assert.Len(t, errors, 1)
}

func TestOutput_WithExport(t *testing.T) {
	output := Output{
		Description: "Distribution ID",
		Value:       map[string]string{"Ref": "SiteDistribution"},
		Export:      &OutputExport{Name: "CdkWorkshopStack-DistributionId"},
	}

	data, err := json.Marshal(output)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	export := parsed["Export"].(map[string]any)
	assert.Equal(t, "CdkWorkshopStack-DistributionId", export["Name"])
}
