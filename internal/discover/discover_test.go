package discover

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferences_Ref(t *testing.T) {
	deps, attrs := References(map[string]any{
		"Bucket": map[string]any{"Ref": "SiteBucket"},
	})
	assert.Equal(t, []string{"SiteBucket"}, deps)
	assert.Empty(t, attrs)
}

func TestReferences_GetAtt(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"list form", map[string]any{"Fn::GetAtt": []any{"HelloHandlerServiceRole", "Arn"}}},
		{"dotted form", map[string]any{"Fn::GetAtt": "HelloHandlerServiceRole.Arn"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, attrs := References(map[string]any{"Role": tt.value})
			assert.Equal(t, []string{"HelloHandlerServiceRole"}, deps)
			require.Len(t, attrs, 1)
			assert.Equal(t, "Arn", attrs[0].Attribute)
			assert.Equal(t, "Role", attrs[0].FieldPath)
		})
	}
}

func TestReferences_Sub(t *testing.T) {
	deps, attrs := References(map[string]any{
		"SourceArn": map[string]any{
			"Fn::Sub": "arn:${AWS::Partition}:execute-api:${AWS::Region}:${AWS::AccountId}:${Endpoint}/*/GET/getUser",
		},
		"Uri": map[string]any{
			"Fn::Sub": "arn:aws:apigateway:${AWS::Region}:lambda:path/functions/${HelloHandler.Arn}/invocations",
		},
		"Literal": map[string]any{"Fn::Sub": "${!NotAReference}"},
	})

	assert.ElementsMatch(t, []string{"Endpoint", "HelloHandler"}, deps)
	require.Len(t, attrs, 1)
	assert.Equal(t, "HelloHandler", attrs[0].ResourceName)
	assert.Equal(t, "Uri", attrs[0].FieldPath)
}

func TestReferences_SubWithMap(t *testing.T) {
	deps, _ := References(map[string]any{
		"Value": map[string]any{
			"Fn::Sub": []any{
				"${Domain}/${Path}",
				map[string]any{
					"Domain": map[string]any{"Fn::GetAtt": []any{"SiteDistribution", "DomainName"}},
				},
			},
		},
	})
	assert.Equal(t, []string{"Path", "SiteDistribution"}, deps)
}

func TestReferences_NestedPaths(t *testing.T) {
	_, attrs := References(map[string]any{
		"DistributionConfig": map[string]any{
			"Origins": []any{
				map[string]any{
					"DomainName": map[string]any{"Fn::GetAtt": []any{"SiteBucket", "RegionalDomainName"}},
				},
			},
		},
	})
	require.Len(t, attrs, 1)
	assert.Equal(t, "DistributionConfig.Origins[0].DomainName", attrs[0].FieldPath)
}

func TestReferences_PseudoParametersIgnored(t *testing.T) {
	deps, attrs := References(map[string]any{
		"Region":    map[string]any{"Ref": "AWS::Region"},
		"Partition": map[string]any{"Fn::Sub": "${AWS::Partition}"},
	})
	assert.Empty(t, deps)
	assert.Empty(t, attrs)
}

func TestDiscover(t *testing.T) {
	result := Discover([]Entry{
		{Name: "SiteBucket", Type: "AWS::S3::Bucket"},
		{
			Name:       "SiteBucketPolicy",
			Type:       "AWS::S3::BucketPolicy",
			Properties: map[string]any{"Bucket": map[string]any{"Ref": "SiteBucket"}},
		},
		{
			Name:      "EndpointDeployment",
			Type:      "AWS::ApiGateway::Deployment",
			DependsOn: []string{"SiteBucketPolicy", "SiteBucket"},
		},
	})

	require.NoError(t, result.Err())
	assert.Equal(t, []string{"SiteBucket"}, result.Resources["SiteBucketPolicy"].Dependencies)
	assert.Equal(t, []string{"SiteBucketPolicy", "SiteBucket"}, result.Resources["EndpointDeployment"].Dependencies)
	assert.Equal(t, "AWS::S3::BucketPolicy", result.Resources["SiteBucketPolicy"].Type)
}

func TestDiscover_UndefinedReference(t *testing.T) {
	result := Discover([]Entry{
		{
			Name:       "SiteBucketPolicy",
			Type:       "AWS::S3::BucketPolicy",
			Properties: map[string]any{"Bucket": map[string]any{"Ref": "MissingBucket"}},
		},
		{
			Name:      "Deployment",
			Type:      "AWS::ApiGateway::Deployment",
			DependsOn: []string{"MissingMethod"},
		},
	})

	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Error(), `Deployment references "MissingMethod"`)
	assert.Contains(t, result.Errors[1].Error(), `SiteBucketPolicy references "MissingBucket"`)
	assert.True(t, errors.Is(result.Err(), ErrUndefinedReference))
}
