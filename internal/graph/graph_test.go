package graph

import (
	"strings"
	"testing"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

func siteResources() map[string]workshop.DiscoveredResource {
	return map[string]workshop.DiscoveredResource{
		"SiteBucket": {
			Name: "SiteBucket",
			Type: "AWS::S3::Bucket",
		},
		"cloudfrontOAI": {
			Name: "cloudfrontOAI",
			Type: "AWS::CloudFront::CloudFrontOriginAccessIdentity",
		},
		"SiteBucketPolicy": {
			Name:         "SiteBucketPolicy",
			Type:         "AWS::S3::BucketPolicy",
			Dependencies: []string{"SiteBucket", "cloudfrontOAI"},
			AttrRefUsages: []workshop.AttrRefUsage{
				{ResourceName: "cloudfrontOAI", Attribute: "S3CanonicalUserId", FieldPath: "PolicyDocument"},
			},
		},
	}
}

func TestGenerator_Generate_SimpleGraph(t *testing.T) {
	gen := &Generator{}
	var sb strings.Builder
	if err := gen.Generate(siteResources(), &sb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := sb.String()

	if !strings.Contains(output, "digraph") {
		t.Error("expected digraph declaration")
	}
	for _, name := range []string{"SiteBucket", "cloudfrontOAI", "SiteBucketPolicy"} {
		if !strings.Contains(output, name) {
			t.Errorf("expected %s node", name)
		}
	}
	if !strings.Contains(output, "[AWS::S3::Bucket]") {
		t.Error("expected CloudFormation type in node label")
	}
	if !strings.Contains(output, "->") {
		t.Error("expected dependency edges")
	}
}

func TestGenerator_Generate_WithGetAtt(t *testing.T) {
	gen := &Generator{}
	output, err := gen.GenerateString(siteResources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// GetAtt edges should be blue
	if !strings.Contains(output, "blue") {
		t.Error("expected blue color for GetAtt edge")
	}
}

func TestGenerator_Generate_SkipsUnknownDependencies(t *testing.T) {
	resources := map[string]workshop.DiscoveredResource{
		"HelloHandler": {
			Name:         "HelloHandler",
			Type:         "AWS::Lambda::Function",
			Dependencies: []string{"NotInStack"},
		},
	}

	output, err := (&Generator{}).GenerateString(resources)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(output, "NotInStack") {
		t.Error("expected unknown dependency to be skipped")
	}
}

func TestGenerator_Generate_ClusterByType(t *testing.T) {
	gen := &Generator{ClusterByType: true}
	output, err := gen.GenerateString(siteResources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// S3 has two resources, CloudFront only one
	if !strings.Contains(output, "cluster_S3") {
		t.Error("expected S3 cluster subgraph")
	}
	if strings.Contains(output, "cluster_CloudFront") {
		t.Error("expected no cluster for a single CloudFront resource")
	}
}

func TestGenerator_Generate_MermaidFormat(t *testing.T) {
	gen := &Generator{Format: FormatMermaid}
	output, err := gen.GenerateString(siteResources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "graph") && !strings.Contains(output, "flowchart") {
		t.Errorf("expected mermaid graph/flowchart, got:\n%s", output)
	}
	if strings.Contains(output, "digraph") {
		t.Error("expected mermaid format, not DOT")
	}
}

func TestGenerator_Generate_Deterministic(t *testing.T) {
	gen := &Generator{ClusterByType: true}
	first, err := gen.GenerateString(siteResources())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := gen.GenerateString(siteResources())
		if again != first {
			t.Fatal("expected identical output across runs")
		}
	}
}

func TestService(t *testing.T) {
	tests := map[string]string{
		"AWS::ApiGateway::Method":   "ApiGateway",
		"AWS::Lambda::LayerVersion": "Lambda",
		"Custom::Thing":             "Other",
	}
	for in, want := range tests {
		if got := Service(in); got != want {
			t.Errorf("Service(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, ok := ParseFormat("mermaid"); !ok || f != FormatMermaid {
		t.Errorf("ParseFormat(mermaid) = %q, %v", f, ok)
	}
	if _, ok := ParseFormat("svg"); ok {
		t.Error("expected svg to be rejected")
	}
}
