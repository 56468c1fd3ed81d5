// Package workshop provides the shared types of the cdk-workshop stack:
// resources, logical IDs, attribute references and the CloudFormation template.
//
// Resources are plain Go structs registered on a stack under a logical ID:
//
//	st.Add(SiteBucket, &s3.Bucket{
//	    BucketName: Sub{String: "${AWS::AccountId}-static-website"},
//	})
//
//	st.Add(SiteBucketPolicy, &s3.BucketPolicy{
//	    Bucket: SiteBucket.Ref(),
//	})
//
// The template builder discovers the references between resources and emits
// them in dependency order.
package workshop

import (
	"encoding/json"

	"github.com/dineshpithiya/cdk-workshop/intrinsics"
)

// Resource represents a CloudFormation resource.
// All resource types (s3.Bucket, lambda.Function, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::S3::Bucket")
	ResourceType() string
}

// LogicalID is the name a resource is registered under in a stack.
// It becomes the key in the template's Resources section.
type LogicalID string

// String returns the logical ID as a plain string.
func (id LogicalID) String() string {
	return string(id)
}

// Ref returns a Ref intrinsic pointing at this resource.
func (id LogicalID) Ref() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: string(id)}
}

// Attr returns a GetAtt reference to one of this resource's attributes.
func (id LogicalID) Attr(attribute string) AttrRef {
	return AttrRef{Resource: string(id), Attribute: attribute}
}

// AttrRef represents a GetAtt reference to a resource attribute.
//
// Example:
//
//	Role: HelloHandlerServiceRole.Attr("Arn")
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["HelloHandlerServiceRole", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "RegionalDomainName")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// RemovalPolicy controls what CloudFormation does with a resource when it
// leaves the stack.
type RemovalPolicy string

const (
	// RemovalRetain keeps the physical resource (CloudFormation's default).
	RemovalRetain RemovalPolicy = "Retain"
	// RemovalDestroy deletes the physical resource with the stack.
	RemovalDestroy RemovalPolicy = "Delete"
)

// DiscoveredResource is a node of the stack's dependency graph.
type DiscoveredResource struct {
	// Name is the logical ID
	Name string
	// Type is the CloudFormation type (e.g., "AWS::Lambda::Function")
	Type string
	// Dependencies are logical names of referenced resources
	Dependencies []string
	// AttrRefUsages tracks GetAtt references made by this resource
	AttrRefUsages []AttrRefUsage
}

// AttrRefUsage records one attribute reference inside a resource's properties.
type AttrRefUsage struct {
	ResourceName string
	Attribute    string
	// FieldPath is the dotted property path holding the reference
	FieldPath string
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`

	// ResourceOrder is the dependency order the builder emitted resources in.
	// Encoders write Resources in this order; it is empty for parsed templates.
	ResourceOrder []string `json:"-" yaml:"-"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type                string         `json:"Type" yaml:"Type"`
	Properties          map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn           []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	DeletionPolicy      string         `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string         `json:"UpdateReplacePolicy,omitempty" yaml:"UpdateReplacePolicy,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string        `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any           `json:"Value" yaml:"Value"`
	Export      *OutputExport `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// OutputExport names a cross-stack export.
type OutputExport struct {
	Name string `json:"Name" yaml:"Name"`
}

// BuildResult is the outcome of `cdk-workshop synth`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Template  Template `json:"template,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `cdk-workshop validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `cdk-workshop list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// OptimizeSuggestion is one improvement proposed for a resource.
type OptimizeSuggestion struct {
	Rule        string `json:"rule"`
	Resource    string `json:"resource"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// OptimizeSummary counts suggestions per category.
type OptimizeSummary struct {
	Security    int `json:"security"`
	Cost        int `json:"cost"`
	Performance int `json:"performance"`
	Reliability int `json:"reliability"`
	Total       int `json:"total"`
}

// OptimizeResult is the JSON output from `cdk-workshop optimize`.
type OptimizeResult struct {
	Success       bool                 `json:"success"`
	Suggestions   []OptimizeSuggestion `json:"suggestions,omitempty"`
	ResourceCount int                  `json:"resource_count"`
	Summary       OptimizeSummary      `json:"summary"`
}

// SchemaError is a single offline schema violation.
type SchemaError struct {
	Resource string `json:"resource"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

// TemplateDiff lists the resources that differ between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry is one added, removed or modified resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}
