package optimizer

import (
	"fmt"
	"strings"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

// deprecatedRuntimes are Lambda runtimes past the end of standard support.
var deprecatedRuntimes = map[string]bool{
	"nodejs12.x": true,
	"nodejs14.x": true,
	"nodejs16.x": true,
	"python3.7":  true,
	"python3.8":  true,
	"go1.x":      true,
}

// minimumTLS is the oldest security policy still recommended for CloudFront.
const minimumTLS = "TLSv1.2_2021"

// outdatedTLS are CloudFront security policies older than minimumTLS.
var outdatedTLS = map[string]bool{
	"":             true,
	"SSLv3":        true,
	"TLSv1":        true,
	"TLSv1_2016":   true,
	"TLSv1.1_2016": true,
	"TLSv1.2_2018": true,
	"TLSv1.2_2019": true,
}

// s3BucketRules contains optimization rules for S3 buckets.
var s3BucketRules = []Rule{
	{
		ID:       "OPT-S3-001",
		Category: "security",
		Title:    "S3 bucket should block public access",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			block := mapAt(res.Properties, "PublicAccessBlockConfiguration")
			for _, key := range []string{"BlockPublicAcls", "BlockPublicPolicy", "IgnorePublicAcls", "RestrictPublicBuckets"} {
				if on, _ := block[key].(bool); !on {
					return &workshop.OptimizeSuggestion{
						Severity:    "high",
						Description: "Public access can lead to data exposure. " + key + " is not enabled.",
						Suggestion:  "Set PublicAccessBlockConfiguration with all four switches on and serve content through CloudFront.",
					}
				}
			}
			return nil
		},
	},
	{
		ID:       "OPT-S3-002",
		Category: "reliability",
		Title:    "S3 bucket is deleted with the stack",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			if res.DeletionPolicy != string(workshop.RemovalDestroy) {
				return nil
			}
			return &workshop.OptimizeSuggestion{
				Severity:    "medium",
				Description: "DeletionPolicy is Delete, so the bucket and its objects go away when the stack is destroyed.",
				Suggestion:  "Keep the Delete policy only for content that can be re-uploaded from source.",
			}
		},
	},
	{
		ID:       "OPT-S3-003",
		Category: "reliability",
		Title:    "S3 bucket should have versioning enabled",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			if str(mapAt(res.Properties, "VersioningConfiguration"), "Status") == "Enabled" {
				return nil
			}
			return &workshop.OptimizeSuggestion{
				Severity:    "low",
				Description: "Versioning protects against accidental overwrites and allows recovery of previous versions.",
				Suggestion:  "Add VersioningConfiguration with Status set to 'Enabled'.",
			}
		},
	},
}

// bucketPolicyRules contains rules for S3 bucket policies.
var bucketPolicyRules = []Rule{
	{
		ID:       "OPT-IAM-002",
		Category: "security",
		Title:    "Bucket policy should use least privilege",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			return wildcardActions(mapAt(res.Properties, "PolicyDocument"))
		},
	},
}

// lambdaFunctionRules contains optimization rules for Lambda functions.
var lambdaFunctionRules = []Rule{
	{
		ID:       "OPT-LAM-001",
		Category: "performance",
		Title:    "Review Lambda memory configuration",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			mem := num(res.Properties, "MemorySize")
			if mem >= 256 {
				return nil
			}
			if mem == 0 {
				mem = 128
			}
			return &workshop.OptimizeSuggestion{
				Severity:    "medium",
				Description: fmt.Sprintf("The function has %d MB. CPU is allocated in proportion to memory, so small functions start and run slower.", mem),
				Suggestion:  "Measure with a few memory sizes and set MemorySize explicitly.",
			}
		},
	},
	{
		ID:       "OPT-LAM-002",
		Category: "cost",
		Title:    "Lambda function should run on arm64",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			for _, arch := range list(res.Properties, "Architectures") {
				if arch == "arm64" {
					return nil
				}
			}
			return &workshop.OptimizeSuggestion{
				Severity:    "low",
				Description: "Graviton (arm64) functions are billed at a lower rate than x86_64 for the same duration.",
				Suggestion:  "Set Architectures to [arm64] when the code and layers have no native x86 dependencies.",
			}
		},
	},
	{
		ID:       "OPT-LAM-003",
		Category: "cost",
		Title:    "Review Lambda timeout setting",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			timeout := num(res.Properties, "Timeout")
			if timeout < 300 {
				return nil
			}
			return &workshop.OptimizeSuggestion{
				Severity:    "low",
				Description: fmt.Sprintf("Timeout is %d seconds. A hung invocation is billed for the whole duration.", timeout),
				Suggestion:  "Lower Timeout to slightly above the observed p99 duration.",
			}
		},
	},
	{
		ID:       "OPT-LAM-004",
		Category: "reliability",
		Title:    "Lambda runtime is deprecated",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			runtime := str(res.Properties, "Runtime")
			if !deprecatedRuntimes[runtime] {
				return nil
			}
			return &workshop.OptimizeSuggestion{
				Severity:    "high",
				Description: runtime + " no longer receives security patches and new functions cannot be created with it.",
				Suggestion:  "Move the function and its layers to a supported runtime.",
			}
		},
	},
}

// iamRoleRules contains optimization rules for IAM roles.
var iamRoleRules = []Rule{
	{
		ID:       "OPT-IAM-001",
		Category: "security",
		Title:    "IAM role should use least privilege",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			for _, arn := range anyList(res.Properties, "ManagedPolicyArns") {
				if strings.Contains(fmt.Sprint(arn), "AdministratorAccess") {
					return &workshop.OptimizeSuggestion{
						Severity:    "high",
						Description: "The role has the AdministratorAccess managed policy attached.",
						Suggestion:  "Replace it with a policy granting only the actions the function calls.",
					}
				}
			}
			for _, p := range anyList(res.Properties, "Policies") {
				if inline, ok := p.(map[string]any); ok {
					if s := wildcardActions(mapAt(inline, "PolicyDocument")); s != nil {
						return s
					}
				}
			}
			return nil
		},
	},
}

// distributionRules contains optimization rules for CloudFront distributions.
var distributionRules = []Rule{
	{
		ID:       "OPT-CF-001",
		Category: "security",
		Title:    "Distribution should require HTTPS",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			behavior := mapAt(mapAt(res.Properties, "DistributionConfig"), "DefaultCacheBehavior")
			if str(behavior, "ViewerProtocolPolicy") != "allow-all" {
				return nil
			}
			return &workshop.OptimizeSuggestion{
				Severity:    "high",
				Description: "The default cache behavior serves content over plain HTTP.",
				Suggestion:  "Set ViewerProtocolPolicy to redirect-to-https.",
			}
		},
	},
	{
		ID:       "OPT-CF-002",
		Category: "performance",
		Title:    "Distribution should compress responses",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			behavior := mapAt(mapAt(res.Properties, "DistributionConfig"), "DefaultCacheBehavior")
			if on, _ := behavior["Compress"].(bool); on {
				return nil
			}
			return &workshop.OptimizeSuggestion{
				Severity:    "low",
				Description: "Text assets are sent uncompressed.",
				Suggestion:  "Set Compress to true on the default cache behavior.",
			}
		},
	},
	{
		ID:       "OPT-CF-003",
		Category: "security",
		Title:    "Distribution should use a current TLS policy",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			cfg := mapAt(res.Properties, "DistributionConfig")
			if len(anyList(cfg, "Aliases")) == 0 {
				return nil
			}
			version := str(mapAt(cfg, "ViewerCertificate"), "MinimumProtocolVersion")
			if !outdatedTLS[version] {
				return nil
			}
			return &workshop.OptimizeSuggestion{
				Severity:    "medium",
				Description: "The custom domain accepts TLS versions older than " + minimumTLS + ".",
				Suggestion:  "Set ViewerCertificate.MinimumProtocolVersion to " + minimumTLS + ".",
			}
		},
	},
}

// methodRules contains optimization rules for API Gateway methods.
var methodRules = []Rule{
	{
		ID:       "OPT-API-001",
		Category: "security",
		Title:    "API method has no authorization",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			if str(res.Properties, "HttpMethod") == "OPTIONS" {
				return nil
			}
			if auth := str(res.Properties, "AuthorizationType"); auth != "" && auth != "NONE" {
				return nil
			}
			return &workshop.OptimizeSuggestion{
				Severity:    "medium",
				Description: "Anyone who knows the URL can invoke the method.",
				Suggestion:  "Add an authorizer, IAM authorization or an API key with a usage plan.",
			}
		},
	},
}

// wildcardActions flags Allow statements granting every action of a service.
func wildcardActions(doc map[string]any) *workshop.OptimizeSuggestion {
	for _, st := range anyList(doc, "Statement") {
		stmt, ok := st.(map[string]any)
		if !ok || str(stmt, "Effect") != "Allow" {
			continue
		}
		actions := anyList(stmt, "Action")
		if a, ok := stmt["Action"].(string); ok {
			actions = []any{a}
		}
		for _, a := range actions {
			action, _ := a.(string)
			if action == "*" || strings.HasSuffix(action, ":*") {
				return &workshop.OptimizeSuggestion{
					Severity:    "high",
					Description: fmt.Sprintf("A statement allows %q.", action),
					Suggestion:  "List the specific actions the principal needs.",
				}
			}
		}
	}
	return nil
}

func mapAt(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

// num reads an integer from properties built in code (int64) or parsed
// from JSON (float64).
func num(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func anyList(m map[string]any, key string) []any {
	v, _ := m[key].([]any)
	return v
}

func list(m map[string]any, key string) []string {
	var out []string
	for _, v := range anyList(m, key) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
