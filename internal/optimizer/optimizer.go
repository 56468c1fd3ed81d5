// Package optimizer suggests security, cost, performance and reliability
// improvements for a synthesized template.
package optimizer

import (
	"fmt"
	"sort"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

// Categories lists the valid values of Options.Category besides "all".
var Categories = []string{"security", "cost", "performance", "reliability"}

// Options configures the optimizer.
type Options struct {
	// Category filters suggestions: "all", "security", "cost", "performance", "reliability"
	Category string
}

// Result contains optimization suggestions.
type Result struct {
	Suggestions []workshop.OptimizeSuggestion
	Summary     workshop.OptimizeSummary
}

// ValidCategory reports whether category can be passed in Options.
func ValidCategory(category string) bool {
	if category == "all" || category == "" {
		return true
	}
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Optimize applies every rule to every resource of t. Suggestions are
// ordered by resource name, then rule ID.
func Optimize(t *workshop.Template, opts Options) (*Result, error) {
	if !ValidCategory(opts.Category) {
		return nil, fmt.Errorf("invalid category: %s", opts.Category)
	}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &Result{}
	for _, name := range names {
		result.Suggestions = append(result.Suggestions, analyzeResource(name, t.Resources[name], opts.Category)...)
	}

	result.Summary = calculateSummary(result.Suggestions)

	return result, nil
}

// analyzeResource applies optimization rules to a single resource.
func analyzeResource(name string, res workshop.ResourceDef, category string) []workshop.OptimizeSuggestion {
	var suggestions []workshop.OptimizeSuggestion

	for _, rule := range rulesFor(res.Type) {
		if category != "" && category != "all" && rule.Category != category {
			continue
		}
		if s := rule.Check(res); s != nil {
			s.Rule = rule.ID
			s.Resource = name
			s.Category = rule.Category
			if s.Title == "" {
				s.Title = rule.Title
			}
			suggestions = append(suggestions, *s)
		}
	}

	return suggestions
}

// calculateSummary tallies suggestions by category.
func calculateSummary(suggestions []workshop.OptimizeSuggestion) workshop.OptimizeSummary {
	summary := workshop.OptimizeSummary{}
	for _, s := range suggestions {
		switch s.Category {
		case "security":
			summary.Security++
		case "cost":
			summary.Cost++
		case "performance":
			summary.Performance++
		case "reliability":
			summary.Reliability++
		}
		summary.Total++
	}
	return summary
}

// Rule represents an optimization rule.
type Rule struct {
	ID       string
	Category string
	Title    string
	// Check returns nil when the resource already follows the rule.
	Check func(res workshop.ResourceDef) *workshop.OptimizeSuggestion
}

// rulesFor returns the rules applicable to a CloudFormation type.
func rulesFor(resourceType string) []Rule {
	return append(typeRules(resourceType), genericRules...)
}

func typeRules(resourceType string) []Rule {
	switch resourceType {
	case "AWS::S3::Bucket":
		return s3BucketRules
	case "AWS::S3::BucketPolicy":
		return bucketPolicyRules
	case "AWS::Lambda::Function":
		return lambdaFunctionRules
	case "AWS::IAM::Role":
		return iamRoleRules
	case "AWS::CloudFront::Distribution":
		return distributionRules
	case "AWS::ApiGateway::Method":
		return methodRules
	}
	return nil
}
