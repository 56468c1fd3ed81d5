package optimizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

type secretPattern struct {
	name    string
	pattern *regexp.Regexp
}

// secretPatterns match well-known credential formats anywhere in a value.
var secretPatterns = []secretPattern{
	{"AWS access key", regexp.MustCompile(`\b(A3T[A-Z0-9]|AKIA|ABIA|ACCA|ASIA)[A-Z0-9]{16}\b`)},
	{"private key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|DSA\s+|OPENSSH\s+)?PRIVATE\s+KEY-----`)},
	{"Stripe API key", regexp.MustCompile(`\b[sp]k_(live|test)_[a-zA-Z0-9]{24,}\b`)},
	{"GitHub token", regexp.MustCompile(`\b(gh[pousr]_[A-Za-z0-9_]{36,}|github_pat_[A-Za-z0-9_]{22,})\b`)},
	{"Slack token", regexp.MustCompile(`\bxox[baprs]-[0-9]{10,}-[0-9]{10,}-[a-zA-Z0-9]{24,}\b`)},
}

// sensitiveWords mark property or variable names that usually hold secrets.
var sensitiveWords = []string{"password", "passwd", "secret", "token", "apikey", "api_key", "private_key", "privatekey", "credentials"}

// placeholders are values that merely stand in for a secret.
var placeholders = []string{"changeme", "example", "placeholder", "xxxx", "todo", "<", "${"}

// genericRules apply to every resource.
var genericRules = []Rule{
	{
		ID:       "OPT-SEC-001",
		Category: "security",
		Title:    "Template contains a hardcoded secret",
		Check: func(res workshop.ResourceDef) *workshop.OptimizeSuggestion {
			path, kind := findSecret("", res.Properties)
			if path == "" {
				return nil
			}
			return &workshop.OptimizeSuggestion{
				Severity:    "high",
				Description: fmt.Sprintf("%s looks like a %s. Templates are stored in plain text by CloudFormation.", path, kind),
				Suggestion:  "Store the value in Secrets Manager or Parameter Store and resolve it with a dynamic reference.",
			}
		},
	},
}

// findSecret walks v and returns the dotted path of the first value that
// looks like a credential, with a description of what it matched.
func findSecret(path string, v any) (string, string) {
	switch val := v.(type) {
	case map[string]any:
		// Single-key maps are intrinsics; their arguments are references.
		if len(val) == 1 {
			for k := range val {
				if k == "Ref" || strings.HasPrefix(k, "Fn::") {
					return "", ""
				}
			}
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := joinPath(path, k)
			if s, ok := val[k].(string); ok && sensitiveName(k) && literalSecret(s) {
				return child, "secret in a sensitive field"
			}
			if p, kind := findSecret(child, val[k]); p != "" {
				return p, kind
			}
		}
	case []any:
		for i, item := range val {
			if p, kind := findSecret(fmt.Sprintf("%s[%d]", path, i), item); p != "" {
				return p, kind
			}
		}
	case string:
		for _, sp := range secretPatterns {
			if sp.pattern.MatchString(val) {
				return path, sp.name
			}
		}
	}
	return "", ""
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func sensitiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range sensitiveWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// literalSecret reports whether s is long enough to be a real secret and is
// not a placeholder or a substitution.
func literalSecret(s string) bool {
	if len(s) < 8 {
		return false
	}
	lower := strings.ToLower(s)
	for _, p := range placeholders {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return !strings.HasPrefix(s, "arn:") && !strings.HasPrefix(s, "{{resolve:")
}
