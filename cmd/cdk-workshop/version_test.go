package main

import (
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVersion(t *testing.T) {
	rev := []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef0123"}}
	dirty := append(rev, debug.BuildSetting{Key: "vcs.modified", Value: "true"})
	clean := append([]debug.BuildSetting{}, rev[0], debug.BuildSetting{Key: "vcs.modified", Value: "false"})

	tests := []struct {
		name     string
		stamped  string
		module   string
		settings []debug.BuildSetting
		want     string
	}{
		{"nothing known", "", "", nil, "dev"},
		{"devel module", "", "(devel)", nil, "dev"},
		{"module version", "", "v0.3.1", nil, "v0.3.1"},
		{"ldflags win", "v1.0.0", "v0.3.1", nil, "v1.0.0"},
		{"revision shortened", "", "(devel)", rev, "dev (0123456789ab)"},
		{"clean tree", "v1.0.0", "", clean, "v1.0.0 (0123456789ab)"},
		{"dirty tree", "v1.0.0", "", dirty, "v1.0.0 (0123456789ab, dirty)"},
		{"short revision", "", "", []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}, "dev (abc)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatVersion(tt.stamped, tt.module, tt.settings))
		})
	}
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)

	line := strings.TrimSuffix(stdout, "\n")
	assert.Equal(t, "cdk-workshop "+buildVersion(), line)
	assert.NotContains(t, line, "\n")
	assert.NotEqual(t, "cdk-workshop ", line)
}

func TestVersionCmd_Stamped(t *testing.T) {
	old := version
	version = "v9.9.9"
	t.Cleanup(func() { version = old })

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "cdk-workshop v9.9.9"), stdout)
}
