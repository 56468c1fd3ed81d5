package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped at release time: -ldflags "-X main.version=v1.0.0".
var version = ""

// buildVersion describes the running binary: the stamped or module version
// followed by the VCS revision it was built from, when known.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return formatVersion(version, "", nil)
	}
	return formatVersion(version, info.Main.Version, info.Settings)
}

// formatVersion renders "<version> (<revision>[, dirty])". The ldflags
// version wins over the module version; "dev" is used when neither is set.
func formatVersion(stamped, module string, settings []debug.BuildSetting) string {
	v := stamped
	if v == "" && module != "" && module != "(devel)" {
		v = module
	}
	if v == "" {
		v = "dev"
	}

	var revision string
	var modified bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if revision == "" {
		return v
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if modified {
		return fmt.Sprintf("%s (%s, dirty)", v, revision)
	}
	return fmt.Sprintf("%s (%s)", v, revision)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cdk-workshop %s\n", buildVersion())
		},
	}
}
