package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set through ldflags at build time; a module build falls back
// to the VCS revision recorded in the binary.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cv-insight version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s %s\n", app, resolveVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func resolveVersion() string {
	if version != "dev" {
		return version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 8 {
			return version + " (" + setting.Value[:8] + ")"
		}
	}
	return version
}
