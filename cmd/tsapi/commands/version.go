package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/tsapi/display"
	"github.com/teranos/tsapi/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show tsapi version information",
	Long:  `Display version, build time, commit hash, supported toolchain and platform information for the tsapi binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		info := version.Get()

		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(out, info)
		}
		fmt.Fprintln(out, info.String())
		fmt.Fprintf(out, "Toolchain: >= %s\n", info.MinToolchain)
		fmt.Fprintf(out, "Platform: %s\n", info.Platform)
		fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
		return nil
	},
}
