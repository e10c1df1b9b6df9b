package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/tsapi/am"
	"github.com/teranos/tsapi/cmd/tsapi/commands"
	"github.com/teranos/tsapi/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tsapi",
	Short: "tsapi - TypeScript API snapshot checks",
	Long: `tsapi - keep the public TypeScript declarations of a multi-target build stable.

Each JS target gets three tasks: <target>ApiBuild collects the generated
declarations into one snapshot, <target>ApiCheck compares it with the
checked-in reference and <target>ApiDump accepts the current API.
apiCheck and apiDump run them for every target.

Available commands:
  run     - Run tasks and their dependencies
  tasks   - List tasks
  watch   - Re-run tasks when sources change
  config  - Show configuration
  version - Show version information

Examples:
  tsapi run apiCheck       # Fail when the API changed
  tsapi run apiDump        # Accept the API change
  tsapi tasks --all        # Show every task, including internal ones`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// version works without a readable config
		if cmd.Name() == "version" {
			return nil
		}
		cfg, err := am.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		verbosity := commands.Verbosity(cmd, cfg)
		if err := logger.Initialize(cfg.Log.JSON, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debugw("Logger initialized", "verbosity", logger.LevelName(verbosity), "json", logger.JSONOutput)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().StringP("dir", "C", "", "Project directory (default: working directory)")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Print command results as JSON")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.TasksCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
