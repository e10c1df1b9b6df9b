package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tsapi/am"
	"github.com/teranos/tsapi/logger"
	"github.com/teranos/tsapi/watch"
)

// WatchCmd re-runs tasks on change
var WatchCmd = &cobra.Command{
	Use:   "watch <task>...",
	Short: "Run tasks, then run them again whenever sources change",
	Long: `Run tasks once and keep watching the project tree.

Build directories, .git and the files the tasks write are not watched,
so accepting an API with apiDump does not start another run.

Examples:
  tsapi watch apiCheck`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workspaceFromFlags(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return WatchTasks(ctx, ws, args, cmd)
	},
}

// WatchTasks runs tasks now and after every debounced change
func WatchTasks(ctx context.Context, ws *Workspace, tasks []string, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	dir := ws.Root.Dir
	workers := ws.Config.GetWorkers()

	_, _ = RunTasks(ctx, ws, tasks, workers, ws.Config.Build.Continue, out)

	debounce := time.Duration(ws.Config.Watch.DebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = am.DefaultDebounceMs * time.Millisecond
	}

	w, err := watch.New([]string{dir}, debounce, func(ctx context.Context, changed []string) error {
		if logger.ShouldOutput(ws.Verbosity, logger.OutputFileEvents) {
			for _, path := range changed {
				pterm.Info.WithWriter(out).Println("changed: " + path)
			}
		}
		// the descriptor may have changed too
		fresh, err := LoadWorkspace(ws.Config, dir, ws.Verbosity)
		if err != nil {
			logger.Errorw("Failed to reload workspace", logger.FieldDir, dir, logger.FieldError, err)
			pterm.Error.WithWriter(out).Println(err.Error())
			return err
		}
		ws = fresh
		_, err = RunTasks(ctx, ws, tasks, workers, ws.Config.Build.Continue, out)
		return err
	})
	if err != nil {
		return err
	}
	w.Ignore(ignoredPaths(ws))

	pterm.Info.WithWriter(out).Printfln("Watching %s (%d directories)", dir, len(w.Watched()))
	return w.Run(ctx)
}

// ignoredPaths skips build output, VCS metadata and task outputs
func ignoredPaths(ws *Workspace) func(string) bool {
	dirs := []string{filepath.Join(ws.Root.Dir, ".git")}
	var outputs []string
	for _, p := range ws.Root.AllProjects() {
		dirs = append(dirs, p.BuildDir)
		for _, t := range p.Tasks.Matching(nil) {
			outputs = append(outputs, t.Outputs...)
		}
	}
	under := watch.UnderAny(dirs...)
	written := watch.OneOf(outputs...)
	return func(path string) bool {
		return under(path) || written(path)
	}
}
