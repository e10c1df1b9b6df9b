package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tsapi/display"
	"github.com/teranos/tsapi/errors"
	"github.com/teranos/tsapi/host"
	"github.com/teranos/tsapi/logger"
)

// RunCmd runs tasks
var RunCmd = &cobra.Command{
	Use:   "run <task>...",
	Short: "Run tasks and their dependencies",
	Long: `Run tasks of the project tree.

A bare task name runs that task in every project that has it; an absolute
path such as :widgets:tsApiCheck runs one task.

Examples:
  tsapi run apiCheck          # Compare all TS API snapshots
  tsapi run apiDump           # Accept the current API
  tsapi run :widgets:check    # Run one project's checks`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workspaceFromFlags(cmd)
		if err != nil {
			return err
		}
		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = ws.Config.GetWorkers()
		}
		keepGoing, _ := cmd.Flags().GetBool("continue")

		if !display.ShouldOutputJSON(cmd) {
			_, err = RunTasks(cmd.Context(), ws, args, workers, keepGoing || ws.Config.Build.Continue, cmd.OutOrStdout())
			return err
		}
		result, runErr := RunTasks(cmd.Context(), ws, args, workers, keepGoing || ws.Config.Build.Continue, io.Discard)
		if err := display.OutputJSON(cmd.OutOrStdout(), NewRunReport(result)); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	RunCmd.Flags().IntP("workers", "w", 0, "Concurrent task actions (default: build.workers)")
	RunCmd.Flags().Bool("continue", false, "Keep running independent tasks after a failure")
}

// RunTasks executes the requested tasks and reports the outcome to out
func RunTasks(ctx context.Context, ws *Workspace, tasks []string, workers int, keepGoing bool, out io.Writer) (*host.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	executor := host.NewExecutor(ws.Root, workers)
	executor.Continue = keepGoing

	if logger.ShouldOutput(ws.Verbosity, logger.OutputPlan) {
		if plan, err := executor.Plan(tasks...); err == nil {
			pterm.Info.WithWriter(out).Println("Plan: " + strings.Join(plan.Order, " → "))
		}
	}

	result, err := executor.Run(ctx, tasks...)
	if result != nil && logger.ShouldOutput(ws.Verbosity, logger.OutputTaskSummary) {
		printSummary(out, result)
	}
	if result != nil && logger.ShouldOutput(ws.Verbosity, logger.OutputTiming) {
		pterm.Info.WithWriter(out).Printfln("Finished in %s (%s)", result.Duration.Round(time.Millisecond), result.InvocationID)
	}

	if err != nil {
		reportFailure(out, result, err)
		return result, err
	}
	pterm.Success.WithWriter(out).Printfln("%d task(s) done", countRun(result))
	return result, nil
}

// RunReport is the machine-readable outcome of a run
type RunReport struct {
	InvocationID string            `json:"invocation_id"`
	Order        []string          `json:"order"`
	States       map[string]string `json:"states"`
	Errors       []string          `json:"errors,omitempty"`
	Hints        []string          `json:"hints,omitempty"`
	DurationMS   int64             `json:"duration_ms"`
}

// NewRunReport summarizes an executor result
func NewRunReport(result *host.Result) RunReport {
	report := RunReport{States: make(map[string]string)}
	if result == nil {
		return report
	}
	report.InvocationID = result.InvocationID
	report.Order = result.Order
	report.DurationMS = result.Duration.Milliseconds()
	for path, state := range result.States {
		report.States[path] = string(state)
	}
	for _, err := range result.Errors {
		report.Errors = append(report.Errors, err.Error())
		report.Hints = append(report.Hints, errors.GetAllHints(err)...)
	}
	return report
}

func countRun(result *host.Result) int {
	n := 0
	for _, state := range result.States {
		if state != host.StateNotRun {
			n++
		}
	}
	return n
}

func printSummary(out io.Writer, result *host.Result) {
	data := pterm.TableData{{"Task", "State"}}
	for _, path := range result.Order {
		data = append(data, []string{path, string(result.States[path])})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(out).Render()
}

func reportFailure(out io.Writer, result *host.Result, err error) {
	failures := []error{err}
	if result != nil && len(result.Errors) > 0 {
		failures = result.Errors
	}
	for _, failure := range failures {
		pterm.Error.WithWriter(out).Println(failure.Error())
		for _, hint := range errors.GetAllHints(failure) {
			pterm.Info.WithWriter(out).Println(hint)
		}
	}
	fmt.Fprintln(out)
}
