package commands

import (
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tsapi/display"
)

// TasksCmd lists tasks
var TasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the tasks of the project tree",
	Long: `List tasks with their group and description.

Tasks without a group are internal steps and only shown with --all.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := workspaceFromFlags(cmd)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(cmd.OutOrStdout(), CollectTasks(ws, all))
		}
		return ListTasks(ws, all, cmd.OutOrStdout())
	},
}

func init() {
	TasksCmd.Flags().BoolP("all", "a", false, "Include tasks without a group")
}

// TaskInfo describes one task for listings
type TaskInfo struct {
	Path        string   `json:"path"`
	Group       string   `json:"group,omitempty"`
	Description string   `json:"description,omitempty"`
	Enabled     bool     `json:"enabled"`
	DependsOn   []string `json:"depends_on,omitempty"`
}

// CollectTasks lists tasks of every project; hidden ones only with all
func CollectTasks(ws *Workspace, all bool) []TaskInfo {
	var infos []TaskInfo
	for _, p := range ws.Root.AllProjects() {
		for _, t := range p.Tasks.Matching(nil) {
			if t.Group == "" && !all {
				continue
			}
			infos = append(infos, TaskInfo{
				Path:        t.Path(),
				Group:       t.Group,
				Description: t.Description,
				Enabled:     t.Enabled,
				DependsOn:   t.Dependencies(),
			})
		}
	}
	return infos
}

// ListTasks renders the task table
func ListTasks(ws *Workspace, all bool, out io.Writer) error {
	data := pterm.TableData{{"Task", "Group", "Description"}}
	for _, info := range CollectTasks(ws, all) {
		data = append(data, []string{info.Path, info.Group, info.Description})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(out).Render()
}
