package host

import (
	"context"
	"os/exec"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/tsapi/errors"
)

// ExecAction runs a shell-quoted command line in the project directory.
// Output goes to the project's Stdout.
func ExecAction(command string) Action {
	return func(ctx context.Context, t *Task) error {
		args, err := shellquote.Split(command)
		if err != nil {
			return errors.Wrapf(err, "invalid command for %s", t.Path())
		}
		if len(args) == 0 {
			return errors.Newf("empty command for %s", t.Path())
		}

		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Dir = t.Project.Dir
		cmd.Stdout = t.Project.Stdout
		cmd.Stderr = t.Project.Stdout
		if err := cmd.Run(); err != nil {
			return errors.WithDetailf(errors.Wrapf(err, "command failed: %s", shellquote.Join(args...)), "task %s", t.Path())
		}
		return nil
	}
}
