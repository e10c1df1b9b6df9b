package host

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirAll(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func TestExecAction(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	p := NewRootProject("widgets", t.TempDir(), nil)
	var out bytes.Buffer
	p.Stdout = &out

	task := p.Tasks.MaybeRegister("hello", nil).Get()
	err := ExecAction(`sh -c 'echo "hello world"'`)(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out.String())

	err = ExecAction(`sh -c 'exit 3'`)(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command failed")
}

func TestExecAction_BadQuoting(t *testing.T) {
	p := newTestProject()
	task := p.Tasks.MaybeRegister("broken", nil).Get()

	err := ExecAction(`echo "unterminated`)(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid command for :broken")

	err = ExecAction("   ")(context.Background(), task)
	require.Error(t, err)
}
