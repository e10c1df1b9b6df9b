package display

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommands() (*cobra.Command, *cobra.Command) {
	root := &cobra.Command{Use: "tsapi"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "tasks", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(child)
	return root, child
}

func TestShouldOutputJSON(t *testing.T) {
	assert.False(t, ShouldOutputJSON(nil))

	root, child := newCommands()
	root.SetArgs([]string{"tasks"})
	require.NoError(t, root.Execute())
	assert.False(t, ShouldOutputJSON(child))

	root, child = newCommands()
	root.SetArgs([]string{"tasks", "--json"})
	require.NoError(t, root.Execute())
	assert.True(t, ShouldOutputJSON(child))
}

func TestMarshalJSON(t *testing.T) {
	t.Setenv("CI", "")
	data, err := MarshalJSON(map[string]string{"task": ":tsApiCheck"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"task\": \":tsApiCheck\"\n}", string(data))

	t.Setenv("CI", "true")
	data, err = MarshalJSON(map[string]string{"task": ":tsApiCheck"})
	require.NoError(t, err)
	assert.Equal(t, `{"task":":tsApiCheck"}`, string(data))
}

func TestOutputJSON(t *testing.T) {
	t.Setenv("CI", "true")
	var buf bytes.Buffer
	require.NoError(t, OutputJSON(&buf, []string{"a"}))
	assert.Equal(t, "[\"a\"]\n", buf.String())
}
