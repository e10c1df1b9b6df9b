package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func TestDeclarationFileSetOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/out/link2/b.d.ts", "b")
	writeFile(t, fs, "/out/link1/z.d.ts", "z")
	writeFile(t, fs, "/out/link1/a.d.ts", "a")
	writeFile(t, fs, "/out/link1/a.js", "js")
	writeFile(t, fs, "/out/link1/nested/deep.d.ts", "nested files are ignored")
	require.NoError(t, fs.MkdirAll("/out/link1/dir.d.ts", 0755))

	set, err := NewDeclarationFileSet(fs, ".d.ts", func() []string {
		return []string{"/out/link1", "/out/missing", "/out/link2", "/out/link1"}
	})
	require.NoError(t, err)

	files, err := set.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("/out/link1", "a.d.ts"),
		filepath.Join("/out/link1", "z.d.ts"),
		filepath.Join("/out/link2", "b.d.ts"),
	}, files)
	assert.Equal(t, "*.d.ts", set.Pattern())
}

func TestDeclarationFileSetIsLazy(t *testing.T) {
	fs := afero.NewMemMapFs()
	calls := 0
	set, err := NewDeclarationFileSet(fs, ".d.ts", func() []string {
		calls++
		return []string{"/out"}
	})
	require.NoError(t, err)
	assert.Equal(t, 0, calls)

	files, err := set.Files()
	require.NoError(t, err)
	assert.Empty(t, files)

	// files produced after construction are seen
	writeFile(t, fs, "/out/widgets.d.ts", "x")
	files, err = set.Files()
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, 2, calls)
}
