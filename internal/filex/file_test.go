package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedDirectory(t *testing.T) {
	tmp := t.TempDir()
	want := filepath.Join(tmp, "data", "db")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	first, err := EnsureDir(dir)
	require.NoError(t, err)
	second, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o660))

	_, err := EnsureDir(path)
	require.Error(t, err)
}

func TestEnsureFile_CreatesOnceThenKeepsContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "users.json")

	created, err := EnsureFile(path, []byte("[]"))
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, os.WriteFile(path, []byte(`[{"_id":"1"}]`), 0o660))

	created, err = EnsureFile(path, []byte("[]"))
	require.NoError(t, err)
	require.False(t, created)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `[{"_id":"1"}]`, string(b))
}

func TestWriteFileAtomic_ReplacesContentAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carts.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o660))

	require.NoError(t, WriteFileAtomic(path, []byte("new")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "x.json"), []byte("[]"))
	require.Error(t, err)
}
