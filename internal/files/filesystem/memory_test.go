package filesystem

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, p FileSystemProvider, root string) []string {
	t.Helper()
	var rels []string
	err := p.WalkFiles(root, func(f File) error {
		rels = append(rels, f.RelativePath())
		return nil
	})
	require.NoError(t, err)
	return rels
}

func TestMemoryFileSystem_WalkOrder(t *testing.T) {
	mfs := NewMemoryFileSystem("/project")
	mfs.AddFile("schema/b.sql", "b")
	mfs.AddFile("schema/a.sql", "a")
	mfs.AddFile("schema/a/z.sql", "az")
	mfs.AddFile("other.txt", "x")

	assert.Equal(t, []string{"a/z.sql", "a.sql", "b.sql"}, collect(t, mfs, "schema"))
	assert.Equal(t, []string{"other.txt", "schema/a/z.sql", "schema/a.sql", "schema/b.sql"}, collect(t, mfs, "/project"))
}

func TestMemoryFileSystem_StatAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem("/project")
	mfs.AddFile("schema/a.sql", "SELECT 1;")

	info, err := mfs.Stat("schema")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	info, err = mfs.Stat("/project/schema/a.sql")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.EqualValues(t, 9, info.Size())

	content, err := mfs.ReadFile("schema/a.sql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", string(content))

	_, err = mfs.ReadFile("missing.sql")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = mfs.Stat("missing")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystem_WalkErrors(t *testing.T) {
	mfs := NewMemoryFileSystem("/project")
	mfs.AddFile("a.sql", "a")
	mfs.AddFile("b.sql", "b")

	assert.Error(t, mfs.WalkFiles("a.sql", func(File) error { return nil }))
	assert.Error(t, mfs.WalkFiles("nope", func(File) error { return nil }))

	stop := errors.New("stop")
	var seen int
	err := mfs.WalkFiles("/project", func(File) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}
