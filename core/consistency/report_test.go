package consistency

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.TEST_DATADISK_20250127")
	report := &Report{
		Dark:    []string{"scope/dark1", "scope/sub/dark2"},
		Missing: []string{"user/jdoe/lost"},
	}

	require.NoError(t, WriteReport(report, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	// Only the first path separator becomes a comma; the rest of the
	// identifier is untouched.
	want := "DARK,scope,dark1\n" +
		"DARK,scope,sub/dark2\n" +
		"MISSING,user,jdoe/lost\n"
	assert.Equal(t, want, string(content))
}

func TestWriteReport_EmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.EMPTY_20250101")

	require.NoError(t, WriteReport(&Report{}, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestWriteReport_IdentifierWithoutSeparator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.FLAT_20250101")

	require.NoError(t, WriteReport(&Report{Dark: []string{"orphan"}}, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "DARK,orphan\n", string(content))
}

func TestWriteReport_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.RERUN_20250101")
	require.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0o644))

	require.NoError(t, WriteReport(&Report{Missing: []string{"scope/f1"}}, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MISSING,scope,f1\n", string(content))
}

func TestWriteReport_TargetDirectoryMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does", "not", "exist")
	path := filepath.Join(dir, "result.X_20250101")

	err := WriteReport(&Report{Dark: []string{"scope/f1"}}, path)
	require.Error(t, err)

	// No complete-looking partial file may exist.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
