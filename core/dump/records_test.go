package dump

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalogLine builds a well-formed 11-field catalog dump line where the
// 8th field is the identifier and the 11th the availability status.
func catalogLine(id, status string) string {
	return fmt.Sprintf("RSE1 scope name ad:12345 1024 2025-01-01 2025-01-02 %s rule1 lock1 %s", id, status)
}

func writeDump(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenStorageDump(t *testing.T) {
	path := writeDump(t, "rse.dump", "scope/f1\n\nscope/f2\r\nscope/f3\n")

	ss, err := OpenStorageDump(path)
	require.NoError(t, err)
	defer ss.Close()

	var ids []string
	for ss.Scan() {
		ids = append(ids, ss.Identifier())
	}

	assert.NoError(t, ss.Err())
	// Empty lines are skipped; \r\n and \n terminators are stripped.
	assert.Equal(t, []string{"scope/f1", "scope/f2", "scope/f3"}, ids)
}

func TestOpenCatalogDump(t *testing.T) {
	content := catalogLine("data16/file_a", "A") + "\n" +
		catalogLine("data16/file_b", "U") + "\n"
	path := writeDump(t, "catalog.dump", content)

	cs, err := OpenCatalogDump(path)
	require.NoError(t, err)
	defer cs.Close()

	var records []CatalogRecord
	for cs.Scan() {
		records = append(records, cs.Record())
	}

	assert.NoError(t, cs.Err())
	assert.Equal(t, []CatalogRecord{
		{Identifier: "data16/file_a", Available: true},
		{Identifier: "data16/file_b", Available: false},
	}, records)
}

func TestOpenCatalogDump_MalformedLine(t *testing.T) {
	content := catalogLine("data16/file_a", "A") + "\n" +
		"only five fields right here\n" +
		catalogLine("data16/file_b", "A") + "\n"
	path := writeDump(t, "catalog.dump", content)

	cs, err := OpenCatalogDump(path)
	require.NoError(t, err)
	defer cs.Close()

	var seen int
	for cs.Scan() {
		seen++
	}

	// The scan stops at the malformed line; nothing after it is parsed.
	assert.Equal(t, 1, seen)

	var malformed *MalformedLineError
	require.ErrorAs(t, cs.Err(), &malformed)
	assert.Equal(t, 2, malformed.Line)
	assert.Equal(t, 5, malformed.Fields)
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.dump"))

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpen_UnsupportedCompression(t *testing.T) {
	path := writeDump(t, "rse.dump.zst", "scope/f1\n")

	_, err := Open(path)

	var unsupported *UnsupportedCompressionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, ".zst", unsupported.Ext)
}

func TestOpen_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rse.dump.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("scope/f1\nscope/f2\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	ss, err := OpenStorageDump(path)
	require.NoError(t, err)
	defer ss.Close()

	var ids []string
	for ss.Scan() {
		ids = append(ids, ss.Identifier())
	}

	assert.NoError(t, ss.Err())
	assert.Equal(t, []string{"scope/f1", "scope/f2"}, ids)
}

func TestScanner_ExactByteIdentifiers(t *testing.T) {
	// Inner whitespace and case must survive untouched; only the line
	// terminator is stripped.
	path := writeDump(t, "rse.dump", "scope/File With Space\nSCOPE/f1\n")

	ss, err := OpenStorageDump(path)
	require.NoError(t, err)
	defer ss.Close()

	var ids []string
	for ss.Scan() {
		ids = append(ids, ss.Identifier())
	}

	assert.Equal(t, []string{"scope/File With Space", "SCOPE/f1"}, ids)
}
