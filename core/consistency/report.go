package consistency

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Anomaly labels as they appear in result files.
const (
	LabelDark    = "DARK"
	LabelMissing = "MISSING"
)

// WriteReport serializes the report to path, one line per anomaly:
//
//	LABEL,<identifier with its first path separator replaced by a comma>
//
// The substitution makes the leading path component (the catalog scope) a
// distinguishable CSV field for downstream consumers. The file is written
// to a temporary sibling and renamed into place on success, so a partial
// result never looks complete.
func WriteReport(report *Report, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create result file for %s: %w", path, err)
	}

	if err := writeGroups(tmp, report); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write result file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close result file %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("finalize result file %s: %w", path, err)
	}
	return nil
}

func writeGroups(f *os.File, report *Report) error {
	w := bufio.NewWriter(f)
	for _, id := range report.Dark {
		if err := writeLine(w, LabelDark, id); err != nil {
			return err
		}
	}
	for _, id := range report.Missing {
		if err := writeLine(w, LabelMissing, id); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeLine(w *bufio.Writer, label, id string) error {
	_, err := fmt.Fprintf(w, "%s,%s\n", label, strings.Replace(id, "/", ",", 1))
	return err
}
