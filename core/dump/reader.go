package dump

import (
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const (
	// initialLineBuffer is the starting size of the scanner buffer.
	initialLineBuffer = 64 * 1024
	// maxLineBuffer caps a single dump line. Catalog lines carry a dozen
	// fields including checksums and full paths, but never megabytes.
	maxLineBuffer = 4 * 1024 * 1024
)

// extensions that are recognizably compressed but not decodable here.
var unsupportedExts = map[string]struct{}{
	".zip": {},
	".xz":  {},
	".zst": {},
	".lz4": {},
	".7z":  {},
}

// Scanner streams the raw lines of a dump file with the trailing line
// terminator stripped. It is forward-only; reopening the path is the only
// way to restart.
type Scanner struct {
	file    *os.File
	filter  io.Closer // set when a decompression filter owns resources
	scanner *bufio.Scanner
	path    string
	line    int
}

// Open opens a dump for line-by-line reading, auto-selecting a
// decompression filter from the file extension (.bz2, .gz, or none).
func Open(path string) (*Scanner, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}

	var reader io.Reader = file
	var filter io.Closer

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".bz2":
		reader = bzip2.NewReader(file)
	case ".gz":
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open gzip dump %s: %w", path, err)
		}
		reader = gz
		filter = gz
	default:
		if _, bad := unsupportedExts[ext]; bad {
			file.Close()
			return nil, &UnsupportedCompressionError{Path: path, Ext: ext}
		}
		// Anything else is treated as plain text; dump names routinely
		// embed dates and RSE names with dots.
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineBuffer)

	return &Scanner{
		file:    file,
		filter:  filter,
		scanner: scanner,
		path:    path,
	}, nil
}

// Scan advances to the next line. It returns false at end of input or on
// error; check Err afterwards.
func (s *Scanner) Scan() bool {
	if !s.scanner.Scan() {
		return false
	}
	s.line++
	return true
}

// Line returns the current line with the trailing terminator stripped.
// bufio already removes the \n; \r is stripped here for CRLF dumps.
func (s *Scanner) Line() string {
	return strings.TrimSuffix(s.scanner.Text(), "\r")
}

// LineNumber returns the 1-based number of the current line.
func (s *Scanner) LineNumber() int {
	return s.line
}

// Err returns the first error encountered while reading.
func (s *Scanner) Err() error {
	if err := s.scanner.Err(); err != nil {
		return fmt.Errorf("read dump %s: %w", s.path, err)
	}
	return nil
}

// Path returns the path this scanner was opened from.
func (s *Scanner) Path() string {
	return s.path
}

// Close releases the file handle and any decompression filter.
func (s *Scanner) Close() error {
	if s.filter != nil {
		if err := s.filter.Close(); err != nil {
			s.file.Close()
			return err
		}
	}
	return s.file.Close()
}
