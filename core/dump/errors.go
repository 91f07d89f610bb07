package dump

import "fmt"

// NotFoundError indicates that a dump path could not be opened.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dump not found: %s: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// UnsupportedCompressionError indicates that the dump's file extension
// names a compression format this package cannot decode.
type UnsupportedCompressionError struct {
	Path string
	Ext  string
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("unsupported compression format %q: %s", e.Ext, e.Path)
}

// MalformedLineError indicates that a catalog dump line does not carry
// enough fields to locate the identifier and availability status.
type MalformedLineError struct {
	Path   string
	Line   int
	Fields int
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed catalog line %s:%d: got %d fields, need %d",
		e.Path, e.Line, e.Fields, catalogMinFields)
}
