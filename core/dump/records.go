package dump

import "strings"

const (
	// Zero-based field offsets of the catalog dump record layout.
	identifierField = 7
	statusField     = 10

	// catalogMinFields is the minimum field count for a valid catalog line.
	catalogMinFields = 11

	// availableStatus marks a replica recorded as available.
	availableStatus = "A"
)

// CatalogRecord is one parsed replica catalog entry.
type CatalogRecord struct {
	// Identifier is the opaque, location-independent file key.
	Identifier string
	// Available is true iff the status field equals "A". Any other value
	// means the replica was not yet (or no longer) fully available.
	Available bool
}

// StorageScanner streams file identifiers from a storage (RSE) dump:
// one identifier per non-empty line.
type StorageScanner struct {
	s  *Scanner
	id string
}

// OpenStorageDump opens a storage dump for streaming.
func OpenStorageDump(path string) (*StorageScanner, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	return &StorageScanner{s: s}, nil
}

// Scan advances to the next identifier, skipping empty lines.
func (ss *StorageScanner) Scan() bool {
	for ss.s.Scan() {
		line := ss.s.Line()
		if line == "" {
			continue
		}
		ss.id = line
		return true
	}
	return false
}

// Identifier returns the current file identifier.
func (ss *StorageScanner) Identifier() string {
	return ss.id
}

// Err returns the first error encountered while reading.
func (ss *StorageScanner) Err() error {
	return ss.s.Err()
}

// Close releases the underlying dump.
func (ss *StorageScanner) Close() error {
	return ss.s.Close()
}

// CatalogScanner streams CatalogRecords from a replica catalog dump.
// A line with fewer than 11 fields stops the scan with a
// MalformedLineError; parsing never skips lines.
type CatalogScanner struct {
	s   *Scanner
	rec CatalogRecord
	err error
}

// OpenCatalogDump opens a catalog dump for streaming.
func OpenCatalogDump(path string) (*CatalogScanner, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	return &CatalogScanner{s: s}, nil
}

// Scan advances to the next record.
func (cs *CatalogScanner) Scan() bool {
	if cs.err != nil {
		return false
	}
	if !cs.s.Scan() {
		return false
	}
	fields := strings.Fields(cs.s.Line())
	if len(fields) < catalogMinFields {
		cs.err = &MalformedLineError{
			Path:   cs.s.Path(),
			Line:   cs.s.LineNumber(),
			Fields: len(fields),
		}
		return false
	}
	cs.rec = CatalogRecord{
		Identifier: fields[identifierField],
		Available:  fields[statusField] == availableStatus,
	}
	return true
}

// Record returns the current catalog record.
func (cs *CatalogScanner) Record() CatalogRecord {
	return cs.rec
}

// Err returns the first parse or read error encountered.
func (cs *CatalogScanner) Err() error {
	if cs.err != nil {
		return cs.err
	}
	return cs.s.Err()
}

// Close releases the underlying dump.
func (cs *CatalogScanner) Close() error {
	return cs.s.Close()
}
