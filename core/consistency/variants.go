package consistency

import (
	"fmt"

	"rse-auditor/core/dump"
)

// checkPreload parses both catalog dumps into memory before inserting the
// storage dump. Classification is identical to the streaming variant; only
// peak memory differs.
func checkPreload(beforePath, storagePath, afterPath string) (*Report, error) {
	before, err := readAllCatalog(beforePath)
	if err != nil {
		return nil, err
	}
	after, err := readAllCatalog(afterPath)
	if err != nil {
		return nil, err
	}

	tallies := make(map[string]uint8, len(before))

	for _, rec := range before {
		tally := seenBefore
		if rec.Available {
			tally |= beforeAvailable
		}
		tallies[rec.Identifier] = tally
	}

	if err := eachStorageIdentifier(storagePath, func(id string) {
		tallies[id] |= seenStorage
	}); err != nil {
		return nil, err
	}

	for _, rec := range after {
		tally := tallies[rec.Identifier] | seenAfter
		if rec.Available {
			tally |= afterAvailable
		}
		tallies[rec.Identifier] = tally
	}

	return classify(tallies), nil
}

func readAllCatalog(path string) ([]dump.CatalogRecord, error) {
	var records []dump.CatalogRecord
	err := eachCatalogRecord(path, func(rec dump.CatalogRecord) {
		records = append(records, rec)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// checkSortMerge walks the three dumps in a single merged pass. All inputs
// must be pre-sorted by identifier in ascending byte order; a regression
// fails the run rather than silently misclassifying.
func checkSortMerge(beforePath, storagePath, afterPath string) (*Report, error) {
	beforeScan, err := dump.OpenCatalogDump(beforePath)
	if err != nil {
		return nil, err
	}
	defer beforeScan.Close()

	storageScan, err := dump.OpenStorageDump(storagePath)
	if err != nil {
		return nil, err
	}
	defer storageScan.Close()

	afterScan, err := dump.OpenCatalogDump(afterPath)
	if err != nil {
		return nil, err
	}
	defer afterScan.Close()

	before := &mergeCursor{path: beforePath, next: catalogNext(beforeScan)}
	storage := &mergeCursor{path: storagePath, next: storageNext(storageScan)}
	after := &mergeCursor{path: afterPath, next: catalogNext(afterScan)}

	for _, c := range []*mergeCursor{before, storage, after} {
		if err := c.advance(); err != nil {
			return nil, err
		}
	}

	report := &Report{}

	for before.ok || storage.ok || after.ok {
		key := minKey(before, storage, after)
		var tally uint8

		if before.ok && before.id == key {
			// Last state wins within the snapshot, as in pass 1 of the
			// streaming variant.
			available := false
			for before.ok && before.id == key {
				available = before.available
				if err := before.advance(); err != nil {
					return nil, err
				}
			}
			tally |= seenBefore
			if available {
				tally |= beforeAvailable
			}
		}

		if storage.ok && storage.id == key {
			for storage.ok && storage.id == key {
				if err := storage.advance(); err != nil {
					return nil, err
				}
			}
			tally |= seenStorage
		}

		if after.ok && after.id == key {
			available := false
			for after.ok && after.id == key {
				if after.available {
					available = true
				}
				if err := after.advance(); err != nil {
					return nil, err
				}
			}
			tally |= seenAfter
			if available {
				tally |= afterAvailable
			}
		}

		switch tally {
		case tallyDark:
			report.Dark = append(report.Dark, key)
		case tallyMissing:
			report.Missing = append(report.Missing, key)
		}
	}

	return report, nil
}

// mergeCursor is a one-record lookahead over a sorted dump stream.
type mergeCursor struct {
	path      string
	next      func() (id string, available bool, ok bool, err error)
	id        string
	available bool
	ok        bool
}

func (c *mergeCursor) advance() error {
	prev := c.id
	had := c.ok
	id, available, ok, err := c.next()
	if err != nil {
		return err
	}
	if ok && had && id < prev {
		return fmt.Errorf("dump %s is not sorted: %q follows %q", c.path, id, prev)
	}
	c.id, c.available, c.ok = id, available, ok
	return nil
}

func catalogNext(cs *dump.CatalogScanner) func() (string, bool, bool, error) {
	return func() (string, bool, bool, error) {
		if cs.Scan() {
			rec := cs.Record()
			return rec.Identifier, rec.Available, true, nil
		}
		return "", false, false, cs.Err()
	}
}

func storageNext(ss *dump.StorageScanner) func() (string, bool, bool, error) {
	return func() (string, bool, bool, error) {
		if ss.Scan() {
			return ss.Identifier(), false, true, nil
		}
		return "", false, false, ss.Err()
	}
}

// minKey returns the smallest current identifier among the live cursors.
func minKey(cursors ...*mergeCursor) string {
	var key string
	found := false
	for _, c := range cursors {
		if !c.ok {
			continue
		}
		if !found || c.id < key {
			key = c.id
			found = true
		}
	}
	return key
}
