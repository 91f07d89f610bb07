package consistency

import (
	"fmt"
	"sort"

	"rse-auditor/core/dump"
)

// Algorithm selects one of the interchangeable reconciliation variants.
type Algorithm string

const (
	// AlgorithmStreaming processes each dump as a single forward pass over
	// a tally map. This is the default.
	AlgorithmStreaming Algorithm = "streaming"
	// AlgorithmPreload loads both catalog dumps into memory before
	// inserting the storage dump.
	AlgorithmPreload Algorithm = "preload"
	// AlgorithmSortMerge merges three pre-sorted dumps with constant
	// auxiliary memory.
	AlgorithmSortMerge Algorithm = "sortmerge"
)

// Per-pass tally weights. The weights are chosen so that one integer
// comparison classifies an identifier without intersecting sets.
const (
	seenBefore      uint8 = 16
	beforeAvailable uint8 = 2
	seenStorage     uint8 = 8
	seenAfter       uint8 = 4
	afterAvailable  uint8 = 1

	// tallyDark: present in storage, absent from both catalog snapshots.
	tallyDark = seenStorage
	// tallyMissing: present and available in both catalog snapshots,
	// never seen in storage (16+2+4+1).
	tallyMissing = seenBefore | beforeAvailable | seenAfter | afterAvailable
)

// Report holds the outcome of one reconciliation run. Both slices are
// sorted by identifier so output is deterministic across runs.
type Report struct {
	// Dark lists identifiers present in storage but never recorded as
	// available in the catalog (a storage-side leak).
	Dark []string
	// Missing lists identifiers the catalog records as available in both
	// snapshots but which are absent from storage (a data-loss signal).
	Missing []string
}

// Check reconciles the three dumps using the given algorithm and returns
// the anomaly report. Reader errors abort the run with no partial result.
func Check(algorithm Algorithm, beforePath, storagePath, afterPath string) (*Report, error) {
	switch algorithm {
	case AlgorithmStreaming, "":
		return checkStreaming(beforePath, storagePath, afterPath)
	case AlgorithmPreload:
		return checkPreload(beforePath, storagePath, afterPath)
	case AlgorithmSortMerge:
		return checkSortMerge(beforePath, storagePath, afterPath)
	default:
		return nil, fmt.Errorf("unknown consistency algorithm %q", algorithm)
	}
}

// checkStreaming accumulates tallies in a map keyed by the full
// identifier, one forward pass per dump.
func checkStreaming(beforePath, storagePath, afterPath string) (*Report, error) {
	// Private to this call; tallies must never leak into another audit.
	tallies := make(map[string]uint8)

	// Pass 1: catalog-before. A duplicate identifier overwrites its
	// earlier tally; only the final recorded state of a snapshot counts.
	err := eachCatalogRecord(beforePath, func(rec dump.CatalogRecord) {
		tally := seenBefore
		if rec.Available {
			tally |= beforeAvailable
		}
		tallies[rec.Identifier] = tally
	})
	if err != nil {
		return nil, err
	}

	// Pass 2: storage listing. OR keeps duplicate lines idempotent; a
	// file listed twice is still one file.
	err = eachStorageIdentifier(storagePath, func(id string) {
		tallies[id] |= seenStorage
	})
	if err != nil {
		return nil, err
	}

	// Pass 3: catalog-after.
	err = eachCatalogRecord(afterPath, func(rec dump.CatalogRecord) {
		tally := tallies[rec.Identifier] | seenAfter
		if rec.Available {
			tally |= afterAvailable
		}
		tallies[rec.Identifier] = tally
	})
	if err != nil {
		return nil, err
	}

	return classify(tallies), nil
}

// classify derives the report from the final tallies and discards them.
func classify(tallies map[string]uint8) *Report {
	report := &Report{}
	for id, tally := range tallies {
		switch tally {
		case tallyDark:
			report.Dark = append(report.Dark, id)
		case tallyMissing:
			report.Missing = append(report.Missing, id)
		}
	}
	sort.Strings(report.Dark)
	sort.Strings(report.Missing)
	return report
}

// eachCatalogRecord streams a catalog dump through apply.
func eachCatalogRecord(path string, apply func(dump.CatalogRecord)) error {
	cs, err := dump.OpenCatalogDump(path)
	if err != nil {
		return err
	}
	defer cs.Close()
	for cs.Scan() {
		apply(cs.Record())
	}
	return cs.Err()
}

// eachStorageIdentifier streams a storage dump through apply.
func eachStorageIdentifier(path string, apply func(string)) error {
	ss, err := dump.OpenStorageDump(path)
	if err != nil {
		return err
	}
	defer ss.Close()
	for ss.Scan() {
		apply(ss.Identifier())
	}
	return ss.Err()
}
