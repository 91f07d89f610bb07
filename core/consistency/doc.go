// Package consistency implements the three-way dump reconciliation that
// classifies every file identifier on a storage endpoint as DARK, MISSING,
// or neither.
//
// The inputs are three dumps bracketing one point in time: a replica
// catalog snapshot taken before the storage listing, the storage listing
// itself, and a catalog snapshot taken after it. The two catalog snapshots
// filter out files that were mid-transition (being uploaded or deleted)
// when the storage listing ran.
//
// # Tally Encoding
//
// Each pass contributes a distinct bit to a per-identifier tally:
//
//	catalog-before seen       16
//	catalog-before available  +2
//	storage seen               8
//	catalog-after seen         4
//	catalog-after available   +1
//
// After all three passes a single integer comparison classifies every
// identifier: tally 8 is DARK (storage only), tally 23 is MISSING (present
// and available in both catalog snapshots, absent from storage). Every
// other value is a non-anomalous or ambiguous state and is dropped.
//
// # Variants
//
// Three interchangeable algorithms produce identical reports on
// well-formed input:
//
//   - AlgorithmStreaming (default): one forward pass per dump over a map
//     of tallies; auxiliary memory is proportional to the number of
//     distinct identifiers.
//   - AlgorithmPreload: parses both catalog dumps into memory before
//     touching the storage dump. Higher peak memory; kept for
//     compatibility and as a property-test oracle.
//   - AlgorithmSortMerge: a three-way merge walk over pre-sorted dumps
//     with O(1) auxiliary state, for catalogs whose distinct-key count
//     does not fit a hash table in memory.
//
// All state is private to one Check call; concurrent calls need no
// synchronization.
package consistency
