// Package dump reads point-in-time inventory dumps as lazy line streams.
//
// Two dump flavors exist:
//
//   - Storage dumps (RSE dumps): one file identifier per line.
//   - Replica catalog dumps: whitespace-separated records where the 8th
//     field is the file identifier and the 11th field is a one-character
//     availability status ('A' means available).
//
// Dumps are frequently multi-gigabyte, so every reader in this package
// streams: one open handle, a bounded line buffer, never the whole file.
// Compression is selected by file extension; plain text, bzip2 and gzip
// are supported.
//
// # Identifier Hygiene
//
// Identifiers are compared byte-for-byte downstream. The scanners strip
// exactly the trailing line terminator (\n or \r\n) and nothing else; no
// case folding, no inner-whitespace trimming. Keeping that contract here
// is what lets the consistency engine treat identifiers as opaque keys.
//
// # Errors
//
// Failures are typed so callers can distinguish them:
//
//   - NotFoundError: the dump path cannot be opened.
//   - UnsupportedCompressionError: the extension names a compression
//     format this package does not decode.
//   - MalformedLineError: a catalog line has fewer fields than the record
//     layout requires. Malformed lines are never skipped; a silently
//     dropped line can hide a real anomaly or fabricate one.
package dump
