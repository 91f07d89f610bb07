// Package auditor orchestrates consistency audits of storage endpoints.
//
// One audit run fetches three dumps for an RSE (a catalog snapshot from
// before the storage listing, the listing itself, and a snapshot from
// after), hands them to the consistency engine, writes the result file,
// and applies the catalog side effects: DARK files are quarantined and
// MISSING files declared bad, guarded by a sanity threshold against the
// endpoint's total file count so a broken dump cannot flood the catalog.
//
// # Dump Sources
//
// Dump acquisition is a strategy behind the DumpSource interface, so the
// same run logic serves sites that publish dumps to a listable directory
// (LocalSource) and sites that publish to an object store (ObjectSource).
// Sources cache fetched dumps under distinct names in the cache directory;
// the auditor removes them after the run unless configured to keep them.
//
// # Concurrency
//
// Audit is safe to call concurrently: each run owns all of its state.
// AuditAll fans out over RSEs with a bounded worker count, and one
// endpoint's failure never stops the others.
package auditor
