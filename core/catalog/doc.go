// Package catalog applies the outcome of a consistency check to the
// replica catalog database.
//
// DARK files are inserted into the quarantined-replicas table so the
// cleanup machinery may delete them; MISSING files are declared as
// suspicious bad replicas so they can be re-checked or re-replicated.
// The package also exposes the per-RSE usage counters the auditor needs
// for its sanity threshold.
//
// Writes go through gorm in fixed-size batches; the schema is owned by
// AutoMigrate (see Store.Migrate).
package catalog
