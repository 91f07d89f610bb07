// Package audit exposes consistency audits over HTTP.
//
// It wraps the auditor behind a small run registry: POSTing a run starts
// an audit in the background (deduplicated per RSE, so a second trigger
// while one is in flight joins it instead of starting another), and the
// run's state, the produced result files, and their contents can be
// fetched back.
package audit
