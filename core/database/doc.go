// Package database handles the replica catalog database connection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to
// properly configure MySQL connections based on the application's
// configuration. The connection is optional: an auditor run without a
// reachable catalog database still detects anomalies, it just cannot
// declare them.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("catalog database unavailable", err)
//	}
package database
