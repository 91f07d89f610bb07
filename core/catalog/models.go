package catalog

import "time"

// QuarantinedReplica is a DARK file queued for deletion from storage.
type QuarantinedReplica struct {
	ID        uint   `gorm:"primaryKey"`
	RSE       string `gorm:"column:rse;size:255;index"`
	Scope     string `gorm:"size:255"`
	Name      string `gorm:"size:255"`
	Path      string `gorm:"size:1024"`
	CreatedAt time.Time
}

// BadReplica is a MISSING file declared for follow-up.
type BadReplica struct {
	ID        uint   `gorm:"primaryKey"`
	RSE       string `gorm:"column:rse;size:255;index"`
	Scope     string `gorm:"size:255"`
	Name      string `gorm:"size:255"`
	Reason    string `gorm:"size:255"`
	State     string `gorm:"size:32"`
	CreatedAt time.Time
}

// RSEUsage holds per-endpoint inventory counters maintained by the
// accounting machinery; the auditor only reads them.
type RSEUsage struct {
	RSE       string `gorm:"column:rse;primaryKey;size:255"`
	Files     int64
	Bytes     int64
	UpdatedAt time.Time
}

// TableName keeps the singular table name used by the accounting side.
func (RSEUsage) TableName() string {
	return "rse_usage"
}

// StateSuspicious is the state bad replicas are declared with; a later
// verification pass promotes or clears them.
const StateSuspicious = "SUSPICIOUS"
