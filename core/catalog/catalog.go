package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// insertBatchSize bounds one INSERT statement; large audits can declare
// hundreds of thousands of replicas.
const insertBatchSize = 1000

// Replica identifies one file within the catalog.
type Replica struct {
	Scope string
	Name  string
	Path  string
}

// Usage is the inventory snapshot for one RSE.
type Usage struct {
	Files int64
	Bytes int64
}

// Catalog is the replica-catalog capability the auditor consumes after
// classification.
type Catalog interface {
	// AddQuarantinedReplicas queues DARK files for deletion.
	AddQuarantinedReplicas(ctx context.Context, rse string, replicas []Replica) error
	// DeclareBadReplicas marks MISSING files as suspicious.
	DeclareBadReplicas(ctx context.Context, rse string, replicas []Replica, reason string) error
	// RSEUsage returns the endpoint's inventory counters.
	RSEUsage(ctx context.Context, rse string) (Usage, error)
}

// Store is the gorm-backed Catalog implementation.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an established database connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the tables this package owns.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&QuarantinedReplica{}, &BadReplica{}, &RSEUsage{}); err != nil {
		return fmt.Errorf("migrate catalog schema: %w", err)
	}
	return nil
}

// AddQuarantinedReplicas inserts DARK files in batches.
func (s *Store) AddQuarantinedReplicas(ctx context.Context, rse string, replicas []Replica) error {
	if len(replicas) == 0 {
		return nil
	}
	rows := make([]QuarantinedReplica, 0, len(replicas))
	for _, r := range replicas {
		rows = append(rows, QuarantinedReplica{
			RSE:   rse,
			Scope: r.Scope,
			Name:  r.Name,
			Path:  r.Path,
		})
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("quarantine replicas for %s: %w", rse, err)
	}
	return nil
}

// DeclareBadReplicas inserts MISSING files as suspicious in batches.
func (s *Store) DeclareBadReplicas(ctx context.Context, rse string, replicas []Replica, reason string) error {
	if len(replicas) == 0 {
		return nil
	}
	rows := make([]BadReplica, 0, len(replicas))
	for _, r := range replicas {
		rows = append(rows, BadReplica{
			RSE:    rse,
			Scope:  r.Scope,
			Name:   r.Name,
			Reason: reason,
			State:  StateSuspicious,
		})
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("declare bad replicas for %s: %w", rse, err)
	}
	return nil
}

// RSEUsage fetches the usage counters for one endpoint.
func (s *Store) RSEUsage(ctx context.Context, rse string) (Usage, error) {
	var row RSEUsage
	err := s.db.WithContext(ctx).Where("rse = ?", rse).First(&row).Error
	if err != nil {
		return Usage{}, fmt.Errorf("usage for %s: %w", rse, err)
	}
	return Usage{Files: row.Files, Bytes: row.Bytes}, nil
}

// GuessReplicaInfo extracts the catalog scope and file name from a replica
// path. A single component has no scope; user and group scopes span the
// first two components, dot-joined; otherwise the first component is the
// scope. The name is always the last component.
func GuessReplicaInfo(path string) (scope, name string) {
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		return "", path
	case len(parts) > 2 && (parts[0] == "user" || parts[0] == "group"):
		return parts[0] + "." + parts[1], parts[len(parts)-1]
	default:
		return parts[0], parts[len(parts)-1]
	}
}
