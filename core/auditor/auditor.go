package auditor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"rse-auditor/core/catalog"
	"rse-auditor/core/consistency"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// badReplicaReason is recorded with every MISSING declaration.
const badReplicaReason = "Reported by Auditor"

// Auditor runs consistency audits. All run state is per-call; one Auditor
// may serve many goroutines.
type Auditor struct {
	source  DumpSource
	catalog catalog.Catalog // nil disables declaration
	cfg     Config
	logger  *zap.Logger
}

// New creates an Auditor. A nil catalog (or cfg.NoDeclaration) turns the
// run into a pure detection pass with no catalog side effects.
func New(source DumpSource, cat catalog.Catalog, cfg Config, logger *zap.Logger) *Auditor {
	return &Auditor{source: source, catalog: cat, cfg: cfg, logger: logger}
}

// Audit performs one consistency audit for an RSE and returns the path to
// the final (compressed) result file. A zero date means "now".
func (a *Auditor) Audit(ctx context.Context, rse string, date time.Time) (string, error) {
	if date.IsZero() {
		date = time.Now()
	}
	log := a.logger.With(zap.String("rse", rse))

	storagePath, dumpDate, err := a.source.StorageDump(ctx, rse, date)
	if err != nil {
		return "", err
	}
	delta := time.Duration(a.cfg.Delta) * 24 * time.Hour
	beforePath, err := a.source.ReplicaDump(ctx, rse, dumpDate.Add(-delta))
	if err != nil {
		return "", err
	}
	afterPath, err := a.source.ReplicaDump(ctx, rse, dumpDate.Add(delta))
	if err != nil {
		return "", err
	}
	if !a.cfg.KeepDumps {
		defer removeCachedDumps(log, beforePath, storagePath, afterPath)
	}

	resultPath := filepath.Join(a.cfg.ResultsDir,
		fmt.Sprintf("result.%s_%s", rse, dumpDate.Format("20060102")))

	if existing, done := resultExists(resultPath); done {
		log.Warn("Consistency check already done, skipping",
			zap.String("dump_date", dumpDate.Format("2006-01-02")),
			zap.String("result", existing))
		return existing, nil
	}
	if err := os.MkdirAll(a.cfg.ResultsDir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	log.Info("Running consistency check",
		zap.String("algorithm", a.cfg.Algorithm),
		zap.String("dump_date", dumpDate.Format("2006-01-02")))

	report, err := consistency.Check(consistency.Algorithm(a.cfg.Algorithm),
		beforePath, storagePath, afterPath)
	if err != nil {
		return "", fmt.Errorf("consistency check for %s: %w", rse, err)
	}

	log.Info("Consistency check finished",
		zap.Int("dark", len(report.Dark)),
		zap.Int("missing", len(report.Missing)))

	if err := consistency.WriteReport(report, resultPath); err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if a.catalog != nil && !a.cfg.NoDeclaration {
		if err := a.declare(ctx, rse, report); err != nil {
			return "", err
		}
	} else {
		log.Warn("No action on output performed")
	}

	return compressResult(resultPath)
}

// AuditAll audits the given RSEs with bounded parallelism. Failures are
// isolated per endpoint; the return value is the number of failed audits.
func (a *Auditor) AuditAll(ctx context.Context, rses []string, date time.Time) int {
	workers := a.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	var failed atomic.Int64
	group := new(errgroup.Group)
	group.SetLimit(workers)

	for _, rse := range rses {
		group.Go(func() error {
			path, err := a.Audit(ctx, rse, date)
			if err != nil {
				failed.Add(1)
				a.logger.Error("Audit failed", zap.String("rse", rse), zap.Error(err))
				return nil
			}
			a.logger.Info("Audit complete", zap.String("rse", rse), zap.String("result", path))
			return nil
		})
	}
	group.Wait()

	return int(failed.Load())
}

// declare applies the report to the catalog, guarded by the sanity
// threshold: when an anomaly class exceeds the configured fraction of the
// endpoint's file count the dump is most likely broken and nothing is
// declared.
func (a *Auditor) declare(ctx context.Context, rse string, report *consistency.Report) error {
	usage, err := a.catalog.RSEUsage(ctx, rse)
	if err != nil {
		return err
	}

	limit := a.cfg.Threshold * float64(usage.Files)
	if float64(len(report.Dark)) > limit {
		return fmt.Errorf("sanity check failed for %s: %d DARK files exceed threshold %.0f",
			rse, len(report.Dark), limit)
	}
	if float64(len(report.Missing)) > limit {
		return fmt.Errorf("sanity check failed for %s: %d MISSING files exceed threshold %.0f",
			rse, len(report.Missing), limit)
	}

	if err := a.catalog.AddQuarantinedReplicas(ctx, rse, toReplicas(report.Dark)); err != nil {
		return err
	}
	if err := a.catalog.DeclareBadReplicas(ctx, rse, toReplicas(report.Missing), badReplicaReason); err != nil {
		return err
	}
	return nil
}

func toReplicas(ids []string) []catalog.Replica {
	replicas := make([]catalog.Replica, 0, len(ids))
	for _, id := range ids {
		scope, name := catalog.GuessReplicaInfo(id)
		replicas = append(replicas, catalog.Replica{Scope: scope, Name: name, Path: id})
	}
	return replicas
}

// resultExists reports whether a plain or compressed result is already in
// place, returning the path that exists.
func resultExists(resultPath string) (string, bool) {
	if _, err := os.Stat(resultPath + ".gz"); err == nil {
		return resultPath + ".gz", true
	}
	if _, err := os.Stat(resultPath); err == nil {
		return resultPath, true
	}
	return "", false
}

// compressResult gzips the result file next to itself and removes the
// plain one, returning the compressed path.
func compressResult(resultPath string) (string, error) {
	in, err := os.Open(resultPath)
	if err != nil {
		return "", fmt.Errorf("open result for compression: %w", err)
	}
	defer in.Close()

	finalPath := resultPath + ".gz"
	out, err := os.Create(finalPath)
	if err != nil {
		return "", fmt.Errorf("create compressed result: %w", err)
	}

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		out.Close()
		os.Remove(finalPath)
		return "", fmt.Errorf("compress result %s: %w", resultPath, err)
	}
	if err := gz.Close(); err != nil {
		out.Close()
		os.Remove(finalPath)
		return "", fmt.Errorf("compress result %s: %w", resultPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(finalPath)
		return "", fmt.Errorf("compress result %s: %w", resultPath, err)
	}

	if err := os.Remove(resultPath); err != nil {
		return "", fmt.Errorf("remove plain result %s: %w", resultPath, err)
	}
	return finalPath, nil
}

func removeCachedDumps(log *zap.Logger, paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to remove cached dump", zap.String("path", path), zap.Error(err))
		}
	}
}
