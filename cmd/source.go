package cmd

import (
	"context"
	"fmt"

	"rse-auditor/core/auditor"
	"rse-auditor/core/config"
	"rse-auditor/core/storage"
)

// newDumpSource builds the configured dump acquisition strategy.
func newDumpSource(ctx context.Context, cfg *config.Config) (auditor.DumpSource, error) {
	switch cfg.Auditor.Source {
	case auditor.SourceLocal:
		return auditor.NewLocalSource(cfg.Auditor.DumpsDir, cfg.Auditor.CacheDir), nil
	case auditor.SourceObject:
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return auditor.NewObjectSource(ctx, client, cfg.Storage.Bucket,
			cfg.Auditor.DumpsPrefix, cfg.Auditor.CacheDir)
	default:
		return nil, fmt.Errorf("unknown dump source %q", cfg.Auditor.Source)
	}
}
