package schools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flightmatch/internal/logging"
)

type BatchPutter interface {
	PutBatch(ctx context.Context, schools []School) (BatchResult, error)
}

type MigrationSummary struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

type MigrateOptions struct {
	// DryRun transforms every record without writing anything.
	DryRun bool
	Now    func() time.Time
}

// Migrate transforms the exported records and writes them through dst. A
// record that cannot be transformed is logged and counted as failed; a write
// error aborts the migration.
func Migrate(ctx context.Context, dst BatchPutter, records []json.RawMessage, log *logging.Logger, opts MigrateOptions) (MigrationSummary, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	summary := MigrationSummary{Total: len(records)}
	batch := make([]School, 0, len(records))
	for i, raw := range records {
		school, err := Transform(raw, now())
		if err != nil {
			summary.Failed++
			log.Warn("Failed to transform school", logging.Fields{"index": i, "reason": err.Error()})
			continue
		}
		log.Debug("Transformed school", logging.Fields{"schoolId": school.SchoolID, "name": school.Name})
		batch = append(batch, school)
	}

	if opts.DryRun {
		summary.Successful = len(batch)
		log.Info("Dry run complete", logging.Fields{"successful": summary.Successful, "failed": summary.Failed, "total": summary.Total})
		return summary, nil
	}

	res, err := dst.PutBatch(ctx, batch)
	summary.Successful = res.Written
	summary.Failed += res.Unprocessed
	if err != nil {
		return summary, fmt.Errorf("write schools: %w", err)
	}

	log.Info("Migration complete", logging.Fields{"successful": summary.Successful, "failed": summary.Failed, "total": summary.Total})
	return summary, nil
}
