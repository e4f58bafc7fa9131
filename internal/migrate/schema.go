package migrate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthlab/patientmigrate/internal/db"
)

// PrepareSchema creates the lab5 schema if absent and, when createTables is
// set, the destination tables as well. Safe to repeat.
func PrepareSchema(ctx context.Context, dst db.Execer, log zerolog.Logger, createTables bool) (time.Duration, error) {
	start := time.Now()

	if err := db.EnsureSchema(ctx, dst); err != nil {
		return 0, err
	}
	if createTables {
		if err := db.ApplyMigrations(ctx, dst, log); err != nil {
			return 0, err
		}
	}

	dur := time.Since(start)
	log.Info().Dur("duration", dur).Msg("destination schema ready")
	return dur, nil
}
