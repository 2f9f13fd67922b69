package combat

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/character"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/encounter"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/gamedata"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/simerr"
)

// Job is one independent run in a batch.
type Job struct {
	Name      string
	Party     []character.PlayerConfig
	Encounter encounter.Config
}

// BatchResult pairs a job with its outcome. Err is the job's own failure;
// one failed job never stops the others.
type BatchResult struct {
	Job    Job
	Result *Result
	Err    error
}

// RunBatch runs jobs concurrently, at most workers at a time, each on its
// own Simulator built from catalog and opts.
//
// Precondition: workers >= 1; values below 1 run jobs one at a time.
// Postcondition: results are in job order. If ctx is cancelled the results
// gathered so far are returned with a CANCELLED error.
func RunBatch(ctx context.Context, catalog *gamedata.Catalog, jobs []Job, workers int, opts ...Option) ([]BatchResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, job := range jobs {
		g.Go(func() error {
			results[i].Job = job
			if err := gctx.Err(); err != nil {
				results[i].Err = simerr.Wrap(simerr.CodeCancelled, simerr.PhaseRun, job.Name, err)
				return nil
			}
			sim := New(catalog, opts...)
			res, err := sim.Run(gctx, job.Party, job.Encounter)
			results[i].Result = res
			results[i].Err = err
			if err != nil {
				sim.logger.Warn("batch job failed", zap.String("job", job.Name), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, simerr.Wrap(simerr.CodeCancelled, simerr.PhaseRun, "batch", err)
	}
	return results, nil
}
