// Package main provides the combat simulator command line tool. It runs one
// party against one or more encounters and prints the per-hour summary as YAML.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/config"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/character"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/combat"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/encounter"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/gamedata"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/observability"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/scripting"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/simerr"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/storage/postgres"
)

type flags struct {
	config     string
	party      string
	encounters []string
	data       string
	hours      float64
	seed       uint64
	mode       string
	persist    bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	var enc string
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "path to configuration file; empty uses defaults and MWISIM_ env vars")
	fs.StringVar(&f.party, "party", "", "path to the party YAML file")
	fs.StringVar(&enc, "encounter", "", "comma-separated encounter YAML files; more than one runs a batch")
	fs.StringVar(&f.data, "data", "", "game data directory (overrides data.dir)")
	fs.Float64Var(&f.hours, "hours", 0, "simulated hours (overrides the encounter file and simulation.hours)")
	fs.Uint64Var(&f.seed, "seed", 0, "stochastic seed (overrides simulation.seed)")
	fs.StringVar(&f.mode, "mode", "", "expected or stochastic (overrides simulation.mode)")
	fs.BoolVar(&f.persist, "persist", false, "store results in the run-history database")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	if f.party == "" || enc == "" {
		return flags{}, errors.New("-party and -encounter are required")
	}
	for _, p := range strings.Split(enc, ",") {
		if p = strings.TrimSpace(p); p != "" {
			f.encounters = append(f.encounters, p)
		}
	}
	return f, nil
}

// applyOverrides folds the command line into the loaded configuration.
func applyOverrides(cfg *config.Config, f flags) {
	if f.data != "" {
		cfg.Data.Dir = f.data
	}
	if f.seed != 0 {
		cfg.Simulation.Seed = f.seed
	}
	if f.mode != "" {
		cfg.Simulation.Mode = f.mode
	}
	if f.persist {
		cfg.Database.Enabled = true
	}
}

// resolveHours picks the simulated duration: the flag, then the encounter
// file, then the configured default.
func resolveHours(flagHours float64, enc encounter.Config, cfg config.SimulationConfig) float64 {
	switch {
	case flagHours > 0:
		return flagHours
	case enc.Hours > 0:
		return enc.Hours
	default:
		return cfg.Hours
	}
}

func scriptFactory(cfg config.SimulationConfig, logger *zap.Logger) combat.ScriptFactory {
	return func() (combat.ScriptEngine, error) {
		e, err := scripting.NewEvaluator(cfg.ScriptInstructionLimit, cfg.ScriptDir, logger)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

func simulatorOptions(cfg config.SimulationConfig, logger *zap.Logger) []combat.Option {
	return []combat.Option{
		combat.WithLogger(logger),
		combat.WithMode(combat.Mode(cfg.Mode)),
		combat.WithSeed(cfg.Seed),
		combat.WithTiming(cfg.RegenInterval, cfg.PlayerRespawnDelay, cfg.EncounterRespawnDelay),
		combat.WithScripts(scriptFactory(cfg, logger)),
	}
}

func main() {
	os.Exit(simulate(os.Args[1:]))
}

// simulate runs the tool and returns the process exit code. Returning instead
// of exiting lets the deferred logger flush run first.
func simulate(args []string) int {
	start := time.Now()

	f, err := parseFlags(args)
	if err != nil {
		log.Printf("parsing flags: %v", err)
		return 2
	}
	cfg, err := config.Load(f.config)
	if err != nil {
		log.Printf("loading config: %v", err)
		return 1
	}
	applyOverrides(&cfg, f)
	if err := cfg.Validate(); err != nil {
		log.Printf("validating config: %v", err)
		return 1
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Printf("initializing logger: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, f, os.Stdout, logger)
	if err != nil {
		logger.Error("simulation failed", zap.String("code", string(simerr.GetCode(err))), zap.Error(err))
	}
	logger.Info("done", zap.Duration("elapsed", time.Since(start)))
	return exitCode(err)
}

// exitCode maps a run error to the process exit code. Cancelled runs have
// already reported their partial results and exit cleanly.
func exitCode(err error) int {
	if err == nil || simerr.IsCode(err, simerr.CodeCancelled) {
		return 0
	}
	return 1
}

func run(ctx context.Context, cfg config.Config, f flags, out io.Writer, logger *zap.Logger) error {
	catalog, err := gamedata.LoadDirectory(cfg.Data.Dir, logger)
	if err != nil {
		return simerr.Wrap(simerr.CodeDataLoadFailed, simerr.PhaseLoad, cfg.Data.Dir, err)
	}
	party, err := character.LoadParty(f.party)
	if err != nil {
		return simerr.Wrap(simerr.CodeDataLoadFailed, simerr.PhaseLoad, f.party, err)
	}

	jobs := make([]combat.Job, 0, len(f.encounters))
	for _, path := range f.encounters {
		enc, err := encounter.LoadConfig(path)
		if err != nil {
			return simerr.Wrap(simerr.CodeDataLoadFailed, simerr.PhaseLoad, path, err)
		}
		enc.Hours = resolveHours(f.hours, enc, cfg.Simulation)
		jobs = append(jobs, combat.Job{Name: path, Party: party, Encounter: enc})
	}

	var repo *postgres.RunRepository
	if cfg.Database.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to run-history database: %w", err)
		}
		defer pool.Close()
		repo = pool.Runs()
	}

	if cfg.Simulation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Simulation.Timeout)
		defer cancel()
	}

	opts := simulatorOptions(cfg.Simulation, logger)
	var results []combat.BatchResult
	if len(jobs) == 1 {
		results = []combat.BatchResult{runOne(ctx, catalog, jobs[0], cfg.Simulation, opts, logger)}
	} else {
		results, err = combat.RunBatch(ctx, catalog, jobs, cfg.Batch.Workers, opts...)
		if err != nil && results == nil {
			return err
		}
	}

	enc := newReporter(out)
	var firstErr error
	for _, br := range results {
		if br.Result == nil {
			if firstErr == nil {
				firstErr = br.Err
			}
			logger.Error("job failed", zap.String("job", br.Job.Name), zap.Error(br.Err))
			continue
		}
		price := func(hrid string) float64 { return br.Job.Encounter.Price(hrid, catalog) }
		summary := br.Result.Summarize(price)
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		if repo != nil {
			// Persist partial results too; the record carries the cancelled flag.
			rec, err := repo.Save(context.WithoutCancel(ctx), postgres.NewRunRecord(br.Result, summary))
			if err != nil {
				return fmt.Errorf("saving run %s: %w", br.Result.RunID, err)
			}
			logger.Info("run saved", zap.String("run_id", rec.ID.String()), zap.Time("created_at", rec.CreatedAt))
		}
		if br.Err != nil && firstErr == nil {
			firstErr = br.Err
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing report: %w", err)
	}
	if firstErr == nil && err != nil {
		firstErr = err
	}
	return firstErr
}

// runOne runs a single job with progress reporting.
func runOne(ctx context.Context, catalog *gamedata.Catalog, job combat.Job, cfg config.SimulationConfig, opts []combat.Option, logger *zap.Logger) combat.BatchResult {
	sim := combat.New(catalog, opts...)

	progressCtx, stopProgress := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		observability.ReportProgress(progressCtx, logger, cfg.ProgressInterval, sim.Progress)
	}()

	res, err := sim.Run(ctx, job.Party, job.Encounter)
	stopProgress()
	<-done
	return combat.BatchResult{Job: job, Result: res, Err: err}
}

// newReporter returns one encoder for the whole run so that successive
// summaries are separated by "---" and form a single YAML stream.
func newReporter(out io.Writer) *yaml.Encoder {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	return enc
}
