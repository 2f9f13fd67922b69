package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/combat"
)

// ErrRunNotFound is returned when a run lookup yields no results.
var ErrRunNotFound = errors.New("run not found")

// ErrRunExists is returned when saving a run whose ID is already stored.
var ErrRunExists = errors.New("run already exists")

// RunRecord is one stored simulation run: the headline numbers as columns
// and the full raw result as JSONB.
type RunRecord struct {
	ID        uuid.UUID
	Target    string
	Tier      int
	Mode      combat.Mode
	Seed      uint64
	Hours     float64
	Cancelled bool
	PartySize int

	EncountersPerHour float64
	ExperiencePerHour float64
	ProfitPerHour     float64

	Result    *combat.Result
	CreatedAt time.Time
}

// NewRunRecord builds the record for r using its summary s.
//
// Precondition: r is non-nil and s was produced by r.Summarize.
// Postcondition: per-player rates in s are summed across the party.
func NewRunRecord(r *combat.Result, s combat.Summary) RunRecord {
	rec := RunRecord{
		ID:                r.RunID,
		Target:            r.Target,
		Tier:              r.Tier,
		Mode:              r.Mode,
		Seed:              r.Seed,
		Hours:             s.Hours,
		Cancelled:         r.Cancelled,
		PartySize:         len(r.Players),
		EncountersPerHour: s.EncountersPerHour,
		Result:            r,
	}
	for _, p := range s.Players {
		rec.ExperiencePerHour += p.TotalExperiencePerHour
		rec.ProfitPerHour += p.ProfitPerHour
	}
	return rec
}

// RunRepository provides run-history persistence operations.
type RunRepository struct {
	db *pgxpool.Pool
}

// NewRunRepository creates a RunRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRunRepository(db *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: db}
}

// Save inserts rec and returns it with CreatedAt set.
//
// Precondition: rec.ID is non-zero and rec.Result is non-nil.
// Postcondition: Returns ErrRunExists when rec.ID is already stored.
func (r *RunRepository) Save(ctx context.Context, rec RunRecord) (RunRecord, error) {
	if rec.Result == nil {
		return RunRecord{}, fmt.Errorf("saving run %s: nil result", rec.ID)
	}
	// BIGINT is signed; the cast round-trips every uint64 seed bit for bit.
	err := r.db.QueryRow(ctx, `
		INSERT INTO simulation_runs
			(id, target, tier, mode, seed, hours, cancelled, party_size,
			 encounters_per_hour, experience_per_hour, profit_per_hour, result)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at`,
		rec.ID, rec.Target, rec.Tier, string(rec.Mode), int64(rec.Seed), rec.Hours, rec.Cancelled,
		rec.PartySize, rec.EncountersPerHour, rec.ExperiencePerHour, rec.ProfitPerHour, rec.Result,
	).Scan(&rec.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return RunRecord{}, ErrRunExists
		}
		return RunRecord{}, fmt.Errorf("inserting run: %w", err)
	}
	return rec, nil
}

const runColumns = `id, target, tier, mode, seed, hours, cancelled, party_size,
	encounters_per_hour, experience_per_hour, profit_per_hour, created_at`

// Get retrieves a run with its full result.
//
// Postcondition: Returns ErrRunNotFound if no run has the given id.
func (r *RunRepository) Get(ctx context.Context, id uuid.UUID) (RunRecord, error) {
	var (
		rec    RunRecord
		result combat.Result
	)
	row := r.db.QueryRow(ctx, `SELECT `+runColumns+`, result FROM simulation_runs WHERE id = $1`, id)
	err := scanRun(row, &rec, &result)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RunRecord{}, ErrRunNotFound
		}
		return RunRecord{}, fmt.Errorf("querying run: %w", err)
	}
	rec.Result = &result
	return rec, nil
}

// ListRecent returns up to limit runs, newest first, without their raw
// results.
//
// Precondition: limit > 0.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("listing runs: limit must be > 0, got %d", limit)
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+runColumns+` FROM simulation_runs ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := scanRun(rows, &rec, nil); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return out, nil
}

// scanRun reads runColumns, plus the result column when result is non-nil.
func scanRun(row pgx.Row, rec *RunRecord, result *combat.Result) error {
	var (
		mode string
		seed int64
	)
	dest := []any{
		&rec.ID, &rec.Target, &rec.Tier, &mode, &seed, &rec.Hours, &rec.Cancelled, &rec.PartySize,
		&rec.EncountersPerHour, &rec.ExperiencePerHour, &rec.ProfitPerHour, &rec.CreatedAt,
	}
	if result != nil {
		dest = append(dest, result)
	}
	if err := row.Scan(dest...); err != nil {
		return err
	}
	rec.Mode = combat.Mode(mode)
	rec.Seed = uint64(seed)
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
