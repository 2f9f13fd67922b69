// Package postgres stores simulation run history in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/config"
)

// ApplicationName is reported to the server as the connection's application_name.
const ApplicationName = "mwisim"

// connectTimeout bounds the initial ping so a missing database fails fast
// instead of holding up a finished simulation.
const connectTimeout = 10 * time.Second

// Pool owns the run-history connection pool.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the run-history database.
//
// Precondition: cfg passes config validation with Enabled set.
// Postcondition: Returns a Pool whose database answered a ping, or a non-nil
// error. The caller must Close the pool.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	p := &Pool{pool: pool}
	if err := p.Health(ctx, connectTimeout); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return p, nil
}

// Health pings the database, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Runs returns a RunRepository on this pool.
func (p *Pool) Runs() *RunRepository {
	return NewRunRepository(p.pool)
}

// Close releases all connections. The pool is unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
