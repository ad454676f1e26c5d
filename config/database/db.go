package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"homestead/config"
	"homestead/pkg/logger"

	_ "github.com/lib/pq"
	"golang.org/x/sync/semaphore"
)

var ErrPoolExhausted = errors.New("database pool exhausted")

// Pool bounds how many requests may hold a store connection at once.
// Callers block in Acquire until a slot frees or the acquire timeout
// elapses, and must call the returned release func on every exit path.
type Pool struct {
	DB             *sql.DB
	slots          *semaphore.Weighted
	acquireTimeout time.Duration
	queryTimeout   time.Duration
}

func NewPool(db *sql.DB, size int64, acquireTimeout, queryTimeout time.Duration) *Pool {
	return &Pool{
		DB:             db,
		slots:          semaphore.NewWeighted(size),
		acquireTimeout: acquireTimeout,
		queryTimeout:   queryTimeout,
	}
}

// Acquire reserves a slot. The returned context carries the query timeout
// and is cancelled by release.
func (p *Pool) Acquire(ctx context.Context) (context.Context, func(), error) {
	acquireCtx, cancelAcquire := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancelAcquire()

	if err := p.slots.Acquire(acquireCtx, 1); err != nil {
		return nil, func() {}, fmt.Errorf("%w: %v", ErrPoolExhausted, err)
	}

	queryCtx, cancel := ctx, context.CancelFunc(func() {})
	if p.queryTimeout > 0 {
		queryCtx, cancel = context.WithTimeout(ctx, p.queryTimeout)
	}
	release := func() {
		cancel()
		p.slots.Release(1)
	}
	return queryCtx, release, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	ctx, release, err := p.Acquire(ctx)
	defer release()
	if err != nil {
		return err
	}
	return p.DB.PingContext(ctx)
}

func (p *Pool) Close() error {
	return p.DB.Close()
}

// Connect opens the Postgres handle described by cfg and pings it with a
// few retries before handing it back.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	for i := 0; i < cfg.PingRetries; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return NewPool(db, int64(cfg.MaxOpenConns), cfg.AcquireTimeout, cfg.QueryTimeout), nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", cfg.PingInterval, err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(cfg.PingInterval):
		}
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", cfg.PingRetries, err)
}
