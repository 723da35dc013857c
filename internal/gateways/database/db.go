package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/lovequest/questsync/internal/domain/identity"
	"github.com/lovequest/questsync/internal/domain/ledger"
	"github.com/lovequest/questsync/internal/domain/quests"
	"github.com/lovequest/questsync/internal/domain/txn"
	"github.com/lovequest/questsync/internal/domain/unlocks"
	"github.com/lovequest/questsync/internal/gateways/database/repositories"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	Driver string `toml:"driver"`
	// Path is the SQLite file, or ":memory:".
	Path         string `toml:"path"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	SSLMode      string `toml:"ssl_mode"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
	SlowQueryMS  int    `toml:"slow_query_ms"`
	LogQueries   bool   `toml:"log_queries"`
}

// DB is the local state store backed by bun. On device it runs on SQLite;
// a Postgres mirror uses the same schema.
type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB

	quests   quests.Repository
	ledger   ledger.Repository
	identity identity.Repository
	unlocks  unlocks.Repository
}

var _ txn.Transactor = (*DB)(nil)

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	db := &DB{}
	switch cfg.Driver {
	case "", DriverSQLite:
		bunDB, err := openSQLite(cfg)
		if err != nil {
			return nil, err
		}
		db.bunDB = bunDB
	case DriverPostgres:
		pool, err := openPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		db.pool = pool
		db.bunDB = newBunDB(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if cfg.LogQueries || cfg.SlowQueryMS > 0 {
		db.bunDB.AddQueryHook(NewQueryHook(time.Duration(cfg.SlowQueryMS) * time.Millisecond))
	}

	db.quests = repositories.NewQuestRepository(db.bunDB)
	db.ledger = repositories.NewLedgerRepository(db.bunDB)
	db.identity = repositories.NewCoupleRepository(db.bunDB)
	db.unlocks = repositories.NewUnlockRepository(db.bunDB)
	return db, nil
}

func openSQLite(cfg DBConfig) (*bun.DB, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// one connection keeps an in-memory database alive and serialises writers
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)
	sqldb.SetConnMaxIdleTime(0)

	if _, err := sqldb.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func openPool(ctx context.Context, cfg DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	for i := 0; i < defaultMaxRetries; i++ {
		if err = pool.Ping(ctx); err == nil {
			return pool, nil
		}
		slog.Warn("Database not reachable yet",
			slog.String("type", "db"),
			slog.Int("attempt", i+1),
			slog.Any("error", err))
		time.Sleep(defaultRetryInterval)
	}
	pool.Close()
	return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
}

func buildConnString(cfg DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, sslMode,
	)
}

func newBunDB(cfg DBConfig) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(buildConnString(cfg))))
	if cfg.PoolSize > 0 {
		sqldb.SetMaxOpenConns(cfg.PoolSize)
	}
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

type Health struct {
	Driver    string
	Latency   time.Duration
	OpenConns int
	IdleConns int
	MaxConns  int
}

// Health runs a round trip against the store and reports connection usage.
// Postgres is checked through the pgx pool, SQLite through database/sql.
func (db *DB) Health(ctx context.Context) (Health, error) {
	start := time.Now()
	if db.pool != nil {
		var one int
		if err := db.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
			return Health{}, fmt.Errorf("health check failed: %w", err)
		}
		st := db.pool.Stat()
		return Health{
			Driver:    DriverPostgres,
			Latency:   time.Since(start),
			OpenConns: int(st.TotalConns()),
			IdleConns: int(st.IdleConns()),
			MaxConns:  int(st.MaxConns()),
		}, nil
	}

	if err := db.bunDB.PingContext(ctx); err != nil {
		return Health{}, fmt.Errorf("health check failed: %w", err)
	}
	st := db.bunDB.DB.Stats()
	return Health{
		Driver:    DriverSQLite,
		Latency:   time.Since(start),
		OpenConns: st.OpenConnections,
		IdleConns: st.Idle,
		MaxConns:  st.MaxOpenConnections,
	}, nil
}

func (db *DB) Quests() quests.Repository     { return db.quests }
func (db *DB) Ledger() ledger.Repository     { return db.ledger }
func (db *DB) Identity() identity.Repository { return db.identity }
func (db *DB) Unlocks() unlocks.Repository   { return db.unlocks }

// Atomic runs fn in a bun transaction. Nested calls join the running one.
func (db *DB) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txn.From(ctx).(bun.Tx); ok {
		return fn(ctx)
	}

	var hooks *txn.Hooks
	err := db.bunDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		txCtx, h := txn.WithTx(ctx, tx)
		hooks = h
		return fn(txCtx)
	})
	if err != nil {
		return err
	}
	hooks.Run(ctx)
	return nil
}

func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		return db.bunDB.Close()
	}
	return nil
}
