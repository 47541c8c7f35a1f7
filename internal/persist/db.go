package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/lionforge/engine/internal/config"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// DB is the snapshot store: a pgx pool whose schema has been migrated to the
// latest version.
type DB struct {
	Pool    *pgxpool.Pool
	log     *zap.Logger
	version int64
}

// Open connects to the database, verifies the connection and applies pending
// snapshot migrations. Slow or failing queries are reported through log.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	poolCfg.MinConns = min(int32(cfg.MaxIdleConns), poolCfg.MaxConns)
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   queryLogger(log.Named("pgx")),
		LogLevel: tracelog.LogLevelWarn,
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	version, err := RunMigrations(ctx, pool, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("snapshot store ready",
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Int64("schema_version", version),
	)
	return &DB{Pool: pool, log: log, version: version}, nil
}

// SchemaVersion is the migration version the store was opened at.
func (db *DB) SchemaVersion() int64 { return db.version }

// Snapshots returns the repository over this store.
func (db *DB) Snapshots() *SnapshotRepo { return NewSnapshotRepo(db) }

func (db *DB) Close() {
	db.Pool.Close()
	db.log.Info("snapshot store closed")
}

// queryLogger forwards pgx trace events to log.
func queryLogger(log *zap.Logger) tracelog.LoggerFunc {
	return func(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		fields := make([]zap.Field, 0, len(data))
		for k, v := range data {
			fields = append(fields, zap.Any(k, v))
		}
		switch level {
		case tracelog.LogLevelError:
			log.Error(msg, fields...)
		case tracelog.LogLevelWarn:
			log.Warn(msg, fields...)
		case tracelog.LogLevelInfo:
			log.Info(msg, fields...)
		default:
			log.Debug(msg, fields...)
		}
	}
}
