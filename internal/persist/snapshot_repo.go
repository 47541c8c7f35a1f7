package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save writes rows as a new snapshot in a single transaction.
func (r *SnapshotRepo) Save(ctx context.Context, rows []EntityRow) (uuid.UUID, error) {
	id := uuid.New()

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO snapshots (id, entities) VALUES ($1, $2)`,
		id, len(rows),
	); err != nil {
		return uuid.Nil, fmt.Errorf("snapshot insert: %w", err)
	}

	batch := &pgx.Batch{}
	for seq, row := range rows {
		batch.Queue(
			`INSERT INTO snapshot_entities (snapshot_id, seq, entity_id, template, x, y, refresh_layer, display_layer)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, seq, row.ID, row.Template, row.X, row.Y, row.Refresh, row.Display,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return uuid.Nil, fmt.Errorf("snapshot entities: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("snapshot commit: %w", err)
	}
	r.db.log.Info("snapshot saved",
		zap.String("id", id.String()),
		zap.Int("entities", len(rows)),
	)
	return id, nil
}

// LoadLatest returns the rows of the most recent snapshot, or uuid.Nil and no
// rows when nothing was saved yet.
func (r *SnapshotRepo) LoadLatest(ctx context.Context) (uuid.UUID, []EntityRow, error) {
	var id uuid.UUID
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id FROM snapshots ORDER BY created_at DESC LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, nil, nil
	}
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("latest snapshot: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT entity_id, template, x, y, refresh_layer, display_layer
		 FROM snapshot_entities WHERE snapshot_id = $1 ORDER BY seq`, id,
	)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("snapshot entities: %w", err)
	}
	defer rows.Close()

	var result []EntityRow
	for rows.Next() {
		var e EntityRow
		if err := rows.Scan(&e.ID, &e.Template, &e.X, &e.Y, &e.Refresh, &e.Display); err != nil {
			return uuid.Nil, nil, err
		}
		result = append(result, e)
	}
	return id, result, rows.Err()
}
