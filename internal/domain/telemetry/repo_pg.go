package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthlink/healthlink/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const readingCols = `id, device_id, recorded_at, sampling_rate, samples, created_at`

func (r *repoPG) Create(ctx context.Context, reading *Reading) error {
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ecg_readings (id, device_id, recorded_at, sampling_rate, samples)
		VALUES ($1,$2,$3,$4,$5)`,
		reading.ID, reading.DeviceID, reading.RecordedAt, reading.SamplingRate, reading.Samples)
	return err
}

func (r *repoPG) ListByDevice(ctx context.Context, deviceID string, limit int) ([]*Reading, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+readingCols+` FROM ecg_readings
		WHERE device_id = $1 ORDER BY created_at DESC LIMIT $2`, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Reading
	for rows.Next() {
		var re Reading
		if err := rows.Scan(&re.ID, &re.DeviceID, &re.RecordedAt, &re.SamplingRate, &re.Samples, &re.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &re)
	}
	return items, rows.Err()
}
