package access

import (
	"context"
	"errors"

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

type requestRepoPG struct{ pool *pgxpool.Pool }

func NewRequestRepoPG(pool *pgxpool.Pool) RequestRepository {
	return &requestRepoPG{pool: pool}
}

func (r *requestRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const requestCols = `id, patient_id, doctor_id, status, created_at, updated_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.PatientID, &req.DoctorID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepoPG) Upsert(ctx context.Context, patientID, doctorID uuid.UUID) (*Request, bool, error) {
	// A pending or approved row wins the conflict unchanged; denied and
	// revoked rows re-enter pending. xmax = 0 distinguishes insert from
	// update so callers can tell whether a fresh pending entry appeared.
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO access_requests (id, patient_id, doctor_id, status)
		VALUES ($1, $2, $3, 'pending')
		ON CONFLICT (patient_id, doctor_id) DO UPDATE
		SET status = CASE
			WHEN access_requests.status IN ('denied', 'revoked') THEN 'pending'
			ELSE access_requests.status
		END,
		updated_at = CASE
			WHEN access_requests.status IN ('denied', 'revoked') THEN now()
			ELSE access_requests.updated_at
		END
		RETURNING `+requestCols+`, (xmax = 0) AS inserted`,
		uuid.New(), patientID, doctorID)

	var req Request
	var inserted bool
	err := row.Scan(&req.ID, &req.PatientID, &req.DoctorID, &req.Status, &req.CreatedAt, &req.UpdatedAt, &inserted)
	if err != nil {
		return nil, false, err
	}
	return &req, inserted, nil
}

func (r *requestRepoPG) Get(ctx context.Context, patientID, doctorID uuid.UUID) (*Request, error) {
	req, err := scanRequest(r.conn(ctx).QueryRow(ctx, `
		SELECT `+requestCols+` FROM access_requests
		WHERE patient_id = $1 AND doctor_id = $2`, patientID, doctorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

func (r *requestRepoPG) GetForUpdate(ctx context.Context, patientID, doctorID uuid.UUID) (*Request, error) {
	req, err := scanRequest(r.conn(ctx).QueryRow(ctx, `
		SELECT `+requestCols+` FROM access_requests
		WHERE patient_id = $1 AND doctor_id = $2
		FOR UPDATE`, patientID, doctorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

func (r *requestRepoPG) ListPending(ctx context.Context, patientID uuid.UUID) ([]*Request, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+requestCols+` FROM access_requests
		WHERE patient_id = $1 AND status = 'pending'
		ORDER BY created_at ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, req)
	}
	return items, rows.Err()
}

func (r *requestRepoPG) SetStatus(ctx context.Context, patientID, doctorID uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE access_requests SET status = $3, updated_at = now()
		WHERE patient_id = $1 AND doctor_id = $2`, patientID, doctorID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

type grantRepoPG struct{ pool *pgxpool.Pool }

func NewGrantRepoPG(pool *pgxpool.Pool) GrantRepository {
	return &grantRepoPG{pool: pool}
}

func (r *grantRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *grantRepoPG) Exists(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM care_grants WHERE patient_id = $1 AND doctor_id = $2
		)`, patientID, doctorID).Scan(&exists)
	return exists, err
}

func (r *grantRepoPG) Create(ctx context.Context, patientID, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO care_grants (id, patient_id, doctor_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id, doctor_id) DO NOTHING`,
		uuid.New(), patientID, doctorID)
	return err
}

func (r *grantRepoPG) Delete(ctx context.Context, patientID, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM care_grants WHERE patient_id = $1 AND doctor_id = $2`,
		patientID, doctorID)
	return err
}

func (r *grantRepoPG) ListDoctors(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx, `
		SELECT doctor_id FROM care_grants
		WHERE patient_id = $1 ORDER BY approved_at ASC`, patientID)
}

func (r *grantRepoPG) ListPatients(ctx context.Context, doctorID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx, `
		SELECT patient_id FROM care_grants
		WHERE doctor_id = $1 ORDER BY approved_at ASC`, doctorID)
}

func (r *grantRepoPG) listIDs(ctx context.Context, sql string, arg uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
