package surgery

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, account_id, procedure_code, procedure_display, status, scheduled_date,
	performed_at, surgeon_name, facility_name, facility_phone, facility_phone_country,
	laterality, note, created_at, updated_at`

func (r *recordRepoPG) scanRecord(row pgx.Row) (*SurgeryRecord, error) {
	var s SurgeryRecord
	err := row.Scan(&s.ID, &s.AccountID, &s.ProcedureCode, &s.ProcedureDisplay, &s.Status, &s.ScheduledDate,
		&s.PerformedAt, &s.SurgeonName, &s.FacilityName, &s.FacilityPhone, &s.FacilityPhoneCountry,
		&s.Laterality, &s.Note, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("surgery record: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *recordRepoPG) Create(ctx context.Context, s *SurgeryRecord) error {
	s.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO surgery_record (id, account_id, procedure_code, procedure_display, status,
			scheduled_date, performed_at, surgeon_name, facility_name, facility_phone,
			facility_phone_country, laterality, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		s.ID, s.AccountID, s.ProcedureCode, s.ProcedureDisplay, s.Status,
		s.ScheduledDate, s.PerformedAt, s.SurgeonName, s.FacilityName, s.FacilityPhone,
		s.FacilityPhoneCountry, s.Laterality, s.Note).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*SurgeryRecord, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM surgery_record WHERE id = $1`, id))
}

func (r *recordRepoPG) Update(ctx context.Context, s *SurgeryRecord) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE surgery_record SET procedure_code=$2, procedure_display=$3, status=$4, scheduled_date=$5,
			performed_at=$6, surgeon_name=$7, facility_name=$8, facility_phone=$9,
			facility_phone_country=$10, laterality=$11, note=$12, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.ProcedureCode, s.ProcedureDisplay, s.Status, s.ScheduledDate,
		s.PerformedAt, s.SurgeonName, s.FacilityName, s.FacilityPhone,
		s.FacilityPhoneCountry, s.Laterality, s.Note).Scan(&s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("surgery record: %w", apperr.ErrNotFound)
	}
	return err
}

func (r *recordRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM surgery_record WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("surgery record: %w", apperr.ErrNotFound)
	}
	return nil
}

func (r *recordRepoPG) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*SurgeryRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM surgery_record WHERE account_id = $1`, accountID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+recordCols+` FROM surgery_record WHERE account_id = $1
		ORDER BY scheduled_date DESC NULLS LAST, created_at DESC LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*SurgeryRecord
	for rows.Next() {
		s, err := r.scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// -- Procedures --

func (r *recordRepoPG) AddProcedure(ctx context.Context, p *SurgeryProcedure) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO surgery_procedure (id, surgery_id, code, display, body_site, is_primary, sequence)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.SurgeryID, p.Code, p.Display, p.BodySite, p.IsPrimary, p.Sequence)
	return err
}

func (r *recordRepoPG) GetProcedures(ctx context.Context, surgeryID uuid.UUID) ([]*SurgeryProcedure, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, surgery_id, code, display, body_site, is_primary, sequence
		FROM surgery_procedure WHERE surgery_id = $1 ORDER BY sequence`, surgeryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*SurgeryProcedure
	for rows.Next() {
		var p SurgeryProcedure
		if err := rows.Scan(&p.ID, &p.SurgeryID, &p.Code, &p.Display, &p.BodySite, &p.IsPrimary, &p.Sequence); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}

func (r *recordRepoPG) RemoveProcedure(ctx context.Context, surgeryID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM surgery_procedure WHERE id = $1 AND surgery_id = $2`, id, surgeryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("surgery procedure: %w", apperr.ErrNotFound)
	}
	return nil
}
