package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ops-desk/internal/domain"
)

type attendanceRepository struct {
	db DBTX
}

func (r *attendanceRepository) Create(ctx context.Context, record *domain.AttendanceRecord) error {
	const query = `
        INSERT INTO attendance (user_id, work_date, check_in, check_out)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		record.UserID,
		record.WorkDate,
		record.CheckIn,
		record.CheckOut,
	).Scan(&record.ID)
	return translate(err)
}

func (r *attendanceRepository) Update(ctx context.Context, record *domain.AttendanceRecord) error {
	const query = `UPDATE attendance SET check_in=$1, check_out=$2 WHERE id=$3`
	cmd, err := r.db.Exec(ctx, query, record.CheckIn, record.CheckOut, record.ID)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *attendanceRepository) GetByUserAndDate(ctx context.Context, userID int64, workDate time.Time) (*domain.AttendanceRecord, error) {
	const query = `
        SELECT id, user_id, work_date, check_in, check_out
        FROM attendance WHERE user_id=$1 AND work_date=$2`
	return scanAttendance(r.db.QueryRow(ctx, query, userID, workDate))
}

func (r *attendanceRepository) GetByUserAndDateForUpdate(ctx context.Context, userID int64, workDate time.Time) (*domain.AttendanceRecord, error) {
	const query = `
        SELECT id, user_id, work_date, check_in, check_out
        FROM attendance WHERE user_id=$1 AND work_date=$2
        FOR UPDATE`
	return scanAttendance(r.db.QueryRow(ctx, query, userID, workDate))
}

func (r *attendanceRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.AttendanceRecord, error) {
	const query = `
        SELECT id, user_id, work_date, check_in, check_out
        FROM attendance WHERE work_date BETWEEN $1 AND $2
        ORDER BY work_date ASC, user_id ASC`
	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	result := []domain.AttendanceRecord{}
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, translate(rows.Err())
}

func scanAttendance(row pgx.Row) (*domain.AttendanceRecord, error) {
	var record domain.AttendanceRecord
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.WorkDate,
		&record.CheckIn,
		&record.CheckOut,
	); err != nil {
		return nil, translate(err)
	}
	return &record, nil
}
