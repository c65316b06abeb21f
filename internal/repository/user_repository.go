package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ops-desk/internal/domain"
)

type userRepository struct {
	db DBTX
}

const userColumns = `id, full_name, email, phone_number, national_id, service_domain, role,
               employment_level, date_of_joining, salary_cents, certifications, password_hash,
               created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (full_name, email, phone_number, national_id, service_domain, role,
            employment_level, date_of_joining, salary_cents, certifications, password_hash)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.FullName,
		user.Email,
		user.PhoneNumber,
		user.NationalID,
		user.ServiceDomain,
		user.Role,
		user.EmploymentLevel,
		user.DateOfJoining,
		user.SalaryCents,
		user.Certifications,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translate(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role=$1 ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, translate(rows.Err())
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PhoneNumber,
		&user.NationalID,
		&user.ServiceDomain,
		&user.Role,
		&user.EmploymentLevel,
		&user.DateOfJoining,
		&user.SalaryCents,
		&user.Certifications,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
