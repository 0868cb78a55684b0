package pg

import (
	"context"
	"errors"
	"time"

	"westrates-service/internal/application"
	"westrates-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type UserRepo struct{ db *DB }

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

var _ application.UserRepo = (*UserRepo)(nil)

const userColumns = `id, email, username, password_hash, is_active, role, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var out domain.User
	err := row.Scan(&out.ID, &out.Email, &out.Username, &out.PasswordHash,
		&out.Active, &out.Role, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	defer rows.Close()
	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) Insert(ctx context.Context, in domain.User) (domain.User, error) {
	const ins = `
        INSERT INTO users(email, username, password_hash, is_active, role, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`
	out := in
	err := r.db.q(ctx).QueryRow(ctx, ins,
		in.Email, in.Username, in.PasswordHash, in.Active, string(in.Role), in.CreatedAt,
	).Scan(&out.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.User{}, application.ErrConflict
		}
		return domain.User{}, err
	}
	return out, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	out, err := scanUser(r.db.q(ctx).QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, application.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return out, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	out, err := scanUser(r.db.q(ctx).QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, application.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return out, nil
}

func (r *UserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE role=$1 ORDER BY id`
	rows, err := r.db.q(ctx).Query(ctx, q, string(role))
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *UserRepo) ListByCreatedRange(ctx context.Context, start, end time.Time) ([]domain.User, error) {
	const q = `
        SELECT ` + userColumns + ` FROM users
        WHERE created_at >= $1 AND created_at <= $2
        ORDER BY created_at, id`
	rows, err := r.db.q(ctx).Query(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *UserRepo) Update(ctx context.Context, id int64, patch application.UserUpdate) (domain.User, error) {
	const up = `
        UPDATE users
        SET email      = COALESCE($2, email),
            username   = COALESCE($3, username),
            role       = COALESCE($4, role),
            is_active  = COALESCE($5, is_active),
            updated_at = NOW()
        WHERE id=$1
        RETURNING ` + userColumns
	var role *string
	if patch.Role != nil {
		s := string(*patch.Role)
		role = &s
	}
	out, err := scanUser(r.db.q(ctx).QueryRow(ctx, up, id, patch.Email, patch.Username, role, patch.Active))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, application.ErrNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.User{}, application.ErrConflict
		}
		return domain.User{}, err
	}
	return out, nil
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.q(ctx).Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}
