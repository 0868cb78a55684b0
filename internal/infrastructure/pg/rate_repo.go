package pg

import (
	"context"
	"errors"
	"time"

	"westrates-service/internal/application"
	"westrates-service/internal/domain"
	"westrates-service/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RateRepo struct{ db *DB }

func NewRateRepo(db *DB) *RateRepo { return &RateRepo{db: db} }

var _ application.RateRepo = (*RateRepo)(nil)

const rateColumns = `id, from_currency, to_currency, rate, ts`

func scanRate(row pgx.Row) (domain.Rate, error) {
	var out domain.Rate
	err := row.Scan(&out.ID, &out.From, &out.To, &out.Rate, &out.Timestamp)
	return out, err
}

func collectRates(rows pgx.Rows) ([]domain.Rate, error) {
	defer rows.Close()
	var out []domain.Rate
	for rows.Next() {
		r, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (r *RateRepo) Insert(ctx context.Context, in domain.Rate) (domain.Rate, error) {
	const ins = `
        INSERT INTO rates(from_currency, to_currency, rate, ts)
        VALUES ($1, $2, $3, $4)
        RETURNING id`
	log := logx.L().With(
		zap.String("repo", "rate"),
		zap.String("operation", "Insert"),
		zap.String("pair", string(in.From)+"/"+string(in.To)),
	)
	log.Info("sql.exec_start")
	out := in
	err := r.db.q(ctx).QueryRow(ctx, ins, string(in.From), string(in.To), in.Rate, in.Timestamp).Scan(&out.ID)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return domain.Rate{}, err
	}
	log.Info("sql.exec_success", zap.Int64("id", out.ID))
	return out, nil
}

func (r *RateRepo) GetByID(ctx context.Context, id int64) (domain.Rate, error) {
	const q = `SELECT ` + rateColumns + ` FROM rates WHERE id=$1`
	out, err := scanRate(r.db.q(ctx).QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Rate{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Rate{}, err
	}
	return out, nil
}

// ListByRange returns observations with ts inside the inclusive window,
// ascending by timestamp (id breaks ties for a deterministic order).
func (r *RateRepo) ListByRange(ctx context.Context, start, end time.Time) ([]domain.Rate, error) {
	const q = `
        SELECT ` + rateColumns + ` FROM rates
        WHERE ts >= $1 AND ts <= $2
        ORDER BY ts, id`
	rows, err := r.db.q(ctx).Query(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	return collectRates(rows)
}

func (r *RateRepo) ListLastByPair(ctx context.Context, from, to domain.Currency, n int) ([]domain.Rate, error) {
	const q = `
        SELECT ` + rateColumns + ` FROM rates
        WHERE from_currency=$1 AND to_currency=$2
        ORDER BY ts DESC, id DESC
        LIMIT $3`
	rows, err := r.db.q(ctx).Query(ctx, q, string(from), string(to), n)
	if err != nil {
		return nil, err
	}
	return collectRates(rows)
}

func (r *RateRepo) ListAll(ctx context.Context) ([]domain.Rate, error) {
	const q = `SELECT ` + rateColumns + ` FROM rates ORDER BY ts, id`
	rows, err := r.db.q(ctx).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectRates(rows)
}

// Update applies a partial mutation; nil patch fields keep the stored value.
func (r *RateRepo) Update(ctx context.Context, id int64, patch application.RateUpdate) (domain.Rate, error) {
	const up = `
        UPDATE rates
        SET from_currency = COALESCE($2, from_currency),
            to_currency   = COALESCE($3, to_currency),
            rate          = COALESCE($4, rate)
        WHERE id=$1
        RETURNING ` + rateColumns
	log := logx.L().With(
		zap.String("repo", "rate"),
		zap.String("operation", "Update"),
		zap.Int64("id", id),
	)
	var from, to *string
	if patch.From != nil {
		s := string(*patch.From)
		from = &s
	}
	if patch.To != nil {
		s := string(*patch.To)
		to = &s
	}
	log.Info("sql.exec_start")
	out, err := scanRate(r.db.q(ctx).QueryRow(ctx, up, id, from, to, patch.Rate))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Warn("sql.exec_no_rows")
		return domain.Rate{}, application.ErrNotFound
	}
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return domain.Rate{}, err
	}
	log.Info("sql.exec_success")
	return out, nil
}

func (r *RateRepo) Delete(ctx context.Context, id int64) error {
	const del = `DELETE FROM rates WHERE id=$1`
	log := logx.L().With(
		zap.String("repo", "rate"),
		zap.String("operation", "Delete"),
		zap.Int64("id", id),
	)
	log.Info("sql.exec_start")
	tag, err := r.db.q(ctx).Exec(ctx, del, id)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Warn("sql.exec_no_rows")
		return application.ErrNotFound
	}
	log.Info("sql.exec_success")
	return nil
}
