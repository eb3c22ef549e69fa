package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/enroll"
	"github.com/darasahq/darasa/core/stats"
)

type statsRepository struct {
	db *sqlx.DB
}

var _ stats.Repository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(db *sqlx.DB) *statsRepository {
	return &statsRepository{db: db}
}

func (repo statsRepository) CountUsers(ctx context.Context) (total, active int, err error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM "user"`
	if err = repo.db.QueryRowContext(ctx, query).Scan(&total, &active); err != nil {
		return 0, 0, errors.Wrap(err, "counting users")
	}
	return total, active, nil
}

func (repo statsRepository) CountCourses(ctx context.Context) (total, pending int, err error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'pending') FROM course`
	if err = repo.db.QueryRowContext(ctx, query).Scan(&total, &pending); err != nil {
		return 0, 0, errors.Wrap(err, "counting courses")
	}
	return total, pending, nil
}

func (repo statsRepository) CountEnrollments(ctx context.Context) (total, completed int, err error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE ` + enrollmentStatusColumn + ` = $1) FROM enrollment`
	if err = repo.db.QueryRowContext(ctx, query, enroll.StatusCompleted).Scan(&total, &completed); err != nil {
		return 0, 0, errors.Wrap(err, "counting enrollments")
	}
	return total, completed, nil
}

func (repo statsRepository) SumPayments(ctx context.Context) (float64, error) {
	var sum float64
	query := `SELECT COALESCE(SUM(amount), 0) FROM payment WHERE ` + paymentStatusColumn + ` = $1`
	if err := repo.db.QueryRowContext(ctx, query, enroll.PaymentCompleted).Scan(&sum); err != nil {
		return 0, errors.Wrap(err, "summing payments")
	}
	return sum, nil
}

func (repo statsRepository) TopCategories(ctx context.Context, limit int) ([]stats.CategoryCount, error) {
	var counts []stats.CategoryCount
	query := `
		SELECT category, COUNT(*) AS count
		FROM course
		GROUP BY category
		ORDER BY count DESC, category ASC
		LIMIT $1`
	if err := repo.db.SelectContext(ctx, &counts, query, limit); err != nil {
		return nil, errors.Wrap(err, "querying top categories")
	}
	return counts, nil
}
