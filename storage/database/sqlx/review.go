package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/review"
)

const (
	reviewColumns   = `id, user_id, course_id, rating, comment, helpful_count, reported, created_at, updated_at`
	wishlistColumns = `id, user_id, course_id, created_at`
)

type reviewRow struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	CourseID     string    `db:"course_id"`
	Rating       int       `db:"rating"`
	Comment      string    `db:"comment"`
	HelpfulCount int       `db:"helpful_count"`
	Reported     bool      `db:"reported"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r reviewRow) unrow() review.Review {
	return review.Review{
		ID:           r.ID,
		UserID:       r.UserID,
		CourseID:     r.CourseID,
		Rating:       r.Rating,
		Comment:      r.Comment,
		HelpfulCount: r.HelpfulCount,
		Reported:     r.Reported,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type wishlistRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CourseID  string    `db:"course_id"`
	CreatedAt time.Time `db:"created_at"`
}

type reviewRepository struct {
	db *sqlx.DB
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *sqlx.DB) *reviewRepository {
	return &reviewRepository{db: db}
}

func (repo reviewRepository) getExec(exec []core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 {
		return exec[0]
	}
	return repo.db.DB
}

func (repo reviewRepository) CreateReview(ctx context.Context, rev review.Review, exec ...core.DBExecutor) (review.Review, error) {
	query := `
		INSERT INTO review (user_id, course_id, rating, comment, helpful_count, reported, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := repo.getExec(exec).QueryRowContext(ctx, query,
		rev.UserID, rev.CourseID, rev.Rating, rev.Comment, rev.HelpfulCount, rev.Reported, rev.CreatedAt, rev.UpdatedAt,
	).Scan(&rev.ID)
	if err != nil {
		return review.Review{}, errors.Wrap(err, "creating review")
	}
	return rev, nil
}

func (repo reviewRepository) GetReview(ctx context.Context, userID, courseID string) (review.Review, error) {
	var row reviewRow
	query := `SELECT ` + reviewColumns + ` FROM review WHERE user_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return review.Review{}, review.ErrNotFound
		}
		return review.Review{}, errors.Wrap(err, "getting review")
	}
	return row.unrow(), nil
}

func (repo reviewRepository) GetReviewByID(ctx context.Context, id string) (review.Review, error) {
	var row reviewRow
	query := `SELECT ` + reviewColumns + ` FROM review WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return review.Review{}, review.ErrNotFound
		}
		return review.Review{}, errors.Wrap(err, "getting review by id")
	}
	return row.unrow(), nil
}

func (repo reviewRepository) QueryCourseReviews(ctx context.Context, courseID string) ([]review.Review, error) {
	var rows []reviewRow
	query := `SELECT ` + reviewColumns + ` FROM review WHERE course_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying course reviews")
	}

	revs := make([]review.Review, 0, len(rows))
	for _, r := range rows {
		revs = append(revs, r.unrow())
	}
	return revs, nil
}

func (repo reviewRepository) UpdateReview(ctx context.Context, rev review.Review, exec ...core.DBExecutor) (review.Review, error) {
	query := `
		UPDATE review
		SET rating        = $2,
		    comment       = $3,
		    helpful_count = $4,
		    reported      = $5,
		    updated_at    = $6
		WHERE id = $1
		RETURNING created_at`
	err := repo.getExec(exec).QueryRowContext(ctx, query,
		rev.ID, rev.Rating, rev.Comment, rev.HelpfulCount, rev.Reported, rev.UpdatedAt,
	).Scan(&rev.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return review.Review{}, review.ErrNotFound
		}
		return review.Review{}, errors.Wrap(err, "updating review")
	}
	return rev, nil
}

func (repo reviewRepository) CreateWishlistItem(ctx context.Context, item review.WishlistItem, exec ...core.DBExecutor) (review.WishlistItem, error) {
	query := `
		INSERT INTO wishlist_item (user_id, course_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	err := repo.getExec(exec).QueryRowContext(ctx, query,
		item.UserID, item.CourseID, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return review.WishlistItem{}, errors.Wrap(err, "creating wishlist item")
	}
	return item, nil
}

func (repo reviewRepository) GetWishlistItem(ctx context.Context, userID, courseID string) (review.WishlistItem, error) {
	var row wishlistRow
	query := `SELECT ` + wishlistColumns + ` FROM wishlist_item WHERE user_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return review.WishlistItem{}, review.ErrWishlistItemNotFound
		}
		return review.WishlistItem{}, errors.Wrap(err, "getting wishlist item")
	}
	return review.WishlistItem{ID: row.ID, UserID: row.UserID, CourseID: row.CourseID, CreatedAt: row.CreatedAt.UTC()}, nil
}

func (repo reviewRepository) QueryUserWishlist(ctx context.Context, userID string) ([]review.WishlistItem, error) {
	var rows []wishlistRow
	query := `SELECT ` + wishlistColumns + ` FROM wishlist_item WHERE user_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying user wishlist")
	}

	items := make([]review.WishlistItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, review.WishlistItem{ID: r.ID, UserID: r.UserID, CourseID: r.CourseID, CreatedAt: r.CreatedAt.UTC()})
	}
	return repo.populateCourses(ctx, items)
}

func (repo reviewRepository) DeleteWishlistItem(ctx context.Context, userID, courseID string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM wishlist_item WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return errors.Wrap(err, "deleting wishlist item")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return review.ErrWishlistItemNotFound
	}
	return nil
}

// populateCourses attaches the referenced courses to the given wishlist items.
func (repo reviewRepository) populateCourses(ctx context.Context, items []review.WishlistItem) ([]review.WishlistItem, error) {
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.CourseID)
	}
	query, args, err := sqlx.In(`SELECT `+courseColumns+` FROM course WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building course lookup")
	}

	var rows []courseRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying wishlist courses")
	}

	courses := make(map[string]course.Course, len(rows))
	for _, r := range rows {
		courses[r.ID] = r.unrow()
	}
	for i := range items {
		if crs, ok := courses[items[i].CourseID]; ok {
			crs := crs
			items[i].Course = &crs
		}
	}
	return items, nil
}
