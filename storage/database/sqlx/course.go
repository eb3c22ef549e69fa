package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
)

const (
	courseColumns = `id, title, description, category, instructor_id, price, status, review_note, created_at, updated_at`
	moduleColumns = `id, course_id, title, type, content_url, order_sequence, duration, created_at, updated_at`
)

type courseRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Category     string    `db:"category"`
	InstructorID string    `db:"instructor_id"`
	Price        float64   `db:"price"`
	Status       string    `db:"status"`
	ReviewNote   string    `db:"review_note"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r courseRow) unrow() course.Course {
	return course.Course{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		InstructorID: r.InstructorID,
		Price:        r.Price,
		Status:       course.Status(r.Status),
		ReviewNote:   r.ReviewNote,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type moduleRow struct {
	ID            string    `db:"id"`
	CourseID      string    `db:"course_id"`
	Title         string    `db:"title"`
	Type          string    `db:"type"`
	ContentURL    string    `db:"content_url"`
	OrderSequence int       `db:"order_sequence"`
	Duration      int       `db:"duration"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r moduleRow) unrow() course.Module {
	return course.Module{
		ID:            r.ID,
		CourseID:      r.CourseID,
		Title:         r.Title,
		Type:          course.ModuleType(r.Type),
		ContentURL:    r.ContentURL,
		OrderSequence: r.OrderSequence,
		Duration:      r.Duration,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) getExec(exec []core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 {
		return exec[0]
	}
	return repo.db.DB
}

func trapCourseNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return course.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	query := `
		INSERT INTO course (title, description, category, instructor_id, price, status, review_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := repo.getExec(exec).QueryRowContext(ctx, query,
		crs.Title, crs.Description, crs.Category, crs.InstructorID, crs.Price,
		string(crs.Status), crs.ReviewNote, crs.CreatedAt, crs.UpdatedAt,
	).Scan(&crs.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	query := `SELECT ` + courseColumns + ` FROM course WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return course.Course{}, trapCourseNoRowsErr(err, "getting course by id")
	}
	return row.unrow(), nil
}

func (repo courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM course`
	var conds []string
	var args []interface{}

	if filter.Search != "" {
		pat := "%" + filter.Search + "%"
		conds = append(conds, `(title ILIKE ? OR description ILIKE ?)`)
		args = append(args, pat, pat)
	}
	if filter.Category != "" {
		conds = append(conds, `category = ?`)
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(filter.Status))
	}
	if filter.InstructorID != "" {
		conds = append(conds, `instructor_id = ?`)
		args = append(args, filter.InstructorID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderingClause(filter.Orderings,
		map[string]bool{"title": true, "category": true, "price": true, "status": true, "created_at": true},
		"created_at DESC")

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.unrow())
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	query := `
		UPDATE course
		SET title       = $2,
		    description = $3,
		    category    = $4,
		    price       = $5,
		    status      = $6,
		    review_note = $7,
		    updated_at  = $8
		WHERE id = $1
		RETURNING created_at`
	err := repo.getExec(exec).QueryRowContext(ctx, query,
		crs.ID, crs.Title, crs.Description, crs.Category, crs.Price,
		string(crs.Status), crs.ReviewNote, crs.UpdatedAt,
	).Scan(&crs.CreatedAt)
	if err != nil {
		return course.Course{}, trapCourseNoRowsErr(err, "updating course")
	}
	return crs, nil
}

func (repo courseRepository) CreateModule(ctx context.Context, mod course.Module, exec ...core.DBExecutor) (course.Module, error) {
	query := `
		INSERT INTO module (course_id, title, type, content_url, order_sequence, duration, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := repo.getExec(exec).QueryRowContext(ctx, query,
		mod.CourseID, mod.Title, string(mod.Type), mod.ContentURL,
		mod.OrderSequence, mod.Duration, mod.CreatedAt, mod.UpdatedAt,
	).Scan(&mod.ID)
	if err != nil {
		return course.Module{}, errors.Wrap(err, "creating module")
	}
	return mod, nil
}

func (repo courseRepository) GetModuleByID(ctx context.Context, id string) (course.Module, error) {
	var row moduleRow
	query := `SELECT ` + moduleColumns + ` FROM module WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Module{}, course.ErrModuleNotFound
		}
		return course.Module{}, errors.Wrap(err, "getting module by id")
	}
	return row.unrow(), nil
}

func (repo courseRepository) GetCourseModules(ctx context.Context, courseID string) ([]course.Module, error) {
	var rows []moduleRow
	query := `SELECT ` + moduleColumns + ` FROM module WHERE course_id = $1 ORDER BY order_sequence ASC`
	if err := repo.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying course modules")
	}

	mods := make([]course.Module, 0, len(rows))
	for _, r := range rows {
		mods = append(mods, r.unrow())
	}
	return mods, nil
}

func (repo courseRepository) UpdateModule(ctx context.Context, mod course.Module, exec ...core.DBExecutor) (course.Module, error) {
	query := `
		UPDATE module
		SET title          = $2,
		    content_url    = $3,
		    order_sequence = $4,
		    duration       = $5,
		    updated_at     = $6
		WHERE id = $1
		RETURNING created_at`
	err := repo.getExec(exec).QueryRowContext(ctx, query,
		mod.ID, mod.Title, mod.ContentURL, mod.OrderSequence, mod.Duration, mod.UpdatedAt,
	).Scan(&mod.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Module{}, course.ErrModuleNotFound
		}
		return course.Module{}, errors.Wrap(err, "updating module")
	}
	return mod, nil
}
