package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/enroll"
)

const (
	// enrollment tracks completion under completion_status; status belongs to payment.
	enrollmentStatusColumn = "completion_status"
	paymentStatusColumn    = "status"

	enrollmentColumns  = `id, user_id, course_id, progress, ` + enrollmentStatusColumn + `, completed_module_ids, enrolled_at, updated_at`
	paymentColumns     = `id, user_id, course_id, amount, ` + paymentStatusColumn + `, transaction_id, created_at`
	certificateColumns = `id, user_id, course_id, course_title, certificate_url, verification_id, issued_at`
)

type enrollmentRow struct {
	ID                 string         `db:"id"`
	UserID             string         `db:"user_id"`
	CourseID           string         `db:"course_id"`
	Progress           int            `db:"progress"`
	CompletionStatus   string         `db:"completion_status"`
	CompletedModuleIDs pq.StringArray `db:"completed_module_ids"`
	EnrolledAt         time.Time      `db:"enrolled_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (r enrollmentRow) unrow() enroll.Enrollment {
	return enroll.Enrollment{
		ID:                 r.ID,
		UserID:             r.UserID,
		CourseID:           r.CourseID,
		Progress:           r.Progress,
		CompletionStatus:   enroll.CompletionStatus(r.CompletionStatus),
		CompletedModuleIDs: r.CompletedModuleIDs,
		EnrolledAt:         r.EnrolledAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
}

type paymentRow struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	CourseID      string    `db:"course_id"`
	Amount        float64   `db:"amount"`
	Status        string    `db:"status"`
	TransactionID string    `db:"transaction_id"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r paymentRow) unrow() enroll.Payment {
	return enroll.Payment{
		ID:            r.ID,
		UserID:        r.UserID,
		CourseID:      r.CourseID,
		Amount:        r.Amount,
		Status:        enroll.PaymentStatus(r.Status),
		TransactionID: r.TransactionID,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

type certificateRow struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	CourseID       string    `db:"course_id"`
	CourseTitle    string    `db:"course_title"`
	CertificateURL string    `db:"certificate_url"`
	VerificationID string    `db:"verification_id"`
	IssuedAt       time.Time `db:"issued_at"`
}

func (r certificateRow) unrow() enroll.Certificate {
	return enroll.Certificate{
		ID:             r.ID,
		UserID:         r.UserID,
		CourseID:       r.CourseID,
		CourseTitle:    r.CourseTitle,
		CertificateURL: r.CertificateURL,
		VerificationID: r.VerificationID,
		IssuedAt:       r.IssuedAt.UTC(),
	}
}

type enrollRepository struct {
	db *sqlx.DB
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *sqlx.DB) *enrollRepository {
	return &enrollRepository{db: db}
}

func (repo enrollRepository) getExec(exec []core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 {
		return exec[0]
	}
	return repo.db.DB
}

func (repo enrollRepository) CreateEnrollment(ctx context.Context, enr enroll.Enrollment, exec ...core.DBExecutor) (enroll.Enrollment, error) {
	query := `
		INSERT INTO enrollment (user_id, course_id, progress, completion_status, completed_module_ids, enrolled_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.getExec(exec).QueryRowContext(ctx, query,
		enr.UserID, enr.CourseID, enr.Progress, string(enr.CompletionStatus),
		pq.Array(enr.CompletedModuleIDs), enr.EnrolledAt, enr.UpdatedAt,
	).Scan(&enr.ID)
	if err != nil {
		return enroll.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return enr, nil
}

func (repo enrollRepository) GetEnrollment(ctx context.Context, userID, courseID string) (enroll.Enrollment, error) {
	var row enrollmentRow
	query := `SELECT ` + enrollmentColumns + ` FROM enrollment WHERE user_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return enroll.Enrollment{}, enroll.ErrNotFound
		}
		return enroll.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.unrow(), nil
}

func (repo enrollRepository) QueryUserEnrollments(ctx context.Context, userID string) ([]enroll.Enrollment, error) {
	var rows []enrollmentRow
	query := `SELECT ` + enrollmentColumns + ` FROM enrollment WHERE user_id = $1 ORDER BY enrolled_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying user enrollments")
	}
	return repo.populateCourses(ctx, unrowEnrollments(rows))
}

func (repo enrollRepository) QueryInstructorEnrollments(ctx context.Context, instructorID string) ([]enroll.Enrollment, error) {
	var rows []enrollmentRow
	query := `
		SELECT e.id, e.user_id, e.course_id, e.progress, e.completion_status, e.completed_module_ids, e.enrolled_at, e.updated_at
		FROM enrollment e
		         JOIN course c ON c.id = e.course_id
		WHERE c.instructor_id = $1
		ORDER BY e.enrolled_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, instructorID); err != nil {
		return nil, errors.Wrap(err, "querying instructor enrollments")
	}
	return repo.populateCourses(ctx, unrowEnrollments(rows))
}

func (repo enrollRepository) UpdateEnrollment(ctx context.Context, enr enroll.Enrollment, exec ...core.DBExecutor) (enroll.Enrollment, error) {
	query := `
		UPDATE enrollment
		SET progress             = $2,
		    completion_status    = $3,
		    completed_module_ids = $4,
		    updated_at           = $5
		WHERE id = $1
		RETURNING enrolled_at`
	err := repo.getExec(exec).QueryRowContext(ctx, query,
		enr.ID, enr.Progress, string(enr.CompletionStatus), pq.Array(enr.CompletedModuleIDs), enr.UpdatedAt,
	).Scan(&enr.EnrolledAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return enroll.Enrollment{}, enroll.ErrNotFound
		}
		return enroll.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	return enr, nil
}

func (repo enrollRepository) CreatePayment(ctx context.Context, pmt enroll.Payment, exec ...core.DBExecutor) (enroll.Payment, error) {
	query := `
		INSERT INTO payment (user_id, course_id, amount, status, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.getExec(exec).QueryRowContext(ctx, query,
		pmt.UserID, pmt.CourseID, pmt.Amount, string(pmt.Status), pmt.TransactionID, pmt.CreatedAt,
	).Scan(&pmt.ID)
	if err != nil {
		return enroll.Payment{}, errors.Wrap(err, "creating payment")
	}
	return pmt, nil
}

func (repo enrollRepository) GetCompletedPayment(ctx context.Context, userID, courseID string) (enroll.Payment, error) {
	var row paymentRow
	query := `
		SELECT ` + paymentColumns + `
		FROM payment
		WHERE user_id = $1 AND course_id = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1`
	if err := repo.db.GetContext(ctx, &row, query, userID, courseID, string(enroll.PaymentCompleted)); err != nil {
		if err == sql.ErrNoRows {
			return enroll.Payment{}, enroll.ErrPaymentNotFound
		}
		return enroll.Payment{}, errors.Wrap(err, "getting completed payment")
	}
	return row.unrow(), nil
}

func (repo enrollRepository) CreateCertificate(ctx context.Context, cert enroll.Certificate, exec ...core.DBExecutor) (enroll.Certificate, error) {
	query := `
		INSERT INTO certificate (user_id, course_id, course_title, certificate_url, verification_id, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, course_id) DO NOTHING
		RETURNING id`
	err := repo.getExec(exec).QueryRowContext(ctx, query,
		cert.UserID, cert.CourseID, cert.CourseTitle, cert.CertificateURL, cert.VerificationID, cert.IssuedAt,
	).Scan(&cert.ID)
	if err != nil {
		if err == sql.ErrNoRows { // lost the upsert race; fetch the winner
			return repo.GetCertificate(ctx, cert.UserID, cert.CourseID)
		}
		return enroll.Certificate{}, errors.Wrap(err, "creating certificate")
	}
	return cert, nil
}

func (repo enrollRepository) GetCertificate(ctx context.Context, userID, courseID string) (enroll.Certificate, error) {
	var row certificateRow
	query := `SELECT ` + certificateColumns + ` FROM certificate WHERE user_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return enroll.Certificate{}, enroll.ErrCertificateNotFound
		}
		return enroll.Certificate{}, errors.Wrap(err, "getting certificate")
	}
	return row.unrow(), nil
}

func (repo enrollRepository) QueryUserCertificates(ctx context.Context, userID string) ([]enroll.Certificate, error) {
	var rows []certificateRow
	query := `SELECT ` + certificateColumns + ` FROM certificate WHERE user_id = $1 ORDER BY issued_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying user certificates")
	}

	certs := make([]enroll.Certificate, 0, len(rows))
	for _, r := range rows {
		certs = append(certs, r.unrow())
	}
	return certs, nil
}

// populateCourses attaches the referenced courses to the given enrollments.
func (repo enrollRepository) populateCourses(ctx context.Context, enrs []enroll.Enrollment) ([]enroll.Enrollment, error) {
	if len(enrs) == 0 {
		return enrs, nil
	}

	ids := make([]string, 0, len(enrs))
	for _, enr := range enrs {
		ids = append(ids, enr.CourseID)
	}
	query, args, err := sqlx.In(`SELECT `+courseColumns+` FROM course WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building course lookup")
	}

	var rows []courseRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollment courses")
	}

	courses := make(map[string]course.Course, len(rows))
	for _, r := range rows {
		courses[r.ID] = r.unrow()
	}
	for i := range enrs {
		if crs, ok := courses[enrs[i].CourseID]; ok {
			crs := crs
			enrs[i].Course = &crs
		}
	}
	return enrs, nil
}

func unrowEnrollments(rows []enrollmentRow) []enroll.Enrollment {
	enrs := make([]enroll.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrs = append(enrs, r.unrow())
	}
	return enrs
}
