package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/enroll"
)

type enrollRepository struct {
	enrollments  *enrollmentTable
	payments     *paymentTable
	certificates *certificateTable
	courses      *courseTable
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *DB) *enrollRepository {
	return &enrollRepository{
		enrollments:  db.enrollment,
		payments:     db.payment,
		certificates: db.certificate,
		courses:      db.course,
	}
}

func (repo *enrollRepository) CreateEnrollment(_ context.Context, enr enroll.Enrollment, _ ...core.DBExecutor) (enroll.Enrollment, error) {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	enr.ID = uuid.New().String()
	enr.Course = nil
	repo.enrollments.table[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollRepository) GetEnrollment(_ context.Context, userID, courseID string) (enroll.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	for _, enr := range repo.enrollments.table {
		if enr.UserID == userID && enr.CourseID == courseID {
			return *enr, nil
		}
	}
	return enroll.Enrollment{}, enroll.ErrNotFound
}

func (repo *enrollRepository) QueryUserEnrollments(_ context.Context, userID string) ([]enroll.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	enrs := make([]enroll.Enrollment, 0)
	for _, enr := range repo.enrollments.table {
		if enr.UserID == userID {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].EnrolledAt.After(enrs[j].EnrolledAt) })
	return repo.populateCourses(enrs), nil
}

func (repo *enrollRepository) QueryInstructorEnrollments(_ context.Context, instructorID string) ([]enroll.Enrollment, error) {
	repo.courses.RLock()
	owned := make(map[string]struct{})
	for _, crs := range repo.courses.table {
		if crs.InstructorID == instructorID {
			owned[crs.ID] = struct{}{}
		}
	}
	repo.courses.RUnlock()

	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	enrs := make([]enroll.Enrollment, 0)
	for _, enr := range repo.enrollments.table {
		if _, ok := owned[enr.CourseID]; ok {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].EnrolledAt.After(enrs[j].EnrolledAt) })
	return repo.populateCourses(enrs), nil
}

func (repo *enrollRepository) UpdateEnrollment(_ context.Context, enr enroll.Enrollment, _ ...core.DBExecutor) (enroll.Enrollment, error) {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	orig, ok := repo.enrollments.table[enr.ID]
	if !ok {
		return enroll.Enrollment{}, enroll.ErrNotFound
	}
	enr.EnrolledAt = orig.EnrolledAt
	enr.Course = nil
	repo.enrollments.table[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollRepository) CreatePayment(_ context.Context, pmt enroll.Payment, _ ...core.DBExecutor) (enroll.Payment, error) {
	repo.payments.Lock()
	defer repo.payments.Unlock()

	pmt.ID = uuid.New().String()
	repo.payments.table[pmt.ID] = &pmt
	return pmt, nil
}

func (repo *enrollRepository) GetCompletedPayment(_ context.Context, userID, courseID string) (enroll.Payment, error) {
	repo.payments.RLock()
	defer repo.payments.RUnlock()

	for _, pmt := range repo.payments.table {
		if pmt.UserID == userID && pmt.CourseID == courseID && pmt.IsCompleted() {
			return *pmt, nil
		}
	}
	return enroll.Payment{}, enroll.ErrPaymentNotFound
}

func (repo *enrollRepository) CreateCertificate(_ context.Context, cert enroll.Certificate, _ ...core.DBExecutor) (enroll.Certificate, error) {
	repo.certificates.Lock()
	defer repo.certificates.Unlock()

	// one certificate per (user, course); first write wins
	for _, c := range repo.certificates.table {
		if c.UserID == cert.UserID && c.CourseID == cert.CourseID {
			return *c, nil
		}
	}
	cert.ID = uuid.New().String()
	repo.certificates.table[cert.ID] = &cert
	return cert, nil
}

func (repo *enrollRepository) GetCertificate(_ context.Context, userID, courseID string) (enroll.Certificate, error) {
	repo.certificates.RLock()
	defer repo.certificates.RUnlock()

	for _, cert := range repo.certificates.table {
		if cert.UserID == userID && cert.CourseID == courseID {
			return *cert, nil
		}
	}
	return enroll.Certificate{}, enroll.ErrCertificateNotFound
}

func (repo *enrollRepository) QueryUserCertificates(_ context.Context, userID string) ([]enroll.Certificate, error) {
	repo.certificates.RLock()
	defer repo.certificates.RUnlock()

	certs := make([]enroll.Certificate, 0)
	for _, cert := range repo.certificates.table {
		if cert.UserID == userID {
			certs = append(certs, *cert)
		}
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].IssuedAt.After(certs[j].IssuedAt) })
	return certs, nil
}

func (repo *enrollRepository) populateCourses(enrs []enroll.Enrollment) []enroll.Enrollment {
	repo.courses.RLock()
	defer repo.courses.RUnlock()

	for i := range enrs {
		if crs, ok := repo.courses.table[enrs[i].CourseID]; ok {
			c := *crs
			c.Modules = nil
			enrs[i].Course = &c
		}
	}
	return enrs
}
