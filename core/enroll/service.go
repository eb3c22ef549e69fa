package enroll

import (
	"context"
	"fmt"
	"math"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/user"
)

var (
	// errors
	ErrNotFound            = errors.New("enrollment not found")
	ErrAlreadyEnrolled     = errors.New("already enrolled in this course")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrModuleNotInCourse   = errors.New("module does not belong to this course")
	ErrNotAQuiz            = errors.New("module is not a quiz")
	ErrQuizRequiresScore   = errors.New("quiz modules require a scored submission")
)

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
		// QueryUserEnrollments returns the user's enrollments, Course populated,
		// most recent first.
		QueryUserEnrollments(ctx context.Context, userID string) ([]Enrollment, error)
		// QueryInstructorEnrollments returns enrollments across all courses owned
		// by the instructor, Course populated.
		QueryInstructorEnrollments(ctx context.Context, instructorID string) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)

		CreatePayment(ctx context.Context, pmt Payment, exec ...core.DBExecutor) (Payment, error)
		GetCompletedPayment(ctx context.Context, userID, courseID string) (Payment, error)

		CreateCertificate(ctx context.Context, cert Certificate, exec ...core.DBExecutor) (Certificate, error)
		GetCertificate(ctx context.Context, userID, courseID string) (Certificate, error)
		QueryUserCertificates(ctx context.Context, userID string) ([]Certificate, error)
	}

	ServiceInterface interface {
		Enroll(ctx context.Context, actor user.Identity, courseID string) (Enrollment, error)
		Get(ctx context.Context, userID, courseID string) (Enrollment, error)
		ListByUser(ctx context.Context, userID string) ([]Enrollment, error)
		ListByInstructor(ctx context.Context, instructorID string) ([]Enrollment, error)
		HasAccess(ctx context.Context, userID, courseID string) (bool, error)
		CompleteModule(ctx context.Context, actor user.Identity, courseID, moduleID string) (Enrollment, error)
		SubmitQuiz(ctx context.Context, actor user.Identity, courseID, moduleID string, qs QuizSubmission) (QuizResult, error)
		Certificates(ctx context.Context, userID string) ([]Certificate, error)
	}

	service struct {
		db        core.DB
		repo      Repository
		courseSvc course.ServiceInterface
		usrSvc    user.ServiceInterface
		mailSvc   core.EmailService
		conf      *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(
	db core.DB,
	repo Repository,
	courseSvc course.ServiceInterface,
	usrSvc user.ServiceInterface,
	mailSvc core.EmailService,
	conf *core.Config,
) *service {
	return &service{
		db:        db,
		repo:      repo,
		courseSvc: courseSvc,
		usrSvc:    usrSvc,
		mailSvc:   mailSvc,
		conf:      conf,
	}
}

// NewServiceMock returns a service ready for use in tests.
func NewServiceMock(
	db core.DB,
	repo Repository,
	courseSvc course.ServiceInterface,
	usrSvc user.ServiceInterface,
	mailSvc core.EmailService,
	conf *core.Config,
) *service {
	return NewService(db, repo, courseSvc, usrSvc, mailSvc, conf)
}

// Enroll enrolls the actor into an approved course. For priced courses a completed
// (simulated) Payment and the Enrollment are created within one transaction.
func (svc *service) Enroll(ctx context.Context, actor user.Identity, courseID string) (Enrollment, error) {
	crs, err := svc.courseSvc.GetPublic(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}

	if _, err = svc.repo.GetEnrollment(ctx, actor.ID, courseID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if err != ErrNotFound {
		return Enrollment{}, err
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if !crs.IsFree() {
		pmt := Payment{
			UserID:        actor.ID,
			CourseID:      courseID,
			Amount:        crs.Price,
			Status:        PaymentCompleted, // simulated processor
			TransactionID: uuid.New().String(),
			CreatedAt:     now,
		}
		if _, err = svc.repo.CreatePayment(ctx, pmt, tx); err != nil {
			return Enrollment{}, errors.Wrap(err, "creating payment")
		}
	}

	enr := Enrollment{
		UserID:             actor.ID,
		CourseID:           courseID,
		Progress:           0,
		CompletionStatus:   StatusInProgress,
		CompletedModuleIDs: []string{},
		EnrolledAt:         now,
		UpdatedAt:          now,
	}
	if enr, err = svc.repo.CreateEnrollment(ctx, enr, tx); err != nil {
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}

	if err = tx.Commit(); err != nil {
		return Enrollment{}, errors.Wrap(err, "committing transaction")
	}
	return enr, nil
}

func (svc *service) Get(ctx context.Context, userID, courseID string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, userID, courseID)
}

func (svc *service) ListByUser(ctx context.Context, userID string) ([]Enrollment, error) {
	return svc.repo.QueryUserEnrollments(ctx, userID)
}

func (svc *service) ListByInstructor(ctx context.Context, instructorID string) ([]Enrollment, error) {
	return svc.repo.QueryInstructorEnrollments(ctx, instructorID)
}

// HasAccess is the content-gating predicate: free course, or a completed payment exists.
func (svc *service) HasAccess(ctx context.Context, userID, courseID string) (bool, error) {
	crs, err := svc.courseSvc.Get(ctx, courseID)
	if err != nil {
		return false, err
	}
	if crs.IsFree() {
		return true, nil
	}

	if _, err = svc.repo.GetCompletedPayment(ctx, userID, courseID); err != nil {
		if err == ErrPaymentNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CompleteModule records a module completion and recomputes progress. Re-completing
// an already-completed module is a no-op on the set. Reaching 100% flips the
// enrollment to completed and issues the certificate. Quiz modules are rejected here;
// they are only completed through a passing SubmitQuiz.
func (svc *service) CompleteModule(ctx context.Context, actor user.Identity, courseID, moduleID string) (Enrollment, error) {
	mods, err := svc.courseSvc.Modules(ctx, courseID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "loading course modules")
	}
	var mod *course.Module
	for i := range mods {
		if mods[i].ID == moduleID {
			mod = &mods[i]
			break
		}
	}
	if mod == nil {
		return Enrollment{}, core.NewValidationError(ErrModuleNotInCourse,
			core.FieldError{Field: "module_id", Error: ErrModuleNotInCourse.Error()})
	}
	if mod.Type == course.ModuleQuiz {
		return Enrollment{}, core.NewValidationError(ErrQuizRequiresScore,
			core.FieldError{Field: "module_id", Error: ErrQuizRequiresScore.Error()})
	}

	return svc.completeModule(ctx, actor.ID, courseID, moduleID, mods)
}

// completeModule applies the set-insert and progress recomputation; callers have
// already checked that moduleID belongs to mods.
func (svc *service) completeModule(ctx context.Context, userID, courseID, moduleID string, mods []course.Module) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}

	wasCompleted := enr.Completed()
	if !enr.HasCompletedModule(moduleID) {
		enr.CompletedModuleIDs = append(enr.CompletedModuleIDs, moduleID)
	}

	enr.Progress = progress(len(enr.CompletedModuleIDs), len(mods))
	if enr.Progress == 100 {
		enr.CompletionStatus = StatusCompleted
	} else {
		enr.CompletionStatus = StatusInProgress
	}
	enr.UpdatedAt = time.Now().UTC()

	if enr, err = svc.repo.UpdateEnrollment(ctx, enr); err != nil {
		return Enrollment{}, err
	}

	if !wasCompleted && enr.Completed() {
		if _, err = svc.issueCertificate(ctx, userID, courseID); err != nil {
			return Enrollment{}, errors.Wrap(err, "issuing certificate")
		}
	}
	return enr, nil
}

// SubmitQuiz scores a quiz attempt; only a pass records the module completion,
// a fail leaves the enrollment untouched.
func (svc *service) SubmitQuiz(ctx context.Context, actor user.Identity, courseID, moduleID string, qs QuizSubmission) (QuizResult, error) {
	mods, err := svc.courseSvc.Modules(ctx, courseID)
	if err != nil {
		return QuizResult{}, errors.Wrap(err, "loading course modules")
	}
	var quiz *course.Module
	for i, mod := range mods {
		if mod.ID == moduleID {
			quiz = &mods[i]
			break
		}
	}
	if quiz == nil {
		return QuizResult{}, core.NewValidationError(ErrModuleNotInCourse,
			core.FieldError{Field: "module_id", Error: ErrModuleNotInCourse.Error()})
	}
	if quiz.Type != course.ModuleQuiz {
		return QuizResult{}, core.NewValidationError(ErrNotAQuiz,
			core.FieldError{Field: "module_id", Error: ErrNotAQuiz.Error()})
	}

	score := QuizScore(qs.Correct, qs.Total)
	if !QuizPassed(score) {
		return QuizResult{Score: score, Passed: false}, nil
	}

	enr, err := svc.completeModule(ctx, actor.ID, courseID, moduleID, mods)
	if err != nil {
		return QuizResult{}, err
	}
	return QuizResult{Score: score, Passed: true, Enrollment: &enr}, nil
}

func (svc *service) Certificates(ctx context.Context, userID string) ([]Certificate, error) {
	return svc.repo.QueryUserCertificates(ctx, userID)
}

// issueCertificate creates the certificate for (user, course) if it does not exist yet.
func (svc *service) issueCertificate(ctx context.Context, userID, courseID string) (Certificate, error) {
	if cert, err := svc.repo.GetCertificate(ctx, userID, courseID); err == nil {
		return cert, nil
	} else if err != ErrCertificateNotFound {
		return Certificate{}, err
	}

	crs, err := svc.courseSvc.Get(ctx, courseID)
	if err != nil {
		return Certificate{}, err
	}

	verificationID := uuid.New().String()
	cert := Certificate{
		UserID:         userID,
		CourseID:       courseID,
		CourseTitle:    crs.Title,
		VerificationID: verificationID,
		CertificateURL: fmt.Sprintf("%s/certificates/%s", svc.conf.FrontendBaseURL, verificationID),
		IssuedAt:       time.Now().UTC(),
	}
	if cert, err = svc.repo.CreateCertificate(ctx, cert); err != nil {
		return Certificate{}, err
	}

	if usr, err := svc.usrSvc.GetByID(ctx, userID); err == nil {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      "Your certificate for " + cert.CourseTitle,
			TemplateName: "certificate",
			TemplateData: struct {
				Name           string
				CourseTitle    string
				CertificateURL string
			}{usr.Name, cert.CourseTitle, cert.CertificateURL},
		})
	}
	return cert, nil
}

// progress computes round(100 * done / total), 0 when the course has no modules.
func progress(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
