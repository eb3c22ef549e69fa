package enroll

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core/course"
)

// CompletionStatus is the progress state of an Enrollment.
type CompletionStatus string

const (
	StatusInProgress = CompletionStatus("in-progress")
	StatusCompleted  = CompletionStatus("completed")
)

// Enrollment ties a user to a course; there is at most one per (user, course) pair.
type Enrollment struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id"`
	CourseID           string           `json:"course_id"`
	Progress           int              `json:"progress"` // 0-100
	CompletionStatus   CompletionStatus `json:"completion_status"`
	CompletedModuleIDs []string         `json:"completed_module_ids"`
	EnrolledAt         time.Time        `json:"enrolled_at"` // UTC
	UpdatedAt          time.Time        `json:"updated_at"`  // UTC

	// Course is populated on student-facing reads.
	Course *course.Course `json:"course,omitempty"`
}

func (e Enrollment) Completed() bool { return e.CompletionStatus == StatusCompleted }

func (e Enrollment) HasCompletedModule(moduleID string) bool {
	for _, id := range e.CompletedModuleIDs {
		if id == moduleID {
			return true
		}
	}
	return false
}

// NextModuleIndex returns the index of the first module (in given order) not yet
// completed, defaulting to 0 when none or all are complete.
func (e Enrollment) NextModuleIndex(mods []course.Module) int {
	for i, mod := range mods {
		if !e.HasCompletedModule(mod.ID) {
			return i
		}
	}
	return 0
}

// PaymentStatus is the state of a Payment record.
type PaymentStatus string

const (
	PaymentPending   = PaymentStatus("pending")
	PaymentCompleted = PaymentStatus("completed")
	PaymentFailed    = PaymentStatus("failed")
)

// Payment is an append-only record of a (simulated) course purchase.
type Payment struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	CourseID      string        `json:"course_id"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id"`
	CreatedAt     time.Time     `json:"created_at"` // UTC
}

func (p Payment) IsCompleted() bool { return p.Status == PaymentCompleted }

// Certificate is issued once per (user, course) when progress reaches 100.
type Certificate struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CourseID       string    `json:"course_id"`
	CourseTitle    string    `json:"course_title"` // snapshot at issuance
	CertificateURL string    `json:"certificate_url"`
	VerificationID string    `json:"verification_id"`
	IssuedAt       time.Time `json:"issued_at"` // UTC
}

// QuizSubmission is a student's scored quiz attempt for a quiz module.
type QuizSubmission struct {
	Correct int `json:"correct" validate:"gte=0,ltefield=Total"`
	Total   int `json:"total" validate:"required,gt=0"`
}

func (qs QuizSubmission) Validate(validate *validator.Validate) error { return validate.Struct(qs) }

// QuizResult reports the score and, on a pass, the updated enrollment.
type QuizResult struct {
	Score      int         `json:"score"`
	Passed     bool        `json:"passed"`
	Enrollment *Enrollment `json:"enrollment,omitempty"`
}
