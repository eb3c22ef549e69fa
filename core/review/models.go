package review

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
)

// Review is a student's rating of a course; one per (user, course).
type Review struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CourseID     string    `json:"course_id"`
	Rating       int       `json:"rating"` // 1-5
	Comment      string    `json:"comment"`
	HelpfulCount int       `json:"helpful_count"`
	Reported     bool      `json:"reported"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewReview contains information needed to review a course.
type NewReview struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment"`
}

func (nr *NewReview) Validate(validate *validator.Validate) error {
	nr.Comment = core.CleanString(nr.Comment)
	return validate.Struct(nr)
}

// WishlistItem marks a course a user wants to come back to; one per (user, course).
type WishlistItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	CreatedAt time.Time `json:"created_at"` // UTC

	// Course is populated on list reads.
	Course *course.Course `json:"course,omitempty"`
}
