package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/enroll"
	"github.com/darasahq/darasa/core/review"
	"github.com/darasahq/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	title, category, instructorID string,
	price float64,
	status course.Status,
) course.Course {
	t.Helper()

	tstamp := time.Now().UTC()
	crs := course.Course{
		Title:        title,
		Category:     category,
		InstructorID: instructorID,
		Price:        price,
		Status:       status,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	}
	crs, err := repo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateModule(
	t *testing.T,
	repo course.Repository,
	courseID, title string,
	typ course.ModuleType,
	seq int,
) course.Module {
	t.Helper()

	tstamp := time.Now().UTC()
	mod := course.Module{
		CourseID:      courseID,
		Title:         title,
		Type:          typ,
		ContentURL:    "https://content.test/" + title,
		OrderSequence: seq,
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	}
	mod, err := repo.CreateModule(context.Background(), mod)
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	return mod
}

func CreateEnrollment(t *testing.T, repo enroll.Repository, userID, courseID string) enroll.Enrollment {
	t.Helper()

	tstamp := time.Now().UTC()
	enr := enroll.Enrollment{
		UserID:           userID,
		CourseID:         courseID,
		CompletionStatus: enroll.StatusInProgress,
		EnrolledAt:       tstamp,
		UpdatedAt:        tstamp,
	}
	enr, err := repo.CreateEnrollment(context.Background(), enr)
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}
	return enr
}

func CreatePayment(t *testing.T, repo enroll.Repository, userID, courseID string, amount float64) enroll.Payment {
	t.Helper()

	pmt := enroll.Payment{
		UserID:        userID,
		CourseID:      courseID,
		Amount:        amount,
		Status:        enroll.PaymentCompleted,
		TransactionID: "txn-test",
		CreatedAt:     time.Now().UTC(),
	}
	pmt, err := repo.CreatePayment(context.Background(), pmt)
	if err != nil {
		t.Fatalf("CreatePayment() failed: %v", err)
	}
	return pmt
}

func CreateReview(t *testing.T, repo review.Repository, userID, courseID string, rating int) review.Review {
	t.Helper()

	tstamp := time.Now().UTC()
	rev := review.Review{
		UserID:    userID,
		CourseID:  courseID,
		Rating:    rating,
		Comment:   "great course",
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	rev, err := repo.CreateReview(context.Background(), rev)
	if err != nil {
		t.Fatalf("CreateReview() failed: %v", err)
	}
	return rev
}
