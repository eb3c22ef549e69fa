package review

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/enroll"
	"github.com/darasahq/darasa/core/user"
)

var (
	// errors
	ErrNotFound             = errors.New("review not found")
	ErrAlreadyReviewed      = errors.New("course already reviewed")
	ErrNotEnrolled          = errors.New("not enrolled in this course")
	ErrWishlistItemNotFound = errors.New("wishlist item not found")
	ErrAlreadyWishlisted    = errors.New("course already in wishlist")
)

type (
	Repository interface {
		CreateReview(ctx context.Context, rev Review, exec ...core.DBExecutor) (Review, error)
		GetReview(ctx context.Context, userID, courseID string) (Review, error)
		GetReviewByID(ctx context.Context, id string) (Review, error)
		// QueryCourseReviews returns a course's reviews, most recent first.
		QueryCourseReviews(ctx context.Context, courseID string) ([]Review, error)
		UpdateReview(ctx context.Context, rev Review, exec ...core.DBExecutor) (Review, error)

		CreateWishlistItem(ctx context.Context, item WishlistItem, exec ...core.DBExecutor) (WishlistItem, error)
		GetWishlistItem(ctx context.Context, userID, courseID string) (WishlistItem, error)
		// QueryUserWishlist returns the user's wishlist, Course populated.
		QueryUserWishlist(ctx context.Context, userID string) ([]WishlistItem, error)
		DeleteWishlistItem(ctx context.Context, userID, courseID string) error
	}

	ServiceInterface interface {
		Add(ctx context.Context, actor user.Identity, courseID string, nr NewReview) (Review, error)
		ListByCourse(ctx context.Context, courseID string) ([]Review, error)
		MarkHelpful(ctx context.Context, reviewID string) (Review, error)
		Report(ctx context.Context, reviewID string) (Review, error)
		AddToWishlist(ctx context.Context, actor user.Identity, courseID string) (WishlistItem, error)
		RemoveFromWishlist(ctx context.Context, actor user.Identity, courseID string) error
		Wishlist(ctx context.Context, userID string) ([]WishlistItem, error)
	}

	service struct {
		db        core.DB
		repo      Repository
		enrollSvc enroll.ServiceInterface
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository, enrollSvc enroll.ServiceInterface) *service {
	return &service{db: db, repo: repo, enrollSvc: enrollSvc}
}

// NewServiceMock returns a service ready for use in tests.
func NewServiceMock(db core.DB, repo Repository, enrollSvc enroll.ServiceInterface) *service {
	return NewService(db, repo, enrollSvc)
}

// Add creates the actor's review of a course; the actor must be enrolled and may
// only review a course once.
func (svc *service) Add(ctx context.Context, actor user.Identity, courseID string, nr NewReview) (Review, error) {
	if _, err := svc.enrollSvc.Get(ctx, actor.ID, courseID); err != nil {
		if err == enroll.ErrNotFound {
			return Review{}, ErrNotEnrolled
		}
		return Review{}, err
	}

	if _, err := svc.repo.GetReview(ctx, actor.ID, courseID); err == nil {
		return Review{}, ErrAlreadyReviewed
	} else if err != ErrNotFound {
		return Review{}, err
	}

	now := time.Now().UTC()
	rev := Review{
		UserID:    actor.ID,
		CourseID:  courseID,
		Rating:    nr.Rating,
		Comment:   nr.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateReview(ctx, rev)
}

func (svc *service) ListByCourse(ctx context.Context, courseID string) ([]Review, error) {
	return svc.repo.QueryCourseReviews(ctx, courseID)
}

func (svc *service) MarkHelpful(ctx context.Context, reviewID string) (Review, error) {
	rev, err := svc.repo.GetReviewByID(ctx, reviewID)
	if err != nil {
		return Review{}, err
	}
	rev.HelpfulCount++
	rev.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateReview(ctx, rev)
}

func (svc *service) Report(ctx context.Context, reviewID string) (Review, error) {
	rev, err := svc.repo.GetReviewByID(ctx, reviewID)
	if err != nil {
		return Review{}, err
	}
	rev.Reported = true
	rev.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateReview(ctx, rev)
}

func (svc *service) AddToWishlist(ctx context.Context, actor user.Identity, courseID string) (WishlistItem, error) {
	if _, err := svc.repo.GetWishlistItem(ctx, actor.ID, courseID); err == nil {
		return WishlistItem{}, ErrAlreadyWishlisted
	} else if err != ErrWishlistItemNotFound {
		return WishlistItem{}, err
	}

	item := WishlistItem{
		UserID:    actor.ID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateWishlistItem(ctx, item)
}

func (svc *service) RemoveFromWishlist(ctx context.Context, actor user.Identity, courseID string) error {
	return svc.repo.DeleteWishlistItem(ctx, actor.ID, courseID)
}

func (svc *service) Wishlist(ctx context.Context, userID string) ([]WishlistItem, error) {
	return svc.repo.QueryUserWishlist(ctx, userID)
}
