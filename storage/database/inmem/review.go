package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/review"
)

type reviewRepository struct {
	reviews *reviewTable
	courses *courseTable
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *DB) *reviewRepository {
	return &reviewRepository{reviews: db.review, courses: db.course}
}

func (repo *reviewRepository) CreateReview(_ context.Context, rev review.Review, _ ...core.DBExecutor) (review.Review, error) {
	repo.reviews.Lock()
	defer repo.reviews.Unlock()

	rev.ID = uuid.New().String()
	repo.reviews.table[rev.ID] = &rev
	return rev, nil
}

func (repo *reviewRepository) GetReview(_ context.Context, userID, courseID string) (review.Review, error) {
	repo.reviews.RLock()
	defer repo.reviews.RUnlock()

	for _, rev := range repo.reviews.table {
		if rev.UserID == userID && rev.CourseID == courseID {
			return *rev, nil
		}
	}
	return review.Review{}, review.ErrNotFound
}

func (repo *reviewRepository) GetReviewByID(_ context.Context, id string) (review.Review, error) {
	repo.reviews.RLock()
	defer repo.reviews.RUnlock()

	if rev, ok := repo.reviews.table[id]; ok {
		return *rev, nil
	}
	return review.Review{}, review.ErrNotFound
}

func (repo *reviewRepository) QueryCourseReviews(_ context.Context, courseID string) ([]review.Review, error) {
	repo.reviews.RLock()
	defer repo.reviews.RUnlock()

	revs := make([]review.Review, 0)
	for _, rev := range repo.reviews.table {
		if rev.CourseID == courseID {
			revs = append(revs, *rev)
		}
	}
	sort.Slice(revs, func(i, j int) bool { return revs[i].CreatedAt.After(revs[j].CreatedAt) })
	return revs, nil
}

func (repo *reviewRepository) UpdateReview(_ context.Context, rev review.Review, _ ...core.DBExecutor) (review.Review, error) {
	repo.reviews.Lock()
	defer repo.reviews.Unlock()

	orig, ok := repo.reviews.table[rev.ID]
	if !ok {
		return review.Review{}, review.ErrNotFound
	}
	rev.CreatedAt = orig.CreatedAt
	repo.reviews.table[rev.ID] = &rev
	return rev, nil
}

func (repo *reviewRepository) CreateWishlistItem(_ context.Context, item review.WishlistItem, _ ...core.DBExecutor) (review.WishlistItem, error) {
	repo.reviews.Lock()
	defer repo.reviews.Unlock()

	item.ID = uuid.New().String()
	item.Course = nil
	repo.reviews.wishlist[item.ID] = &item
	return item, nil
}

func (repo *reviewRepository) GetWishlistItem(_ context.Context, userID, courseID string) (review.WishlistItem, error) {
	repo.reviews.RLock()
	defer repo.reviews.RUnlock()

	for _, item := range repo.reviews.wishlist {
		if item.UserID == userID && item.CourseID == courseID {
			return *item, nil
		}
	}
	return review.WishlistItem{}, review.ErrWishlistItemNotFound
}

func (repo *reviewRepository) QueryUserWishlist(_ context.Context, userID string) ([]review.WishlistItem, error) {
	repo.reviews.RLock()
	items := make([]review.WishlistItem, 0)
	for _, item := range repo.reviews.wishlist {
		if item.UserID == userID {
			items = append(items, *item)
		}
	}
	repo.reviews.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	repo.courses.RLock()
	defer repo.courses.RUnlock()
	for i := range items {
		if crs, ok := repo.courses.table[items[i].CourseID]; ok {
			c := *crs
			c.Modules = nil
			items[i].Course = &c
		}
	}
	return items, nil
}

func (repo *reviewRepository) DeleteWishlistItem(_ context.Context, userID, courseID string) error {
	repo.reviews.Lock()
	defer repo.reviews.Unlock()

	for id, item := range repo.reviews.wishlist {
		if item.UserID == userID && item.CourseID == courseID {
			delete(repo.reviews.wishlist, id)
			return nil
		}
	}
	return review.ErrWishlistItemNotFound
}
