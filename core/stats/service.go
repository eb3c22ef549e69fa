package stats

import (
	"context"
	"math"
)

// CategoryCount is one entry of the top-categories aggregation.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Platform is the admin dashboard aggregate.
type Platform struct {
	TotalUsers       int             `json:"total_users"`
	ActiveUsers      int             `json:"active_users"`
	TotalCourses     int             `json:"total_courses"`
	PendingCourses   int             `json:"pending_courses"`
	TotalEnrollments int             `json:"total_enrollments"`
	CompletionRate   int             `json:"completion_rate"` // 0-100
	TotalRevenue     float64         `json:"total_revenue"`
	TopCategories    []CategoryCount `json:"top_categories"` // top 5, by course count desc
}

type (
	Repository interface {
		CountUsers(ctx context.Context) (total, active int, err error)
		CountCourses(ctx context.Context) (total, pending int, err error)
		CountEnrollments(ctx context.Context) (total, completed int, err error)
		SumPayments(ctx context.Context) (float64, error)
		// TopCategories returns at most `limit` categories by course count, descending.
		TopCategories(ctx context.Context, limit int) ([]CategoryCount, error)
	}

	ServiceInterface interface {
		Platform(ctx context.Context) (Platform, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

const topCategoriesLimit = 5

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) Platform(ctx context.Context) (Platform, error) {
	var p Platform
	var err error

	if p.TotalUsers, p.ActiveUsers, err = svc.repo.CountUsers(ctx); err != nil {
		return Platform{}, err
	}
	if p.TotalCourses, p.PendingCourses, err = svc.repo.CountCourses(ctx); err != nil {
		return Platform{}, err
	}

	var completed int
	if p.TotalEnrollments, completed, err = svc.repo.CountEnrollments(ctx); err != nil {
		return Platform{}, err
	}
	if p.TotalEnrollments > 0 {
		p.CompletionRate = int(math.Round(100 * float64(completed) / float64(p.TotalEnrollments)))
	}

	if p.TotalRevenue, err = svc.repo.SumPayments(ctx); err != nil {
		return Platform{}, err
	}
	if p.TopCategories, err = svc.repo.TopCategories(ctx, topCategoriesLimit); err != nil {
		return Platform{}, err
	}
	return p, nil
}
