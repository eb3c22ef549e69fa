package inmemdb

import (
	"context"
	"sort"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/stats"
)

type statsRepository struct {
	db *DB
}

var _ stats.Repository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(db *DB) *statsRepository {
	return &statsRepository{db: db}
}

func (repo *statsRepository) CountUsers(context.Context) (total, active int, err error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	for _, usr := range repo.db.user.table {
		total++
		if usr.Active() {
			active++
		}
	}
	return total, active, nil
}

func (repo *statsRepository) CountCourses(context.Context) (total, pending int, err error) {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	for _, crs := range repo.db.course.table {
		total++
		if crs.Status == course.StatusPending {
			pending++
		}
	}
	return total, pending, nil
}

func (repo *statsRepository) CountEnrollments(context.Context) (total, completed int, err error) {
	repo.db.enrollment.RLock()
	defer repo.db.enrollment.RUnlock()

	for _, enr := range repo.db.enrollment.table {
		total++
		if enr.Completed() {
			completed++
		}
	}
	return total, completed, nil
}

func (repo *statsRepository) SumPayments(context.Context) (float64, error) {
	repo.db.payment.RLock()
	defer repo.db.payment.RUnlock()

	var sum float64
	for _, pmt := range repo.db.payment.table {
		if pmt.IsCompleted() {
			sum += pmt.Amount
		}
	}
	return sum, nil
}

func (repo *statsRepository) TopCategories(_ context.Context, limit int) ([]stats.CategoryCount, error) {
	repo.db.course.RLock()
	counts := make(map[string]int)
	for _, crs := range repo.db.course.table {
		counts[crs.Category]++
	}
	repo.db.course.RUnlock()

	top := make([]stats.CategoryCount, 0, len(counts))
	for cat, n := range counts {
		top = append(top, stats.CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Category < top[j].Category
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}
