package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		crs := *c
		crs.Modules = nil
		courses = append(courses, crs)
	}
	return courses
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs.ID = uuid.New().String()
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.table[id]; ok {
		c := *crs
		c.Modules = nil
		return c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := repo.query()

	if filter.Search != "" {
		var filtered []course.Course
		search := strings.ToLower(filter.Search)
		for _, c := range courses {
			if strings.Contains(strings.ToLower(c.Title), search) ||
				strings.Contains(strings.ToLower(c.Description), search) {
				filtered = append(filtered, c)
			}
		}
		courses = filtered
	}
	if courses != nil && filter.Category != "" {
		var filtered []course.Course
		for _, c := range courses {
			if c.Category == filter.Category {
				filtered = append(filtered, c)
			}
		}
		courses = filtered
	}
	if courses != nil && filter.Status != "" {
		var filtered []course.Course
		for _, c := range courses {
			if c.Status == filter.Status {
				filtered = append(filtered, c)
			}
		}
		courses = filtered
	}
	if courses != nil && filter.InstructorID != "" {
		var filtered []course.Course
		for _, c := range courses {
			if c.InstructorID == filter.InstructorID {
				filtered = append(filtered, c)
			}
		}
		courses = filtered
	}

	sortCourses(courses, filter.Orderings)
	return courses, nil
}

// sortCourses honors the first requested ordering only; real sorting lives in SQL.
func sortCourses(courses []course.Course, ords []core.DBOrdering) {
	field, asc := "created_at", false
	if len(ords) > 0 {
		field, asc = ords[0].Field, ords[0].Ascending
	}
	sort.Slice(courses, func(i, j int) bool {
		var less bool
		switch field {
		case "title":
			less = courses[i].Title < courses[j].Title
		case "category":
			less = courses[i].Category < courses[j].Category
		case "price":
			less = courses[i].Price < courses[j].Price
		case "status":
			less = courses[i].Status < courses[j].Status
		default:
			less = courses[i].CreatedAt.Before(courses[j].CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	crs.CreatedAt = orig.CreatedAt
	crs.Modules = nil
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) CreateModule(_ context.Context, mod course.Module, _ ...core.DBExecutor) (course.Module, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	mod.ID = uuid.New().String()
	repo.db.modules[mod.ID] = &mod
	return mod, nil
}

func (repo *courseRepository) GetModuleByID(_ context.Context, id string) (course.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mod, ok := repo.db.modules[id]; ok {
		return *mod, nil
	}
	return course.Module{}, course.ErrModuleNotFound
}

func (repo *courseRepository) GetCourseModules(_ context.Context, courseID string) ([]course.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	mods := make([]course.Module, 0)
	for _, mod := range repo.db.modules {
		if mod.CourseID == courseID {
			mods = append(mods, *mod)
		}
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].OrderSequence < mods[j].OrderSequence })
	return mods, nil
}

func (repo *courseRepository) UpdateModule(_ context.Context, mod course.Module, _ ...core.DBExecutor) (course.Module, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.modules[mod.ID]
	if !ok {
		return course.Module{}, course.ErrModuleNotFound
	}
	mod.CreatedAt = orig.CreatedAt
	repo.db.modules[mod.ID] = &mod
	return mod, nil
}
