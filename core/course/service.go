package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("course not found")
	ErrModuleNotFound    = errors.New("module not found")
	ErrNotOwner          = errors.New("course does not belong to this instructor")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// FilterCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Course.Title or Course.Description.
		FilterCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)

		CreateModule(ctx context.Context, mod Module, exec ...core.DBExecutor) (Module, error)
		GetModuleByID(ctx context.Context, id string) (Module, error)
		// GetCourseModules returns the course's modules in ascending OrderSequence.
		GetCourseModules(ctx context.Context, courseID string) ([]Module, error)
		UpdateModule(ctx context.Context, mod Module, exec ...core.DBExecutor) (Module, error)
	}

	ServiceInterface interface {
		ListPublic(ctx context.Context, filter QueryFilter) ([]Course, error)
		GetPublic(ctx context.Context, id string) (Course, error)
		Get(ctx context.Context, id string) (Course, error)
		QueryAll(ctx context.Context, filter QueryFilter) ([]Course, error)
		Create(ctx context.Context, actor user.Identity, nc NewCourse) (Course, error)
		Update(ctx context.Context, actor user.Identity, id string, uc UpdateCourse) (Course, error)
		ListByInstructor(ctx context.Context, instructorID string) ([]Course, error)
		AddModule(ctx context.Context, actor user.Identity, courseID string, nm NewModule) (Module, error)
		GetModule(ctx context.Context, moduleID string) (Module, error)
		UpdateModule(ctx context.Context, actor user.Identity, moduleID string, um UpdateModule) (Module, error)
		Modules(ctx context.Context, courseID string) ([]Module, error)
		SetStatus(ctx context.Context, id string, ss SetCourseStatus) (Course, error)
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository) *service {
	return &service{db: db, repo: repo}
}

// NewServiceMock returns a service ready for use in tests.
func NewServiceMock(db core.DB, repo Repository) *service {
	return NewService(db, repo)
}

// getOwned fetches a course and checks that actor owns it; admins bypass the check.
func (svc *service) getOwned(ctx context.Context, actor user.Identity, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !actor.IsAdmin() && !crs.OwnedBy(actor.ID) {
		return Course{}, ErrNotOwner
	}
	return crs, nil
}

func (svc *service) ListPublic(ctx context.Context, filter QueryFilter) ([]Course, error) {
	filter.Clean()
	filter.Status = StatusApproved
	return svc.repo.FilterCourses(ctx, filter)
}

func (svc *service) GetPublic(ctx context.Context, id string) (Course, error) {
	crs, err := svc.Get(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !crs.IsApproved() {
		return Course{}, ErrNotFound
	}
	return crs, nil
}

// Get returns a course of any status, modules populated.
func (svc *service) Get(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if crs.Modules, err = svc.repo.GetCourseModules(ctx, id); err != nil {
		return Course{}, errors.Wrap(err, "loading course modules")
	}
	return crs, nil
}

func (svc *service) QueryAll(ctx context.Context, filter QueryFilter) ([]Course, error) {
	filter.Clean()
	return svc.repo.FilterCourses(ctx, filter)
}

func (svc *service) Create(ctx context.Context, actor user.Identity, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Title:        nc.Title,
		Description:  nc.Description,
		Category:     nc.Category,
		InstructorID: actor.ID,
		Price:        nc.Price,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) Update(ctx context.Context, actor user.Identity, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.getOwned(ctx, actor, id)
	if err != nil {
		return Course{}, err
	}

	crs.Title = uc.Title
	crs.Description = uc.Description
	crs.Category = uc.Category
	if uc.Price != nil {
		crs.Price = *uc.Price
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) ListByInstructor(ctx context.Context, instructorID string) ([]Course, error) {
	return svc.repo.FilterCourses(ctx, QueryFilter{InstructorID: instructorID})
}

func (svc *service) AddModule(ctx context.Context, actor user.Identity, courseID string, nm NewModule) (Module, error) {
	if _, err := svc.getOwned(ctx, actor, courseID); err != nil {
		return Module{}, err
	}

	now := time.Now().UTC()
	mod := Module{
		CourseID:      courseID,
		Title:         nm.Title,
		Type:          ModuleType(nm.Type),
		ContentURL:    nm.ContentURL,
		OrderSequence: nm.OrderSequence,
		Duration:      nm.Duration,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateModule(ctx, mod)
}

func (svc *service) GetModule(ctx context.Context, moduleID string) (Module, error) {
	return svc.repo.GetModuleByID(ctx, moduleID)
}

func (svc *service) UpdateModule(ctx context.Context, actor user.Identity, moduleID string, um UpdateModule) (Module, error) {
	mod, err := svc.repo.GetModuleByID(ctx, moduleID)
	if err != nil {
		return Module{}, err
	}
	if _, err = svc.getOwned(ctx, actor, mod.CourseID); err != nil {
		return Module{}, err
	}

	mod.Title = um.Title
	mod.ContentURL = um.ContentURL
	if um.OrderSequence != nil {
		mod.OrderSequence = *um.OrderSequence
	}
	if um.Duration != nil {
		mod.Duration = *um.Duration
	}
	mod.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateModule(ctx, mod)
}

func (svc *service) Modules(ctx context.Context, courseID string) ([]Module, error) {
	return svc.repo.GetCourseModules(ctx, courseID)
}

func (svc *service) SetStatus(ctx context.Context, id string, ss SetCourseStatus) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}

	newStatus := Status(ss.Status)
	if !crs.Status.CanTransition(newStatus) {
		return Course{}, core.NewValidationError(ErrInvalidTransition,
			core.FieldError{Field: "status", Error: ErrInvalidTransition.Error()})
	}

	crs.Status = newStatus
	crs.ReviewNote = ss.Note
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}
