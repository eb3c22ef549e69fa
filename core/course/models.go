package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// Status is the moderation state of a Course.
type Status string

const (
	StatusPending  = Status("pending")
	StatusApproved = Status("approved")
	StatusArchived = Status("archived")
)

var (
	AllStatuses = []Status{StatusPending, StatusApproved, StatusArchived}

	// statusTransitions lists the allowed Status transitions;
	// anything not listed here is rejected.
	statusTransitions = map[Status][]Status{
		StatusPending:  {StatusApproved, StatusArchived},
		StatusApproved: {StatusArchived},
		StatusArchived: {StatusApproved},
	}
)

func (s Status) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s Status) CanTransition(to Status) bool {
	for _, st := range statusTransitions[s] {
		if to == st {
			return true
		}
	}
	return false
}

// ModuleType is the content type of a Module.
type ModuleType string

const (
	ModuleVideo = ModuleType("video")
	ModulePDF   = ModuleType("pdf")
	ModuleQuiz  = ModuleType("quiz")
)

var AllModuleTypes = []ModuleType{ModuleVideo, ModulePDF, ModuleQuiz}

func (t ModuleType) Valid() bool {
	for _, mt := range AllModuleTypes {
		if t == mt {
			return true
		}
	}
	return false
}

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	InstructorID string    `json:"instructor_id"`
	Price        float64   `json:"price"` // 0 = free
	Status       Status    `json:"status"`
	ReviewNote   string    `json:"review_note,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC

	// Modules are populated on detail reads, in ascending OrderSequence.
	Modules []Module `json:"modules,omitempty"`
}

func (c Course) IsFree() bool       { return c.Price == 0 }
func (c Course) IsApproved() bool   { return c.Status == StatusApproved }
func (c Course) OwnedBy(id string) bool { return c.InstructorID == id }

type Module struct {
	ID            string     `json:"id"`
	CourseID      string     `json:"course_id"`
	Title         string     `json:"title"`
	Type          ModuleType `json:"type"`
	ContentURL    string     `json:"content_url"`
	OrderSequence int        `json:"order_sequence"`
	Duration      int        `json:"duration,omitempty"` // minutes
	CreatedAt     time.Time  `json:"created_at"`         // UTC
	UpdatedAt     time.Time  `json:"updated_at"`         // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category, true /* lower */)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate, orig Course) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = orig.Title
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = orig.Description
	}
	if cat := core.CleanString(uc.Category, true /* lower */); cat != "" {
		uc.Category = cat
	} else {
		uc.Category = orig.Category
	}
	return validate.Struct(uc)
}

// NewModule contains information needed to add a Module to a Course.
type NewModule struct {
	Title         string `json:"title" validate:"required"`
	Type          string `json:"type" validate:"required,moduletype"`
	ContentURL    string `json:"content_url" validate:"required,url"`
	OrderSequence int    `json:"order_sequence" validate:"gte=0"`
	Duration      int    `json:"duration" validate:"gte=0"`
}

func (nm *NewModule) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Type = core.CleanString(nm.Type, true /* lower */)
	nm.ContentURL = core.CleanString(nm.ContentURL)
	return validate.Struct(nm)
}

// UpdateModule defines what information may be provided to modify an existing Module.
type UpdateModule struct {
	Title         string `json:"title"`
	ContentURL    string `json:"content_url" validate:"omitempty,url"`
	OrderSequence *int   `json:"order_sequence" validate:"omitempty,gte=0"`
	Duration      *int   `json:"duration" validate:"omitempty,gte=0"`
}

func (um *UpdateModule) Validate(validate *validator.Validate, orig Module) error {
	if title := core.CleanString(um.Title); title != "" {
		um.Title = title
	} else {
		um.Title = orig.Title
	}
	if u := core.CleanString(um.ContentURL); u != "" {
		um.ContentURL = u
	} else {
		um.ContentURL = orig.ContentURL
	}
	return validate.Struct(um)
}

// SetCourseStatus is the admin moderation payload.
type SetCourseStatus struct {
	Status string `json:"status" validate:"required,coursestatus"`
	Note   string `json:"note"`
}

func (ss *SetCourseStatus) Validate(validate *validator.Validate) error {
	ss.Status = core.CleanString(ss.Status, true /* lower */)
	ss.Note = core.CleanString(ss.Note)
	return validate.Struct(ss)
}

type QueryFilter struct {
	Search       string `query:"search"`
	Category     string `query:"category"`
	Status       Status `query:"status"`
	InstructorID string `query:"instructor"`

	Orderings []core.DBOrdering `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Category == "" && qf.Status == "" && qf.InstructorID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}
