package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/enroll"
	"github.com/darasahq/darasa/core/user"
)

type enrollApi struct {
	svc       enroll.ServiceInterface
	courseSvc course.ServiceInterface
	validate  *validator.Validate
}

func registerEnrollAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc enroll.ServiceInterface, courseSvc course.ServiceInterface, validate *validator.Validate) {
	api := enrollApi{svc: svc, courseSvc: courseSvc, validate: validate}

	g.POST("/courses/:id/enroll", api.enroll, jwt)
	g.POST("/courses/:id/modules/:moduleID/complete", api.completeModule, jwt)
	g.POST("/courses/:id/modules/:moduleID/quiz", api.submitQuiz, jwt)

	sg := g.Group("/student", jwt)
	sg.GET("/courses", api.listOwn)
	sg.GET("/courses/:id", api.retrieveOwn)
	sg.GET("/certificates", api.certificates)

	g.GET("/instructor/enrollments", api.listForInstructor, jwt, authorize(user.RoleInstructor))
}

// Handlers

func (api *enrollApi) enroll(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollApi) listOwn(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	enrs, err := api.svc.ListByUser(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "listing enrollments")
	}
	if enrs == nil {
		enrs = []enroll.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

// retrieveOwn returns the enrollment with the course outline. Module content
// links are stripped until the enrollment grants access.
func (api *enrollApi) retrieveOwn(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	courseID := ctx.Param("id")

	enr, err := api.svc.Get(ctx.Request().Context(), actor.ID, courseID)
	if err != nil {
		return err
	}
	mods, err := api.courseSvc.Modules(ctx.Request().Context(), courseID)
	if err != nil {
		return errors.Wrap(err, "getting course modules")
	}
	hasAccess, err := api.svc.HasAccess(ctx.Request().Context(), actor.ID, courseID)
	if err != nil {
		return errors.Wrap(err, "checking course access")
	}
	if !hasAccess {
		for i := range mods {
			mods[i].ContentURL = ""
		}
	}
	if mods == nil {
		mods = []course.Module{}
	}
	return ctx.JSON(http.StatusOK, EnrollmentDetailResponse{
		Enrollment:      enr,
		Modules:         mods,
		NextModuleIndex: enr.NextModuleIndex(mods),
	})
}

func (api *enrollApi) completeModule(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	enr, err := api.svc.CompleteModule(ctx.Request().Context(), actor, ctx.Param("id"), ctx.Param("moduleID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollApi) submitQuiz(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	var data enroll.QuizSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuizSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.SubmitQuiz(ctx.Request().Context(), actor, ctx.Param("id"), ctx.Param("moduleID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *enrollApi) certificates(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	certs, err := api.svc.Certificates(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "listing certificates")
	}
	if certs == nil {
		certs = []enroll.Certificate{}
	}
	return ctx.JSON(http.StatusOK, certs)
}

func (api *enrollApi) listForInstructor(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	enrs, err := api.svc.ListByInstructor(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "listing instructor enrollments")
	}
	if enrs == nil {
		enrs = []enroll.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

type EnrollmentDetailResponse struct {
	Enrollment      enroll.Enrollment `json:"enrollment"`
	Modules         []course.Module   `json:"modules"`
	NextModuleIndex int               `json:"next_module_index"`
}
