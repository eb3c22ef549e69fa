package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/stats"
)

type adminApi struct {
	courseSvc course.ServiceInterface
	statsSvc  stats.ServiceInterface
	validate  *validator.Validate
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, courseSvc course.ServiceInterface, statsSvc stats.ServiceInterface, validate *validator.Validate) {
	api := adminApi{courseSvc: courseSvc, statsSvc: statsSvc, validate: validate}

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/stats", api.platformStats)
	ag.GET("/courses", api.queryCourses)
	ag.PUT("/courses/:id/status", api.setCourseStatus)
}

// Handlers

func (api *adminApi) platformStats(ctx echo.Context) error {
	pf, err := api.statsSvc.Platform(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing platform stats")
	}
	return ctx.JSON(http.StatusOK, pf)
}

func (api *adminApi) queryCourses(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	filter.Orderings = ordering.Orderings

	courses, err := api.courseSvc.QueryAll(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *adminApi) setCourseStatus(ctx echo.Context) error {
	var data course.SetCourseStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetCourseStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.courseSvc.SetStatus(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}
