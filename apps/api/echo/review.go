package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/review"
)

type reviewApi struct {
	svc       review.ServiceInterface
	courseSvc course.ServiceInterface
	validate  *validator.Validate
}

func registerReviewAPI(g *echo.Group, jwt, optJWT echo.MiddlewareFunc, svc review.ServiceInterface, courseSvc course.ServiceInterface, validate *validator.Validate) {
	api := reviewApi{svc: svc, courseSvc: courseSvc, validate: validate}

	g.GET("/courses/:id/reviews", api.listForCourse, optJWT)
	g.POST("/courses/:id/reviews", api.add, jwt)
	g.POST("/reviews/:id/helpful", api.markHelpful, optJWT)
	g.POST("/reviews/:id/report", api.report, jwt)

	wg := g.Group("/wishlist", jwt)
	wg.GET("", api.wishlist)
	wg.POST("/:courseID", api.addToWishlist)
	wg.DELETE("/:courseID", api.removeFromWishlist)
}

// Handlers

func (api *reviewApi) listForCourse(ctx echo.Context) error {
	crs, err := api.courseSvc.GetPublic(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	reviews, err := api.svc.ListByCourse(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "listing course reviews")
	}
	if reviews == nil {
		reviews = []review.Review{}
	}
	return ctx.JSON(http.StatusOK, reviews)
}

func (api *reviewApi) add(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	var data review.NewReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReview")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rev, err := api.svc.Add(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rev)
}

func (api *reviewApi) markHelpful(ctx echo.Context) error {
	rev, err := api.svc.MarkHelpful(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rev)
}

func (api *reviewApi) report(ctx echo.Context) error {
	rev, err := api.svc.Report(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rev)
}

func (api *reviewApi) wishlist(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	items, err := api.svc.Wishlist(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "listing wishlist")
	}
	if items == nil {
		items = []review.WishlistItem{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *reviewApi) addToWishlist(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	item, err := api.svc.AddToWishlist(ctx.Request().Context(), actor, ctx.Param("courseID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, item)
}

func (api *reviewApi) removeFromWishlist(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.RemoveFromWishlist(ctx.Request().Context(), actor, ctx.Param("courseID")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
