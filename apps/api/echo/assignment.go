package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

type assignmentApi struct {
	svc    assignment.Service
	usrSvc user.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc assignment.Service, usrSvc user.Service) {
	api := assignmentApi{svc: svc, usrSvc: usrSvc}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create, teacherMiddleware())
	ag.GET("/recent", api.queryRecent)
	ag.GET("/created", api.queryCreated, teacherMiddleware())
	ag.GET("/completed", api.queryCompleted, studentMiddleware())
	ag.GET("/uncompleted", api.queryUncompleted, studentMiddleware())
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, teacherMiddleware())
	ag.POST("/:id/complete", api.complete, studentMiddleware())
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	a, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) queryRecent(ctx echo.Context) error {
	as, err := api.svc.QueryRecent(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying recent assignments")
	}
	if as == nil {
		as = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *assignmentApi) queryCreated(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	as, err := api.svc.QueryByAuthor(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying created assignments")
	}
	if as == nil {
		as = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *assignmentApi) queryCompleted(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	as, err := api.svc.Completed(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying completed assignments")
	}
	if as == nil {
		as = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *assignmentApi) queryUncompleted(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	as, err := api.svc.Uncompleted(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying uncompleted assignments")
	}
	if as == nil {
		as = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	a, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) complete(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.Complete(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "completing assignment")
	}
	return ctx.JSON(http.StatusOK, res)
}
