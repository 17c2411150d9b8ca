package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/timetable"
)

type timetableApi struct {
	svc timetable.Service
}

func registerTimetableAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc timetable.Service) {
	api := timetableApi{svc: svc}

	tg := g.Group("/timetables", jwt)
	tg.POST("", api.set, teacherMiddleware())
	tg.GET("/:classID", api.retrieve)
}

// Handlers

// set creates a class schedule or replaces the existing one wholesale.
func (api *timetableApi) set(ctx echo.Context) error {
	var data timetable.NewTimetable
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTimetable")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	tt, err := api.svc.Set(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting timetable")
	}
	return ctx.JSON(http.StatusCreated, tt)
}

func (api *timetableApi) retrieve(ctx echo.Context) error {
	tt, err := api.svc.GetByClassID(ctx.Request().Context(), ctx.Param("classID"))
	if err != nil {
		return errors.Wrap(err, "finding timetable by class ID")
	}
	return ctx.JSON(http.StatusOK, tt)
}
