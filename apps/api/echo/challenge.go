package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/challenge"
	"github.com/trezcool/darasa/core/user"
)

type challengeApi struct {
	svc    challenge.Service
	usrSvc user.Service
}

func registerChallengeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc challenge.Service, usrSvc user.Service) {
	api := challengeApi{svc: svc, usrSvc: usrSvc}

	cg := g.Group("/challenges", jwt)
	cg.POST("", api.create, teacherMiddleware())
	cg.GET("", api.query)
	cg.GET("/created", api.queryCreated, teacherMiddleware())
	cg.GET("/board", api.board, studentMiddleware())
	cg.GET("/:id", api.retrieve)
	cg.POST("/:id/submit", api.submit, studentMiddleware())
}

// Handlers

func (api *challengeApi) create(ctx echo.Context) error {
	var data challenge.NewChallenge
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChallenge")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ch, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating challenge")
	}
	return ctx.JSON(http.StatusCreated, ch)
}

// query lists all challenges with the correct answers stripped.
func (api *challengeApi) query(ctx echo.Context) error {
	chs, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying challenges")
	}

	sanitized := make([]challenge.Challenge, 0, len(chs))
	for _, ch := range chs {
		sanitized = append(sanitized, ch.Sanitized())
	}
	return ctx.JSON(http.StatusOK, sanitized)
}

// queryCreated lists the calling teacher's own challenges, answers included.
func (api *challengeApi) queryCreated(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	chs, err := api.svc.QueryByCreator(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying created challenges")
	}
	if chs == nil {
		chs = []challenge.Challenge{}
	}
	return ctx.JSON(http.StatusOK, chs)
}

func (api *challengeApi) board(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	board, err := api.svc.StudentBoard(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying student board")
	}
	return ctx.JSON(http.StatusOK, board)
}

func (api *challengeApi) retrieve(ctx echo.Context) error {
	ch, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding challenge by ID")
	}
	return ctx.JSON(http.StatusOK, ch.Sanitized())
}

func (api *challengeApi) submit(ctx echo.Context) error {
	var data SubmitChallengeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitChallengeRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	res, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.Answers)
	if err != nil {
		return errors.Wrap(err, "submitting challenge")
	}
	return ctx.JSON(http.StatusOK, res)
}

type SubmitChallengeRequest struct {
	Answers [][]string `json:"answers"`
}
