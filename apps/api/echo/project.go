package echoapi

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/project"
	"github.com/trezcool/darasa/core/user"
)

type projectApi struct {
	svc    project.Service
	usrSvc user.Service
}

func registerProjectAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc project.Service, usrSvc user.Service) {
	api := projectApi{svc: svc, usrSvc: usrSvc}

	pg := g.Group("/projects", jwt)
	pg.POST("", api.create, teacherMiddleware())
	pg.GET("/created", api.queryCreated, teacherMiddleware())
	pg.GET("/completed", api.queryCompleted, studentMiddleware())
	pg.GET("/uncompleted", api.queryUncompleted, studentMiddleware())
	pg.GET("/:id", api.retrieve)
	pg.POST("/:id/submit", api.submitFile, studentMiddleware())
}

// Handlers

// create posts a new project from a multipart form: title, description, tags
// (comma-separated), optional "teacher_files" and "files" parts.
func (api *projectApi) create(ctx echo.Context) error {
	data := project.NewProject{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
	}
	if tags := ctx.FormValue("tags"); tags != "" {
		data.Tags = strings.Split(tags, ",")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return errors.Wrap(err, "parsing multipart form")
	}
	teacherFiles, closers, err := openUploads(form.File["teacher_files"])
	if err != nil {
		return err
	}
	defer closeAll(closers)
	studentFiles, sClosers, err := openUploads(form.File["files"])
	if err != nil {
		return err
	}
	defer closeAll(sClosers)

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data, teacherFiles, studentFiles)
	if err != nil {
		return errors.Wrap(err, "creating project")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *projectApi) queryCreated(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ps, err := api.svc.QueryByCreator(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying created projects")
	}
	if ps == nil {
		ps = []project.Project{}
	}
	return ctx.JSON(http.StatusOK, ps)
}

func (api *projectApi) queryCompleted(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ps, err := api.svc.Completed(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying completed projects")
	}
	if ps == nil {
		ps = []project.Project{}
	}
	return ctx.JSON(http.StatusOK, ps)
}

func (api *projectApi) queryUncompleted(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ps, err := api.svc.Uncompleted(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying uncompleted projects")
	}
	if ps == nil {
		ps = []project.Project{}
	}
	return ctx.JSON(http.StatusOK, ps)
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding project by ID")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) submitFile(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return errors.Wrap(err, "reading file part")
	}
	ups, closers, err := openUploads([]*multipart.FileHeader{fh})
	if err != nil {
		return err
	}
	defer closeAll(closers)

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.SubmitFile(ctx.Request().Context(), ctx.Param("id"), ctxUsr, ups[0])
	if err != nil {
		return errors.Wrap(err, "submitting project file")
	}
	return ctx.JSON(http.StatusOK, p)
}

func openUploads(fhs []*multipart.FileHeader) ([]project.Upload, []multipart.File, error) {
	ups := make([]project.Upload, 0, len(fhs))
	closers := make([]multipart.File, 0, len(fhs))
	for _, fh := range fhs {
		f, err := fh.Open()
		if err != nil {
			closeAll(closers)
			return nil, nil, errors.Wrap(err, "opening uploaded file")
		}
		closers = append(closers, f)
		ups = append(ups, project.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Content:     f,
		})
	}
	return ups, closers, nil
}

func closeAll(closers []multipart.File) {
	for _, c := range closers {
		_ = c.Close()
	}
}
