package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core/project"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

// fakeFileStore records uploads and hands back deterministic URLs.
type fakeFileStore struct {
	saved []string
}

func (fs *fakeFileStore) Save(_ context.Context, r io.Reader, filename, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	fs.saved = append(fs.saved, filename)
	return "https://files.test/" + filename, nil
}

func setupProjectAPI(t *testing.T) (*echo.Echo, user.Repository, project.Service, *fakeFileStore) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	usrSvc := user.NewServiceMock(usrRepo, emailsvc.NewConsoleServiceMock())
	fstore := &fakeFileStore{}
	svc := project.NewService(dummydb.NewProjectRepository(db), usrRepo, fstore)

	app, v1, jwt := initApp(t)
	registerProjectAPI(v1, jwt, svc, usrSvc)
	return app, usrRepo, svc, fstore
}

func newProjectForm(t *testing.T, fields map[string]string, files map[string][]string) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("writing form field failed: %v", err)
		}
	}
	for field, names := range files {
		for _, name := range names {
			fw, err := w.CreateFormFile(field, name)
			if err != nil {
				t.Fatalf("creating form file failed: %v", err)
			}
			if _, err := io.Copy(fw, strings.NewReader("file content for "+name)); err != nil {
				t.Fatalf("writing form file failed: %v", err)
			}
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer failed: %v", err)
	}
	return body, w.FormDataContentType()
}

func newFormRequest(method, path, token string, body *bytes.Buffer, contentType string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func createProject(t *testing.T, svc project.Service, creator user.User, title string) project.Project {
	t.Helper()

	p, err := svc.Create(context.Background(), creator, project.NewProject{
		Title: title, Description: "Build it.", Tags: []string{"go"},
	}, nil, nil)
	if err != nil {
		t.Fatalf("createProject() failed: %v", err)
	}
	return p
}

func Test_projectApi_create(t *testing.T) {
	app, usrRepo, _, fstore := setupProjectAPI(t)

	teacher := createUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createUser(t, usrRepo, "Student", "student1", "student@test.cd", "", user.RoleStudent, true)

	t.Run("students cannot post", func(t *testing.T) {
		body, ct := newProjectForm(t, map[string]string{"title": "Nope"}, nil)
		req, rec := newFormRequest(http.MethodPost, "/v1/projects", getToken(t, student), body, ct)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("title is required", func(t *testing.T) {
		body, ct := newProjectForm(t, map[string]string{"description": "no title"}, nil)
		req, rec := newFormRequest(http.MethodPost, "/v1/projects", getToken(t, teacher), body, ct)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: []byte(`{"title": "this field is required"}`)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("teacher posts with handouts", func(t *testing.T) {
		body, ct := newProjectForm(t,
			map[string]string{"title": "Compiler Project", "description": "Write a tiny compiler.", "tags": "go,compilers"},
			map[string][]string{"teacher_files": {"brief.pdf", "starter.zip"}},
		)
		req, rec := newFormRequest(http.MethodPost, "/v1/projects", getToken(t, teacher), body, ct)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var p project.Project
		if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "Compiler Project", p.Title)
		assert.Equal(t, []string{"go", "compilers"}, p.Tags)
		assert.Equal(t, teacher.ID, p.Submitter)
		assert.ElementsMatch(t, []project.File{
			{URL: "https://files.test/brief.pdf", FileType: project.FileTypePDF},
			{URL: "https://files.test/starter.zip", FileType: project.FileTypeZip},
		}, p.TeacherFiles)
		assert.ElementsMatch(t, []string{"brief.pdf", "starter.zip"}, fstore.saved)
	})
}

func Test_projectApi_submit(t *testing.T) {
	app, usrRepo, svc, _ := setupProjectAPI(t)

	teacher := createUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createUser(t, usrRepo, "Student", "student1", "student@test.cd", "", user.RoleStudent, true)
	p := createProject(t, svc, teacher, "Compiler Project")
	token := getToken(t, student)

	t.Run("unknown project", func(t *testing.T) {
		body, ct := newProjectForm(t, nil, map[string][]string{"file": {"work.pdf"}})
		req, rec := newFormRequest(http.MethodPost, "/v1/projects/60e1b1b1b1b1b1b1b1b1b1b1/submit", token, body, ct)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "project not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("submission stores the file and records it once", func(t *testing.T) {
		body, ct := newProjectForm(t, nil, map[string][]string{"file": {"work.pdf"}})
		req, rec := newFormRequest(http.MethodPost, "/v1/projects/"+p.ID+"/submit", token, body, ct)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var updated project.Project
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Equal(t, []project.File{{URL: "https://files.test/work.pdf", FileType: project.FileTypePDF}}, updated.Files)

		refreshed, err := usrRepo.GetUserByID(context.Background(), student.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		assert.Equal(t, []string{p.ID}, refreshed.SubmittedProjects)

		// resubmission adds another file but never duplicates the record
		body, ct = newProjectForm(t, nil, map[string][]string{"file": {"work-v2.zip"}})
		req, rec = newFormRequest(http.MethodPost, "/v1/projects/"+p.ID+"/submit", token, body, ct)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		refreshed, err = usrRepo.GetUserByID(context.Background(), student.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		assert.Equal(t, []string{p.ID}, refreshed.SubmittedProjects)
	})
}

func Test_projectApi_queries(t *testing.T) {
	app, usrRepo, svc, _ := setupProjectAPI(t)
	ctx := context.Background()

	teacher := createUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createUser(t, usrRepo, "Student", "student1", "student@test.cd", "", user.RoleStudent, true)

	first := createProject(t, svc, teacher, "Project One")
	second := createProject(t, svc, teacher, "Project Two")

	if _, err := usrRepo.AddSubmittedProject(ctx, student.ID, first.ID); err != nil {
		t.Fatalf("AddSubmittedProject() failed: %v", err)
	}

	studentToken := getToken(t, student)
	teacherToken := getToken(t, teacher)

	t.Run("created lists own posts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/projects/created", teacherToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, second, first)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("completed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/projects/completed", studentToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, first)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("uncompleted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/projects/uncompleted", studentToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, second)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/projects/"+first.ID, studentToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, first)}
		checkCodeAndData(t, tt, rec)
	})
}
