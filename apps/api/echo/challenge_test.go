package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core/challenge"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

func setupChallengeAPI(t *testing.T) (*echo.Echo, user.Repository, challenge.Service) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	chSvc := challenge.NewService(dummydb.NewChallengeRepository(db), usrRepo)
	usrSvc := user.NewServiceMock(usrRepo, emailsvc.NewConsoleServiceMock())

	app, v1, jwt := initApp(t)
	registerChallengeAPI(v1, jwt, chSvc, usrSvc)
	return app, usrRepo, chSvc
}

func createChallenge(t *testing.T, svc challenge.Service, creator user.User, aura, credit int, chapters ...challenge.NewChapter) challenge.Challenge {
	t.Helper()

	if len(chapters) == 0 {
		chapters = []challenge.NewChapter{{
			Description: "Basics",
			Questions: []challenge.NewQuestion{
				{Prompt: "Is Go compiled?", Answer: challenge.AnswerYes},
				{Prompt: "Is Go dynamically typed?", Answer: challenge.AnswerNo},
			},
		}}
	}
	ch, err := svc.Create(context.Background(), creator, challenge.NewChallenge{
		Title:        "Go fundamentals",
		Chapters:     chapters,
		RewardAura:   aura,
		RewardCredit: credit,
	})
	if err != nil {
		t.Fatalf("createChallenge() failed: %v", err)
	}
	return ch
}

func Test_challengeApi_create(t *testing.T) {
	app, usrRepo, _ := setupChallengeAPI(t)

	teacher := createUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createUser(t, usrRepo, "Student", "student1", "student@test.cd", "", user.RoleStudent, true)

	body := marchallObj(t, challenge.NewChallenge{
		Title: "Go fundamentals",
		Chapters: []challenge.NewChapter{{
			Description: "Basics",
			Questions:   []challenge.NewQuestion{{Prompt: "Is Go compiled?", Answer: challenge.AnswerYes}},
		}},
		RewardAura:   10,
		RewardCredit: 5,
	})

	tests := []httpTest{
		{name: "anonymous", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student forbidden", body: body, token: getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "empty title", token: getToken(t, teacher),
			body:     marchallObj(t, challenge.NewChallenge{Chapters: []challenge.NewChapter{{Description: "d", Questions: []challenge.NewQuestion{{Prompt: "p", Answer: "Yes"}}}}}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"title": "this field is required"}`)},
		{name: "bad answer", token: getToken(t, teacher),
			body:     marchallObj(t, challenge.NewChallenge{Title: "T", Chapters: []challenge.NewChapter{{Description: "d", Questions: []challenge.NewQuestion{{Prompt: "p", Answer: "Maybe"}}}}}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"answer": "must be either Yes or No"}`)},
		{name: "description too long", token: getToken(t, teacher),
			body:     marchallObj(t, challenge.NewChallenge{Title: "T", Chapters: []challenge.NewChapter{{Description: strings.Repeat("x", 401), Questions: []challenge.NewQuestion{{Prompt: "p", Answer: "Yes"}}}}}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"description": "description must be a maximum of 400 characters in length"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/challenges", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("teacher creates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/challenges", getToken(t, teacher), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var ch challenge.Challenge
		if err := json.Unmarshal(rec.Body.Bytes(), &ch); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.NotEmpty(t, ch.ID)
		assert.Equal(t, teacher.ID, ch.Creator)
		assert.Equal(t, 10, ch.RewardAura)
		assert.Equal(t, 5, ch.RewardCredit)
	})
}

func Test_challengeApi_readsAreSanitized(t *testing.T) {
	app, usrRepo, chSvc := setupChallengeAPI(t)

	teacher := createUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createUser(t, usrRepo, "Student", "student1", "student@test.cd", "", user.RoleStudent, true)
	ch := createChallenge(t, chSvc, teacher, 10, 5)

	tests := []httpTest{
		{name: "list strips answers", method: http.MethodGet, path: "/v1/challenges",
			token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallList(t, ch.Sanitized())},
		{name: "detail strips answers", method: http.MethodGet, path: "/v1/challenges/" + ch.ID,
			token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, ch.Sanitized())},
		{name: "detail not found", method: http.MethodGet, path: "/v1/challenges/000000000000000000000000",
			token: getToken(t, student), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "challenge not found"})},
		{name: "creator listing keeps answers", method: http.MethodGet, path: "/v1/challenges/created",
			token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallList(t, ch)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name != "creator listing keeps answers" {
				assert.NotContains(t, rec.Body.String(), `"answer"`)
			}
		})
	}
}

func Test_challengeApi_board(t *testing.T) {
	app, usrRepo, chSvc := setupChallengeAPI(t)

	teacher := createUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createUser(t, usrRepo, "Student", "student1", "student@test.cd", "", user.RoleStudent, true)
	done := createChallenge(t, chSvc, teacher, 10, 5)
	open := createChallenge(t, chSvc, teacher, 20, 0)

	if _, err := usrRepo.AwardChallenge(context.Background(), student.ID, done.ID, done.RewardAura, done.RewardCredit); err != nil {
		t.Fatalf("AwardChallenge() failed: %v", err)
	}

	want := marchallObj(t, challenge.Board{
		Completed:   []challenge.Challenge{done.Sanitized()},
		Uncompleted: []challenge.Challenge{open.Sanitized()},
	})

	tt := httpTest{name: "board", wantCode: http.StatusOK, wantData: want}
	req, rec := newAuthRequest(http.MethodGet, "/v1/challenges/board", getToken(t, student))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
	assert.NotContains(t, rec.Body.String(), `"answer"`)
}

func Test_challengeApi_submit(t *testing.T) {
	app, usrRepo, chSvc := setupChallengeAPI(t)
	ctx := context.Background()

	teacher := createUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createUser(t, usrRepo, "Student", "student1", "student@test.cd", "", user.RoleStudent, true)
	ch := createChallenge(t, chSvc, teacher, 10, 5)
	token := getToken(t, student)

	wantSuccess := marchallObj(t, challenge.SubmitResult{
		Message:     "Challenge completed and added to your record!",
		ChallengeID: ch.ID,
	})

	tests := []httpTest{
		{name: "challenge not found", path: "/v1/challenges/000000000000000000000000/submit",
			body:     marchallObj(t, SubmitChallengeRequest{Answers: [][]string{{"Yes", "No"}}}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "challenge not found"})},
		{name: "too many chapters", path: "/v1/challenges/" + ch.ID + "/submit",
			body:     marchallObj(t, SubmitChallengeRequest{Answers: [][]string{{"Yes", "No"}, {"Yes"}}}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "submission does not match the challenge structure"})},
		{name: "too many answers in chapter", path: "/v1/challenges/" + ch.ID + "/submit",
			body:     marchallObj(t, SubmitChallengeRequest{Answers: [][]string{{"Yes", "No", "Yes"}}}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "submission does not match the challenge structure"})},
		{name: "wrong answers", path: "/v1/challenges/" + ch.ID + "/submit",
			body:     marchallObj(t, SubmitChallengeRequest{Answers: [][]string{{"No", "No"}}}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "some answers are incorrect. Please try again."})},
		{name: "missing answers", path: "/v1/challenges/" + ch.ID + "/submit",
			body:     marchallObj(t, SubmitChallengeRequest{Answers: [][]string{{"Yes"}}}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "some answers are incorrect. Please try again."})},
		{name: "all correct", path: "/v1/challenges/" + ch.ID + "/submit",
			body:     marchallObj(t, SubmitChallengeRequest{Answers: [][]string{{"Yes", "No"}}}),
			wantCode: http.StatusOK, wantData: wantSuccess},
		{name: "resubmission is idempotent", path: "/v1/challenges/" + ch.ID + "/submit",
			body:     marchallObj(t, SubmitChallengeRequest{Answers: [][]string{{"Yes", "No"}}}),
			wantCode: http.StatusOK, wantData: wantSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			refreshed, err := usrRepo.GetUserByID(ctx, student.ID)
			if err != nil {
				t.Fatalf("GetUserByID() failed: %v", err)
			}
			if tt.wantCode == http.StatusOK {
				// rewarded exactly once, no matter how many successful submissions
				assert.Equal(t, 10, refreshed.AuraPoints)
				assert.Equal(t, 5, refreshed.CreditPoints)
				assert.Equal(t, []string{ch.ID}, refreshed.CompletedChallenges)
			} else {
				// failed submissions never mutate the student
				assert.Equal(t, 0, refreshed.AuraPoints)
				assert.Equal(t, 0, refreshed.CreditPoints)
				assert.Empty(t, refreshed.CompletedChallenges)
			}
		})
	}
}
