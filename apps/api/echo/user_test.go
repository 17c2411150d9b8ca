package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

func setupUserAPI(t *testing.T) (*echo.Echo, user.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	usrSvc := user.NewServiceMock(usrRepo, emailsvc.NewConsoleServiceMock())

	app, v1, jwt := initApp(t)
	registerUserAPI(v1, jwt, usrSvc)
	return app, usrRepo
}

func Test_userApi_register(t *testing.T) {
	app, usrRepo := setupUserAPI(t)

	createUser(t, usrRepo, "Taken", "takenuser", "taken@test.cd", "", user.RoleStudent, true)

	tests := []httpTest{
		{name: "empty body", body: marchallObj(t, user.NewUser{}), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"name": "this field is required", "username": "this field is required",
				"email": "this field is required", "password": "this field is required",
				"password_confirm": "this field is required"}`)},
		{name: "password mismatch",
			body: marchallObj(t, user.NewUser{Name: "Awe Some", Username: "awesome1", Email: "awe@test.cd",
				Password: "f4ncy-p4ssw0rd!!", PasswordConfirm: "f4ncy-p4ssw0rd??"}),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password_confirm": "password_confirm must be equal to Password"}`)},
		{name: "username taken",
			body: marchallObj(t, user.NewUser{Name: "Awe Some", Username: "takenuser", Email: "awe@test.cd",
				Password: "f4ncy-p4ssw0rd!!", PasswordConfirm: "f4ncy-p4ssw0rd!!"}),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username": "a user with this username already exists"}`)},
		{name: "unknown branch",
			body: marchallObj(t, user.NewUser{Name: "Awe Some", Username: "awesome1", Email: "awe@test.cd",
				Password: "f4ncy-p4ssw0rd!!", PasswordConfirm: "f4ncy-p4ssw0rd!!", Branch: "ARTS"}),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"branch": "must be one of CSE, ECE, CHEM_ENG, PIE, ME, CE, EE, IT, None"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/register", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("registration is always a student", func(t *testing.T) {
		body := marchallObj(t, user.NewUser{
			Name: "Awe Some", Username: "awesome1", Email: "awe@test.cd",
			Password: "f4ncy-p4ssw0rd!!", PasswordConfirm: "f4ncy-p4ssw0rd!!",
			Branch: "CSE",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var usr user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.True(t, usr.IsActive)
		assert.Equal(t, user.BadgeRookie, usr.Badge())
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func Test_userApi_login(t *testing.T) {
	app, usrRepo := setupUserAPI(t)

	usr := createUser(t, usrRepo, "Awe Some", "awesome1", "awe@test.cd", "f4ncy-p4ssw0rd!!", user.RoleStudent, true)
	createUser(t, usrRepo, "Sleeper", "sleeper1", "zzz@test.cd", "f4ncy-p4ssw0rd!!", user.RoleStudent, false)

	tests := []httpTest{
		{name: "unknown user", body: marchallObj(t, LoginRequest{Username: "ghost", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "wrong password", body: marchallObj(t, LoginRequest{Username: usr.Username, Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "deactivated account", body: marchallObj(t, LoginRequest{Username: "sleeper1", Password: "f4ncy-p4ssw0rd!!"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("login with username sets cookie", func(t *testing.T) {
		body := marchallObj(t, LoginRequest{Username: usr.Username, Password: "f4ncy-p4ssw0rd!!"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var data LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.NotEmpty(t, data.Token)

		res := rec.Result()
		var cookie *http.Cookie
		for _, c := range res.Cookies() {
			if c.Name == authCookieName {
				cookie = c
			}
		}
		if cookie == nil {
			t.Fatal("auth cookie not set")
		}
		assert.Equal(t, data.Token, cookie.Value)
		assert.True(t, cookie.HttpOnly)

		refreshed, err := usrRepo.GetUserByID(context.Background(), usr.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		assert.False(t, refreshed.LastLogin.IsZero())
	})

	t.Run("login with email", func(t *testing.T) {
		body := marchallObj(t, LoginRequest{Username: usr.Email, Password: "f4ncy-p4ssw0rd!!"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userApi_me(t *testing.T) {
	app, usrRepo := setupUserAPI(t)

	usr := createUser(t, usrRepo, "Awe Some", "awesome1", "awe@test.cd", "f4ncy-p4ssw0rd!!", user.RoleStudent, true)
	token := getToken(t, usr)

	t.Run("requires auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/users/me")
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", token)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("cookie token works too", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/users/me")
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: token})
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update profile", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{Avatar: "https://cdn.test/me.png", Branch: "CSE", Semester: "S6"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/me", token, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var updated user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Equal(t, "https://cdn.test/me.png", updated.Avatar)
		assert.Equal(t, "CSE", updated.Branch)
		assert.Equal(t, usr.Username, updated.Username)
	})
}

func Test_userApi_resetPassword(t *testing.T) {
	app, usrRepo := setupUserAPI(t)

	usr := createUser(t, usrRepo, "Awe Some", "awesome1", "awe@test.cd", "f4ncy-p4ssw0rd!!", user.RoleStudent, true)
	wantData := marchallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	t.Run("unknown email does not leak", func(t *testing.T) {
		sent := len(emailsvc.SentMessages)
		body := marchallObj(t, PasswordResetRequest{Email: "ghost@test.cd"})
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: wantData}, rec)
		assert.Len(t, emailsvc.SentMessages, sent)
	})

	t.Run("known email gets a reset mail", func(t *testing.T) {
		sent := len(emailsvc.SentMessages)
		body := marchallObj(t, PasswordResetRequest{Email: usr.Email})
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: wantData}, rec)

		if len(emailsvc.SentMessages) != sent+1 {
			t.Fatalf("expected one new sent message, got %d", len(emailsvc.SentMessages)-sent)
		}
		msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
		assert.Equal(t, "Password Reset", msg.Subject)
		assert.Equal(t, usr.Email, msg.To[0].Address)
	})
}

func Test_userApi_leaderboard(t *testing.T) {
	app, usrRepo := setupUserAPI(t)
	ctx := context.Background()

	teacher := createUser(t, usrRepo, "Teacher", "teacher1", "teacher@test.cd", "", user.RoleTeacher, true)
	low := createUser(t, usrRepo, "Low", "lowstud", "low@test.cd", "", user.RoleStudent, true)
	high := createUser(t, usrRepo, "High", "highstud", "high@test.cd", "", user.RoleStudent, true)

	// 120 combined points -> Advanced; 10 -> Rookie
	if _, err := usrRepo.AwardChallenge(ctx, high.ID, "656e6f7567682d706f696e7473", 100, 20); err != nil {
		t.Fatalf("AwardChallenge() failed: %v", err)
	}
	if _, err := usrRepo.AwardChallenge(ctx, low.ID, "656e6f7567682d706f696e7473", 10, 0); err != nil {
		t.Fatalf("AwardChallenge() failed: %v", err)
	}

	want := marchallList(t,
		user.LeaderboardEntry{Username: high.Username, AuraPoints: 100, Badge: user.BadgeAdvanced},
		user.LeaderboardEntry{Username: low.Username, AuraPoints: 10, Badge: user.BadgeRookie},
	)

	tt := httpTest{wantCode: http.StatusOK, wantData: want}
	req, rec := newAuthRequest(http.MethodGet, "/v1/users/leaderboard", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)

	// teachers never rank
	assert.NotContains(t, rec.Body.String(), teacher.Username)
}

func Test_userApi_leaderboardTieBreak(t *testing.T) {
	app, usrRepo := setupUserAPI(t)
	ctx := context.Background()

	richCredit := createUser(t, usrRepo, "Rich", "richcred", "rich@test.cd", "", user.RoleStudent, true)
	poorCredit := createUser(t, usrRepo, "Poor", "poorcred", "poor@test.cd", "", user.RoleStudent, true)
	top := createUser(t, usrRepo, "Top", "topstud", "top@test.cd", "", user.RoleStudent, true)

	// equal aura resolves on credit
	if _, err := usrRepo.AwardChallenge(ctx, poorCredit.ID, "656e6f7567682d706f696e7473", 50, 5); err != nil {
		t.Fatalf("AwardChallenge() failed: %v", err)
	}
	if _, err := usrRepo.AwardChallenge(ctx, richCredit.ID, "656e6f7567682d706f696e7473", 50, 30); err != nil {
		t.Fatalf("AwardChallenge() failed: %v", err)
	}
	if _, err := usrRepo.AwardChallenge(ctx, top.ID, "656e6f7567682d706f696e7473", 80, 0); err != nil {
		t.Fatalf("AwardChallenge() failed: %v", err)
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/leaderboard", getToken(t, top))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []user.LeaderboardEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	usernames := make([]string, 0, len(entries))
	for _, e := range entries {
		usernames = append(usernames, e.Username)
	}
	assert.Equal(t, []string{top.Username, richCredit.Username, poorCredit.Username}, usernames)
}
