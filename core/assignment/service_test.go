package assignment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

func setup(t *testing.T) (assignment.Service, user.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	return assignment.NewService(dummydb.NewAssignmentRepository(db), usrRepo), usrRepo
}

func createUser(t *testing.T, repo user.Repository, uname, role, section, branch string) user.User {
	t.Helper()

	usr, err := repo.CreateUser(context.Background(), user.User{
		Name: uname, Username: uname, Email: uname + "@test.cd",
		Role: role, IsActive: true, Section: section, Branch: branch,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func create(t *testing.T, svc assignment.Service, author user.User, title string, aura int) assignment.Assignment {
	t.Helper()

	a, err := svc.Create(context.Background(), author, assignment.NewAssignment{
		Title:       title,
		Description: "Do the thing.",
		DueDate:     time.Now().UTC().Add(72 * time.Hour),
		AuraPoint:   aura,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return a
}

func Test_service_Complete(t *testing.T) {
	svc, usrRepo := setup(t)
	ctx := context.Background()

	teacher := createUser(t, usrRepo, "teacher1", user.RoleTeacher, "", "")
	student := createUser(t, usrRepo, "student1", user.RoleStudent, "", "")
	a := create(t, svc, teacher, "Week 1 Homework", 25)

	t.Run("unknown assignment", func(t *testing.T) {
		_, err := svc.Complete(ctx, "60e1b1b1b1b1b1b1b1b1b1b1", student)
		assert.Equal(t, assignment.ErrNotFound, err)
	})

	t.Run("first completion credits the points", func(t *testing.T) {
		res, err := svc.Complete(ctx, a.ID, student)
		assert.NoError(t, err)
		assert.Equal(t, "Assignment marked as completed", res.Message)
		assert.Equal(t, 25, res.AuraPoints)

		u, err := usrRepo.GetUserByID(ctx, student.ID)
		assert.NoError(t, err)
		assert.Equal(t, 25, u.AuraPoints)
		assert.Equal(t, []string{a.ID}, u.CompletedAssignments)

		// the assignment itself is flagged done
		got, err := svc.GetByID(ctx, a.ID)
		assert.NoError(t, err)
		assert.True(t, got.Complete)
	})

	t.Run("repeat completion is rejected and awards nothing", func(t *testing.T) {
		_, err := svc.Complete(ctx, a.ID, student)
		assert.EqualError(t, err, "assignment already marked as completed")

		u, err := usrRepo.GetUserByID(ctx, student.ID)
		assert.NoError(t, err)
		assert.Equal(t, 25, u.AuraPoints)
		assert.Len(t, u.CompletedAssignments, 1)
	})
}

func Test_service_Uncompleted(t *testing.T) {
	svc, usrRepo := setup(t)
	ctx := context.Background()

	cseTeacher := createUser(t, usrRepo, "cseteacher", user.RoleTeacher, "a", "CSE")
	eceTeacher := createUser(t, usrRepo, "eceteacher", user.RoleTeacher, "a", "ECE")
	student := createUser(t, usrRepo, "student1", user.RoleStudent, "a", "CSE")

	done := create(t, svc, cseTeacher, "CSE Week 1", 10)
	open := create(t, svc, cseTeacher, "CSE Week 2", 10)
	create(t, svc, eceTeacher, "ECE Week 1", 10)

	if _, err := svc.Complete(ctx, done.ID, student); err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	student, err := usrRepo.GetUserByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}

	// only open work from the student's own section and branch shows up
	got, err := svc.Uncompleted(ctx, student)
	assert.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, open.ID, got[0].ID)
	}
}
