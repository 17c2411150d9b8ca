package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound  = errors.New("assignment not found")
	ErrNotAuthor = errors.New("you are not the author")

	errAlreadyCompleted = errors.New("assignment already marked as completed")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		// QueryRecentAssignments returns the latest `limit` assignments, newest first.
		QueryRecentAssignments(ctx context.Context, limit int) ([]Assignment, error)
		QueryAssignmentsByAuthor(ctx context.Context, authorID string) ([]Assignment, error)
		QueryAssignmentsByIDs(ctx context.Context, ids []string) ([]Assignment, error)
		// QueryAssignmentsByAuthors returns assignments authored by any of authorIDs,
		// excluding the given assignment ids.
		QueryAssignmentsByAuthors(ctx context.Context, authorIDs, excludedIDs []string) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	}

	// CompleteResult reports the student's running aura total after completion.
	CompleteResult struct {
		Message    string `json:"message"`
		AuraPoints int    `json:"aura_points"`
	}

	Service interface {
		Create(ctx context.Context, author user.User, na NewAssignment) (Assignment, error)
		GetByID(ctx context.Context, id string) (Assignment, error)
		QueryRecent(ctx context.Context) ([]Assignment, error)
		QueryByAuthor(ctx context.Context, authorID string) ([]Assignment, error)
		Update(ctx context.Context, id string, editor user.User, ua UpdateAssignment) (Assignment, error)
		Completed(ctx context.Context, usr user.User) ([]Assignment, error)
		Uncompleted(ctx context.Context, usr user.User) ([]Assignment, error)
		Complete(ctx context.Context, assignmentID string, usr user.User) (CompleteResult, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil)

const recentLimit = 10

func NewService(repo Repository, usrRepo user.Repository) Service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
	}
}

func (svc *service) Create(ctx context.Context, author user.User, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	a := Assignment{
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate,
		AuraPoint:   na.AuraPoint,
		Semester:    na.Semester,
		Branch:      na.Branch,
		Author:      author.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *service) QueryRecent(ctx context.Context) ([]Assignment, error) {
	return svc.repo.QueryRecentAssignments(ctx, recentLimit)
}

func (svc *service) QueryByAuthor(ctx context.Context, authorID string) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByAuthor(ctx, authorID)
}

func (svc *service) Update(ctx context.Context, id string, editor user.User, ua UpdateAssignment) (Assignment, error) {
	orig, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if orig.Author != editor.ID {
		return Assignment{}, ErrNotAuthor
	}
	if err := ua.Validate(orig); err != nil {
		return Assignment{}, err
	}

	orig.Title = ua.Title
	orig.Description = ua.Description
	orig.DueDate = ua.DueDate
	orig.AuraPoint = *ua.AuraPoint
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, orig)
}

func (svc *service) Completed(ctx context.Context, usr user.User) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByIDs(ctx, usr.CompletedAssignments)
}

// Uncompleted lists assignments posted by teachers of the student's section and
// branch that the student has not completed yet.
func (svc *service) Uncompleted(ctx context.Context, usr user.User) ([]Assignment, error) {
	teachers, err := svc.usrRepo.QueryTeachers(ctx, usr.Section, usr.Branch)
	if err != nil {
		return nil, err
	}
	teacherIDs := make([]string, 0, len(teachers))
	for _, t := range teachers {
		teacherIDs = append(teacherIDs, t.ID)
	}
	return svc.repo.QueryAssignmentsByAuthors(ctx, teacherIDs, usr.CompletedAssignments)
}

// Complete marks the assignment done for the student and credits its aura
// points at most once. A repeat completion is rejected.
func (svc *service) Complete(ctx context.Context, assignmentID string, usr user.User) (CompleteResult, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return CompleteResult{}, err
	}

	awarded, err := svc.usrRepo.CompleteAssignment(ctx, usr.ID, a.ID, a.AuraPoint)
	if err != nil {
		return CompleteResult{}, err
	}
	if !awarded {
		return CompleteResult{}, core.NewValidationError(errAlreadyCompleted)
	}

	if !a.Complete {
		a.Complete = true
		a.UpdatedAt = time.Now().UTC()
		if _, err := svc.repo.UpdateAssignment(ctx, a); err != nil {
			return CompleteResult{}, err
		}
	}

	updated, err := svc.usrRepo.GetUserByID(ctx, usr.ID)
	if err != nil {
		return CompleteResult{}, err
	}
	return CompleteResult{
		Message:    "Assignment marked as completed",
		AuraPoints: updated.AuraPoints,
	}, nil
}
