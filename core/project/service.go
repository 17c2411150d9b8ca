package project

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("project not found")
)

type (
	Repository interface {
		CreateProject(ctx context.Context, p Project) (Project, error)
		GetProjectByID(ctx context.Context, id string) (Project, error)
		QueryProjectsBySubmitter(ctx context.Context, submitterID string) ([]Project, error)
		QueryProjectsByIDs(ctx context.Context, ids []string) ([]Project, error)
		// QueryProjectsBySubmitters returns projects posted by any of submitterIDs,
		// excluding the given project ids.
		QueryProjectsBySubmitters(ctx context.Context, submitterIDs, excludedIDs []string) ([]Project, error)
		// AddProjectFile appends a student submission file to the project.
		AddProjectFile(ctx context.Context, projectID string, f File) (Project, error)
	}

	Service interface {
		Create(ctx context.Context, creator user.User, np NewProject, teacherFiles, studentFiles []Upload) (Project, error)
		GetByID(ctx context.Context, id string) (Project, error)
		QueryByCreator(ctx context.Context, creatorID string) ([]Project, error)
		Completed(ctx context.Context, usr user.User) ([]Project, error)
		Uncompleted(ctx context.Context, usr user.User) ([]Project, error)
		SubmitFile(ctx context.Context, projectID string, usr user.User, up Upload) (Project, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		fstore  core.FileStore
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, fstore core.FileStore) Service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
		fstore:  fstore,
	}
}

func (svc *service) saveUploads(ctx context.Context, ups []Upload) ([]File, error) {
	files := make([]File, 0, len(ups))
	for _, up := range ups {
		url, err := svc.fstore.Save(ctx, up.Content, up.Filename, up.ContentType)
		if err != nil {
			return nil, err
		}
		files = append(files, File{URL: url, FileType: FileTypeFor(up.Filename)})
	}
	return files, nil
}

func (svc *service) Create(
	ctx context.Context,
	creator user.User,
	np NewProject,
	teacherFiles, studentFiles []Upload,
) (Project, error) {
	tf, err := svc.saveUploads(ctx, teacherFiles)
	if err != nil {
		return Project{}, err
	}
	sf, err := svc.saveUploads(ctx, studentFiles)
	if err != nil {
		return Project{}, err
	}

	now := time.Now().UTC()
	p := Project{
		Title:        np.Title,
		Description:  np.Description,
		Tags:         np.Tags,
		Files:        sf,
		TeacherFiles: tf,
		Submitter:    creator.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateProject(ctx, p)
}

func (svc *service) GetByID(ctx context.Context, id string) (Project, error) {
	return svc.repo.GetProjectByID(ctx, id)
}

func (svc *service) QueryByCreator(ctx context.Context, creatorID string) ([]Project, error) {
	return svc.repo.QueryProjectsBySubmitter(ctx, creatorID)
}

func (svc *service) Completed(ctx context.Context, usr user.User) ([]Project, error) {
	return svc.repo.QueryProjectsByIDs(ctx, usr.SubmittedProjects)
}

// Uncompleted lists projects posted by teachers of the student's section and
// branch that the student has not submitted to yet.
func (svc *service) Uncompleted(ctx context.Context, usr user.User) ([]Project, error) {
	teachers, err := svc.usrRepo.QueryTeachers(ctx, usr.Section, usr.Branch)
	if err != nil {
		return nil, err
	}
	teacherIDs := make([]string, 0, len(teachers))
	for _, t := range teachers {
		teacherIDs = append(teacherIDs, t.ID)
	}
	return svc.repo.QueryProjectsBySubmitters(ctx, teacherIDs, usr.SubmittedProjects)
}

// SubmitFile stores the student's work on the project and records the project
// in the student's submission set at most once.
func (svc *service) SubmitFile(ctx context.Context, projectID string, usr user.User, up Upload) (Project, error) {
	p, err := svc.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return Project{}, err
	}

	url, err := svc.fstore.Save(ctx, up.Content, up.Filename, up.ContentType)
	if err != nil {
		return Project{}, err
	}
	p, err = svc.repo.AddProjectFile(ctx, p.ID, File{URL: url, FileType: FileTypeFor(up.Filename)})
	if err != nil {
		return Project{}, err
	}

	if _, err := svc.usrRepo.AddSubmittedProject(ctx, usr.ID, p.ID); err != nil {
		return Project{}, err
	}
	return p, nil
}
