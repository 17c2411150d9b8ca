package dummydb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/darasa/core/project"
)

type projectRepository struct {
	db *projectTable
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *DB) project.Repository {
	return &projectRepository{db: db.project}
}

func (repo *projectRepository) CreateProject(_ context.Context, p project.Project) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p.ID = primitive.NewObjectID().Hex()
	repo.db.table[p.ID] = &p
	repo.db.order = append(repo.db.order, p.ID)
	return p, nil
}

func (repo *projectRepository) GetProjectByID(_ context.Context, id string) (project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return project.Project{}, project.ErrNotFound
}

func (repo *projectRepository) QueryProjectsBySubmitter(_ context.Context, submitterID string) ([]project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	projects := make([]project.Project, 0)
	for i := len(repo.db.order) - 1; i >= 0; i-- {
		if p := repo.db.table[repo.db.order[i]]; p.Submitter == submitterID {
			projects = append(projects, *p)
		}
	}
	return projects, nil
}

func (repo *projectRepository) QueryProjectsByIDs(_ context.Context, ids []string) ([]project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	projects := make([]project.Project, 0, len(ids))
	for _, id := range ids {
		if p, ok := repo.db.table[id]; ok {
			projects = append(projects, *p)
		}
	}
	return projects, nil
}

func (repo *projectRepository) QueryProjectsBySubmitters(_ context.Context, submitterIDs, excludedIDs []string) ([]project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	submitters := make(map[string]bool, len(submitterIDs))
	for _, id := range submitterIDs {
		submitters[id] = true
	}
	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}

	projects := make([]project.Project, 0)
	for i := len(repo.db.order) - 1; i >= 0; i-- {
		p := repo.db.table[repo.db.order[i]]
		if submitters[p.Submitter] && !excluded[p.ID] {
			projects = append(projects, *p)
		}
	}
	return projects, nil
}

func (repo *projectRepository) AddProjectFile(_ context.Context, projectID string, f project.File) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.table[projectID]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	p.Files = append(p.Files, f)
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}
