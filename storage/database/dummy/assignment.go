package dummydb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/darasa/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = primitive.NewObjectID().Hex()
	repo.db.table[a.ID] = &a
	repo.db.order = append(repo.db.order, a.ID)
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(_ context.Context, id string) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryRecentAssignments(_ context.Context, limit int) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assignments := make([]assignment.Assignment, 0, limit)
	for i := len(repo.db.order) - 1; i >= 0 && len(assignments) < limit; i-- {
		assignments = append(assignments, *repo.db.table[repo.db.order[i]])
	}
	return assignments, nil
}

func (repo *assignmentRepository) QueryAssignmentsByAuthor(_ context.Context, authorID string) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assignments := make([]assignment.Assignment, 0)
	for i := len(repo.db.order) - 1; i >= 0; i-- {
		if a := repo.db.table[repo.db.order[i]]; a.Author == authorID {
			assignments = append(assignments, *a)
		}
	}
	return assignments, nil
}

func (repo *assignmentRepository) QueryAssignmentsByIDs(_ context.Context, ids []string) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assignments := make([]assignment.Assignment, 0, len(ids))
	for _, id := range ids {
		if a, ok := repo.db.table[id]; ok {
			assignments = append(assignments, *a)
		}
	}
	return assignments, nil
}

func (repo *assignmentRepository) QueryAssignmentsByAuthors(_ context.Context, authorIDs, excludedIDs []string) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	authors := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = true
	}
	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}

	assignments := make([]assignment.Assignment, 0)
	for i := len(repo.db.order) - 1; i >= 0; i-- {
		a := repo.db.table[repo.db.order[i]]
		if authors[a.Author] && !excluded[a.ID] {
			assignments = append(assignments, *a)
		}
	}
	return assignments, nil
}

func (repo *assignmentRepository) UpdateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[a.ID]; !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	repo.db.table[a.ID] = &a
	return a, nil
}
