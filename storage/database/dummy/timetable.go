package dummydb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/darasa/core/timetable"
)

type timetableRepository struct {
	db *timetableTable
}

var _ timetable.Repository = (*timetableRepository)(nil) // interface compliance check

func NewTimetableRepository(db *DB) timetable.Repository {
	return &timetableRepository{db: db.timetable}
}

func (repo *timetableRepository) UpsertTimetable(_ context.Context, tt timetable.Timetable) (timetable.Timetable, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.table[tt.ClassID]; ok {
		orig.Days = tt.Days
		orig.UpdatedAt = tt.UpdatedAt
		return *orig, nil
	}
	tt.ID = primitive.NewObjectID().Hex()
	repo.db.table[tt.ClassID] = &tt
	return tt, nil
}

func (repo *timetableRepository) GetTimetableByClassID(_ context.Context, classID string) (timetable.Timetable, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tt, ok := repo.db.table[classID]; ok {
		return *tt, nil
	}
	return timetable.Timetable{}, timetable.ErrNotFound
}
