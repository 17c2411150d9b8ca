package timetable

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("timetable not found")
)

type (
	Repository interface {
		// UpsertTimetable stores the schedule for its class, replacing any
		// previous one.
		UpsertTimetable(ctx context.Context, tt Timetable) (Timetable, error)
		GetTimetableByClassID(ctx context.Context, classID string) (Timetable, error)
	}

	Service interface {
		Set(ctx context.Context, nt NewTimetable) (Timetable, error)
		GetByClassID(ctx context.Context, classID string) (Timetable, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Set(ctx context.Context, nt NewTimetable) (Timetable, error) {
	now := time.Now().UTC()
	tt := Timetable{
		ClassID:   nt.ClassID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tt.Days = make([]Day, 0, len(nt.Days))
	for _, nd := range nt.Days {
		day := Day{Day: nd.Day}
		day.Slots = make([]Slot, 0, len(nd.Slots))
		for _, ns := range nd.Slots {
			day.Slots = append(day.Slots, Slot{Subject: ns.Subject, Time: ns.Time})
		}
		tt.Days = append(tt.Days, day)
	}
	return svc.repo.UpsertTimetable(ctx, tt)
}

func (svc *service) GetByClassID(ctx context.Context, classID string) (Timetable, error) {
	// class ids are stored lowercased
	return svc.repo.GetTimetableByClassID(ctx, core.CleanString(classID, true))
}
