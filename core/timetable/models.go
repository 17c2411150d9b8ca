package timetable

import (
	"time"

	"github.com/trezcool/darasa/core"
)

type (
	// Slot is one subject taught at a given time of the day.
	Slot struct {
		Subject string `json:"subject"`
		Time    string `json:"time"`
	}

	// Day is an ordered list of slots for one day of the week.
	Day struct {
		Day   string `json:"day"`
		Slots []Slot `json:"slots"`
	}

	// Timetable is the weekly schedule of a class. A class has at most one;
	// setting it again replaces the previous schedule wholesale.
	Timetable struct {
		ID        string    `json:"id"`
		ClassID   string    `json:"class_id"`
		Days      []Day     `json:"days"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}
)

type (
	NewSlot struct {
		Subject string `json:"subject" validate:"required"`
		Time    string `json:"time" validate:"required"`
	}

	NewDay struct {
		Day   string    `json:"day" validate:"required"`
		Slots []NewSlot `json:"slots" validate:"required,min=1,dive"`
	}

	// NewTimetable contains information needed to set a class schedule.
	NewTimetable struct {
		ClassID string   `json:"class_id" validate:"required"`
		Days    []NewDay `json:"days" validate:"required,min=1,dive"`
	}
)

func (nt *NewTimetable) Validate() error {
	nt.ClassID = core.CleanString(nt.ClassID, true /* lower */)
	for i := range nt.Days {
		nt.Days[i].Day = core.CleanString(nt.Days[i].Day)
		for j := range nt.Days[i].Slots {
			s := &nt.Days[i].Slots[j]
			s.Subject = core.CleanString(s.Subject)
			s.Time = core.CleanString(s.Time)
		}
	}
	return core.Validate.Struct(nt)
}
