package dummydb

import (
	"sync"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/challenge"
	"github.com/trezcool/darasa/core/project"
	"github.com/trezcool/darasa/core/timetable"
	"github.com/trezcool/darasa/core/user"
)

// DB is a mutex-guarded in-memory store. It backs the DEV server and the test
// suites; semantics mirror the mongo repositories.
type (
	DB struct {
		user       *userTable
		challenge  *challengeTable
		assignment *assignmentTable
		project    *projectTable
		timetable  *timetableTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	challengeTable struct {
		sync.RWMutex
		table map[string]*challenge.Challenge
		order []string // insertion order; newest-first queries walk it backwards
	}

	assignmentTable struct {
		sync.RWMutex
		table map[string]*assignment.Assignment
		order []string
	}

	projectTable struct {
		sync.RWMutex
		table map[string]*project.Project
		order []string
	}

	timetableTable struct {
		sync.RWMutex
		table map[string]*timetable.Timetable // keyed by class id; one schedule per class
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		challenge:  &challengeTable{table: make(map[string]*challenge.Challenge)},
		assignment: &assignmentTable{table: make(map[string]*assignment.Assignment)},
		project:    &projectTable{table: make(map[string]*project.Project)},
		timetable:  &timetableTable{table: make(map[string]*timetable.Timetable)},
	}
	return db, nil
}
