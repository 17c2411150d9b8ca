package dummydb

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exclUsrsLen := len(excludedUsers)
	if exclUsrsLen > 1 {
		sort.Slice(excludedUsers, func(i, j int) bool { return excludedUsers[i].ID < excludedUsers[j].ID })
	}

	for _, usr := range repo.query() {
		if usr.Username == username && !isExcluded(usr, excludedUsers, exclUsrsLen) {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email && !isExcluded(usr, excludedUsers, exclUsrsLen) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = primitive.NewObjectID().Hex()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(_ context.Context, username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if (usr.Username == username) || (usr.Email == username) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryLeaderboard(_ context.Context, limit int) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]user.User, 0, len(repo.db.table))
	for _, usr := range repo.query() {
		if usr.IsStudent() && usr.IsActive {
			students = append(students, usr)
		}
	}
	// aura desc, credit desc tie-break, same as the mongo sort
	sort.SliceStable(students, func(i, j int) bool {
		if students[i].AuraPoints != students[j].AuraPoints {
			return students[i].AuraPoints > students[j].AuraPoints
		}
		return students[i].CreditPoints > students[j].CreditPoints
	})
	if len(students) > limit {
		students = students[:limit]
	}
	return students, nil
}

func (repo *userRepository) QueryTeachers(_ context.Context, section, branch string) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	teachers := make([]user.User, 0)
	for _, usr := range repo.query() {
		if usr.IsTeacher() && usr.IsActive && usr.Section == section && usr.Branch == branch {
			teachers = append(teachers, usr)
		}
	}
	return teachers, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	origUsr, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		origUsr.IsActive = *isActive
	}
	if usr.Name != "" {
		origUsr.Name = usr.Name
	}
	if usr.Username != "" {
		origUsr.Username = usr.Username
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	origUsr.Avatar = usr.Avatar
	origUsr.Section = usr.Section
	origUsr.Semester = usr.Semester
	origUsr.Branch = usr.Branch
	origUsr.UpdatedAt = usr.UpdatedAt

	repo.db.table[usr.ID] = origUsr
	return *origUsr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	if origUsr, ok := repo.db.table[usr.ID]; ok {
		origUsr.Name = usr.Name
		origUsr.Username = usr.Username
		origUsr.Email = usr.Email
		origUsr.Role = usr.Role
		origUsr.IsActive = usr.IsActive
		origUsr.PasswordHash = usr.PasswordHash
		origUsr.UpdatedAt = time.Now().UTC()
		repo.db.Unlock()
		return *origUsr, nil
	}
	repo.db.Unlock()
	return repo.CreateUser(ctx, usr)
}

func (repo *userRepository) SetLastLogin(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	origUsr, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	origUsr.LastLogin = time.Now().UTC()
	return *origUsr, nil
}

func (repo *userRepository) AwardChallenge(_ context.Context, userID, challengeID string, aura, credit int) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.table[userID]
	if !ok {
		return false, user.ErrNotFound
	}
	// check-then-act under the table lock, like the mongo conditional update
	if usr.HasCompletedChallenge(challengeID) {
		return false, nil
	}
	usr.CompletedChallenges = append(usr.CompletedChallenges, challengeID)
	usr.AuraPoints += aura
	usr.CreditPoints += credit
	usr.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (repo *userRepository) CompleteAssignment(_ context.Context, userID, assignmentID string, aura int) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.table[userID]
	if !ok {
		return false, user.ErrNotFound
	}
	if usr.HasCompletedAssignment(assignmentID) {
		return false, nil
	}
	usr.CompletedAssignments = append(usr.CompletedAssignments, assignmentID)
	usr.AuraPoints += aura
	usr.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (repo *userRepository) AddSubmittedProject(_ context.Context, userID, projectID string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.table[userID]
	if !ok {
		return false, user.ErrNotFound
	}
	if usr.HasSubmittedProject(projectID) {
		return false, nil
	}
	usr.SubmittedProjects = append(usr.SubmittedProjects, projectID)
	usr.UpdatedAt = time.Now().UTC()
	return true, nil
}

func isExcluded(usr user.User, excludedUsers []user.User, n int) bool {
	if n <= 0 {
		return false
	}
	idx := sort.Search(n, func(i int) bool { return excludedUsers[i].ID >= usr.ID })
	return idx < n && excludedUsers[idx].ID == usr.ID
}
