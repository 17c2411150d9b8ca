package user

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Badges, derived at read time from the combined reward points.
const (
	BadgeRookie       = "Rookie"
	BadgeNovice       = "Novice"
	BadgeIntermediate = "Intermediate"
	BadgeAdvanced     = "Advanced"
)

// Branches a User may belong to.
var Branches = []string{"CSE", "ECE", "CHEM_ENG", "PIE", "ME", "CE", "EE", "IT", "None"}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	IsActive     bool   `json:"is_active"`
	Role         string `json:"role"`
	Avatar       string `json:"avatar,omitempty"`
	Section      string `json:"section,omitempty"`
	Semester     string `json:"semester,omitempty"`
	Branch       string `json:"branch,omitempty"`
	AuraPoints   int    `json:"aura_points"`
	CreditPoints int    `json:"credit_points"`

	// completion records; membership is the idempotency guard for rewards
	CompletedChallenges  []string `json:"completed_challenges"`
	CompletedAssignments []string `json:"completed_assignments"`
	SubmittedProjects    []string `json:"submitted_projects"`

	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// Badge computes the achievement tier from the combined reward points.
// It is never persisted so it is always consistent with the current totals.
func (u *User) Badge() string {
	switch combined := u.AuraPoints + u.CreditPoints; {
	case combined < 20:
		return BadgeRookie
	case combined < 50:
		return BadgeNovice
	case combined < 100:
		return BadgeIntermediate
	default:
		return BadgeAdvanced
	}
}

// HasCompletedChallenge reports membership in the completion set.
func (u *User) HasCompletedChallenge(challengeID string) bool {
	for _, id := range u.CompletedChallenges {
		if id == challengeID {
			return true
		}
	}
	return false
}

func (u *User) HasCompletedAssignment(assignmentID string) bool {
	for _, id := range u.CompletedAssignments {
		if id == assignmentID {
			return true
		}
	}
	return false
}

func (u *User) HasSubmittedProject(projectID string) bool {
	for _, id := range u.SubmittedProjects {
		if id == projectID {
			return true
		}
	}
	return false
}

func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		Badge string `json:"badge"`
	}{alias(u), u.Badge()})
}

// NewUser contains information needed to register a new User.
// The role is always "student"; teachers are provisioned via the admin CLI.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"required,min=6,alphanum_"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Section         string `json:"section"`
	Semester        string `json:"semester"`
	Branch          string `json:"branch" validate:"omitempty,branch"`
}

func (nu *NewUser) Validate(ctx context.Context, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Section = core.CleanString(nu.Section, true /* lower */)
	nu.Semester = core.CleanString(nu.Semester)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// The role and reward totals are not editable here.
type UpdateUser struct {
	Name            string `json:"name"`
	Username        string `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Avatar          string `json:"avatar"`
	Section         string `json:"section"`
	Semester        string `json:"semester"`
	Branch          string `json:"branch" validate:"omitempty,branch"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, svc Service) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	uname := core.CleanString(uu.Username, true /* lower */)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	uu.Section = core.CleanString(uu.Section, true /* lower */)
	uu.Semester = core.CleanString(uu.Semester)

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Username, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

// LeaderboardEntry is the read-side projection served on the leaderboard.
type LeaderboardEntry struct {
	Username   string `json:"username"`
	AuraPoints int    `json:"aura_points"`
	Avatar     string `json:"avatar,omitempty"`
	Badge      string `json:"badge"`
}
