package challenge

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Answers
const (
	AnswerYes = "Yes"
	AnswerNo  = "No"
)

type (
	// Question is a yes/no question owned by exactly one Chapter.
	Question struct {
		Prompt string `json:"prompt"`
		// Answer is the correct answer. It is only serialized for the creator's
		// own listings; read endpoints serving the question form must go through
		// Sanitized first.
		Answer string `json:"answer,omitempty"`
	}

	// Chapter is an ordered list of questions owned by exactly one Challenge.
	Chapter struct {
		Description string     `json:"description"`
		Questions   []Question `json:"questions"`
	}

	// Challenge is a quiz-like assignment with a reward payout. The chapter and
	// question ordering is fixed at creation; submissions are matched positionally
	// against it. A Challenge is never updated or deleted.
	Challenge struct {
		ID           string    `json:"id"`
		Title        string    `json:"title"`
		Chapters     []Chapter `json:"chapters"`
		RewardAura   int       `json:"reward_aura"`
		RewardCredit int       `json:"reward_credit"`
		Creator      string    `json:"creator"`
		CreatedAt    time.Time `json:"created_at"` // UTC
		UpdatedAt    time.Time `json:"updated_at"` // UTC
	}
)

// Sanitized returns a copy with every correct answer stripped, safe to serve to
// students taking the challenge.
func (c Challenge) Sanitized() Challenge {
	chapters := make([]Chapter, len(c.Chapters))
	for ci, chap := range c.Chapters {
		questions := make([]Question, len(chap.Questions))
		for qi, q := range chap.Questions {
			questions[qi] = Question{Prompt: q.Prompt}
		}
		chapters[ci] = Chapter{Description: chap.Description, Questions: questions}
	}
	c.Chapters = chapters
	return c
}

// Grade compares submitted answers position-by-position against the answer key.
// There is no partial credit: any missing or mismatched position fails the whole
// submission. A submission larger than the challenge structure is a shape error.
func (c *Challenge) Grade(answers [][]string) error {
	if len(answers) > len(c.Chapters) {
		return core.NewValidationError(errShapeMismatch)
	}
	for ci, chap := range c.Chapters {
		if ci < len(answers) && len(answers[ci]) > len(chap.Questions) {
			return core.NewValidationError(errShapeMismatch)
		}
	}

	for ci, chap := range c.Chapters {
		for qi, q := range chap.Questions {
			if ci >= len(answers) || qi >= len(answers[ci]) || answers[ci][qi] != q.Answer {
				return core.NewValidationError(errIncorrectAnswers)
			}
		}
	}
	return nil
}

type (
	NewQuestion struct {
		Prompt string `json:"prompt" validate:"required"`
		Answer string `json:"answer" validate:"required,yesno"`
	}

	NewChapter struct {
		Description string        `json:"description" validate:"required,max=400"`
		Questions   []NewQuestion `json:"questions" validate:"required,min=1,dive"`
	}

	// NewChallenge contains information needed to create a new Challenge.
	NewChallenge struct {
		Title        string       `json:"title" validate:"required"`
		Chapters     []NewChapter `json:"chapters" validate:"required,min=1,dive"`
		RewardAura   int          `json:"reward_aura" validate:"min=0"`
		RewardCredit int          `json:"reward_credit" validate:"min=0"`
	}
)

func (nc *NewChallenge) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	for i := range nc.Chapters {
		nc.Chapters[i].Description = core.CleanString(nc.Chapters[i].Description)
		for j := range nc.Chapters[i].Questions {
			q := &nc.Chapters[i].Questions[j]
			q.Prompt = core.CleanString(q.Prompt)
			q.Answer = core.CleanString(q.Answer)
		}
	}
	return core.Validate.Struct(nc)
}

// Board splits all challenges into those the student has already been rewarded
// for and those still open.
type Board struct {
	Completed   []Challenge `json:"completed"`
	Uncompleted []Challenge `json:"uncompleted"`
}
