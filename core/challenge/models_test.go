package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ch(chapters ...Chapter) *Challenge {
	return &Challenge{Title: "Go Basics", Chapters: chapters}
}

func Test_Challenge_Grade(t *testing.T) {
	single := ch(Chapter{
		Description: "Fundamentals",
		Questions: []Question{
			{Prompt: "Is Go compiled?", Answer: AnswerYes},
			{Prompt: "Is Go dynamically typed?", Answer: AnswerNo},
		},
	})
	double := ch(
		Chapter{Description: "Part 1", Questions: []Question{{Prompt: "q1", Answer: AnswerYes}}},
		Chapter{Description: "Part 2", Questions: []Question{{Prompt: "q2", Answer: AnswerNo}}},
	)

	tests := []struct {
		name    string
		ch      *Challenge
		answers [][]string
		wantErr error
	}{
		{name: "all correct", ch: single, answers: [][]string{{"Yes", "No"}}},
		{name: "wrong answer", ch: single, answers: [][]string{{"Yes", "Yes"}}, wantErr: errIncorrectAnswers},
		{name: "missing answer", ch: single, answers: [][]string{{"Yes"}}, wantErr: errIncorrectAnswers},
		{name: "no answers at all", ch: single, answers: nil, wantErr: errIncorrectAnswers},
		{name: "too many chapters", ch: single, answers: [][]string{{"Yes", "No"}, {"Yes"}}, wantErr: errShapeMismatch},
		{name: "too many answers in a chapter", ch: single, answers: [][]string{{"Yes", "No", "Yes"}}, wantErr: errShapeMismatch},
		{name: "order matters across chapters", ch: double, answers: [][]string{{"No"}, {"Yes"}}, wantErr: errIncorrectAnswers},
		{name: "positional match across chapters", ch: double, answers: [][]string{{"Yes"}, {"No"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ch.Grade(tt.answers)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr.Error())
			}
		})
	}
}

func Test_Challenge_Sanitized(t *testing.T) {
	orig := Challenge{
		ID:    "ch1",
		Title: "Go Basics",
		Chapters: []Chapter{{
			Description: "Fundamentals",
			Questions:   []Question{{Prompt: "Is Go compiled?", Answer: AnswerYes}},
		}},
		RewardAura:   10,
		RewardCredit: 5,
	}

	clean := orig.Sanitized()
	assert.Equal(t, orig.ID, clean.ID)
	assert.Equal(t, orig.RewardAura, clean.RewardAura)
	assert.Equal(t, "Is Go compiled?", clean.Chapters[0].Questions[0].Prompt)
	assert.Empty(t, clean.Chapters[0].Questions[0].Answer)

	// the original answer key is untouched
	assert.Equal(t, AnswerYes, orig.Chapters[0].Questions[0].Answer)
}
