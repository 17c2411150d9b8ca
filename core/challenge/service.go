package challenge

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("challenge not found")

	errIncorrectAnswers = errors.New("some answers are incorrect. Please try again.")
	errShapeMismatch    = errors.New("submission does not match the challenge structure")
)

type (
	Repository interface {
		CreateChallenge(ctx context.Context, ch Challenge) (Challenge, error)
		GetChallengeByID(ctx context.Context, id string) (Challenge, error)
		// QueryAllChallenges returns challenges ordered by creation time, newest first.
		QueryAllChallenges(ctx context.Context) ([]Challenge, error)
		QueryChallengesByCreator(ctx context.Context, creatorID string) ([]Challenge, error)
	}

	// SubmitResult is returned on a successful submission, whether the reward
	// was granted now or on an earlier submission.
	SubmitResult struct {
		Message     string `json:"message"`
		ChallengeID string `json:"challengeId"`
	}

	Service interface {
		Create(ctx context.Context, creator user.User, nc NewChallenge) (Challenge, error)
		GetByID(ctx context.Context, id string) (Challenge, error)
		QueryAll(ctx context.Context) ([]Challenge, error)
		QueryByCreator(ctx context.Context, creatorID string) ([]Challenge, error)
		StudentBoard(ctx context.Context, usr user.User) (Board, error)
		Submit(ctx context.Context, challengeID, submitterID string, answers [][]string) (SubmitResult, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository) Service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
	}
}

func (svc *service) Create(ctx context.Context, creator user.User, nc NewChallenge) (Challenge, error) {
	now := time.Now().UTC()
	ch := Challenge{
		Title:        nc.Title,
		RewardAura:   nc.RewardAura,
		RewardCredit: nc.RewardCredit,
		Creator:      creator.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	ch.Chapters = make([]Chapter, 0, len(nc.Chapters))
	for _, nchap := range nc.Chapters {
		chap := Chapter{Description: nchap.Description}
		chap.Questions = make([]Question, 0, len(nchap.Questions))
		for _, nq := range nchap.Questions {
			chap.Questions = append(chap.Questions, Question{Prompt: nq.Prompt, Answer: nq.Answer})
		}
		ch.Chapters = append(ch.Chapters, chap)
	}
	return svc.repo.CreateChallenge(ctx, ch)
}

func (svc *service) GetByID(ctx context.Context, id string) (Challenge, error) {
	return svc.repo.GetChallengeByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Challenge, error) {
	return svc.repo.QueryAllChallenges(ctx)
}

func (svc *service) QueryByCreator(ctx context.Context, creatorID string) ([]Challenge, error) {
	return svc.repo.QueryChallengesByCreator(ctx, creatorID)
}

func (svc *service) StudentBoard(ctx context.Context, usr user.User) (Board, error) {
	all, err := svc.repo.QueryAllChallenges(ctx)
	if err != nil {
		return Board{}, err
	}
	board := Board{
		Completed:   make([]Challenge, 0, len(usr.CompletedChallenges)),
		Uncompleted: make([]Challenge, 0, len(all)),
	}
	for _, ch := range all {
		if usr.HasCompletedChallenge(ch.ID) {
			board.Completed = append(board.Completed, ch.Sanitized())
		} else {
			board.Uncompleted = append(board.Uncompleted, ch.Sanitized())
		}
	}
	return board, nil
}

// Submit grades a student's answers and awards the challenge rewards at most
// once. An incorrect submission mutates nothing and may be retried without
// limit; re-submitting an already-completed challenge succeeds without granting
// the rewards again.
func (svc *service) Submit(ctx context.Context, challengeID, submitterID string, answers [][]string) (SubmitResult, error) {
	ch, err := svc.repo.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := ch.Grade(answers); err != nil {
		return SubmitResult{}, err
	}

	usr, err := svc.usrRepo.GetUserByID(ctx, submitterID)
	if err != nil {
		return SubmitResult{}, err
	}

	// The membership check and the point increments are one conditional write;
	// a concurrent duplicate simply loses the race and awards nothing.
	if _, err := svc.usrRepo.AwardChallenge(ctx, usr.ID, ch.ID, ch.RewardAura, ch.RewardCredit); err != nil {
		return SubmitResult{}, err
	}

	return SubmitResult{
		Message:     "Challenge completed and added to your record!",
		ChallengeID: ch.ID,
	}, nil
}
