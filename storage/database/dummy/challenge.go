package dummydb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/darasa/core/challenge"
)

type challengeRepository struct {
	db *challengeTable
}

var _ challenge.Repository = (*challengeRepository)(nil) // interface compliance check

func NewChallengeRepository(db *DB) challenge.Repository {
	return &challengeRepository{db: db.challenge}
}

func (repo *challengeRepository) CreateChallenge(_ context.Context, ch challenge.Challenge) (challenge.Challenge, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ch.ID = primitive.NewObjectID().Hex()
	repo.db.table[ch.ID] = &ch
	repo.db.order = append(repo.db.order, ch.ID)
	return ch, nil
}

func (repo *challengeRepository) GetChallengeByID(_ context.Context, id string) (challenge.Challenge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ch, ok := repo.db.table[id]; ok {
		return *ch, nil
	}
	return challenge.Challenge{}, challenge.ErrNotFound
}

func (repo *challengeRepository) QueryAllChallenges(_ context.Context) ([]challenge.Challenge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	challenges := make([]challenge.Challenge, 0, len(repo.db.order))
	for i := len(repo.db.order) - 1; i >= 0; i-- {
		challenges = append(challenges, *repo.db.table[repo.db.order[i]])
	}
	return challenges, nil
}

func (repo *challengeRepository) QueryChallengesByCreator(_ context.Context, creatorID string) ([]challenge.Challenge, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	challenges := make([]challenge.Challenge, 0)
	for i := len(repo.db.order) - 1; i >= 0; i-- {
		if ch := repo.db.table[repo.db.order[i]]; ch.Creator == creatorID {
			challenges = append(challenges, *ch)
		}
	}
	return challenges, nil
}
