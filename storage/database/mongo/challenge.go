package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core/challenge"
)

var _ challenge.Repository = (*challengeRepository)(nil)

type (
	questionDoc struct {
		Prompt string `bson:"prompt"`
		Answer string `bson:"answer"`
	}

	chapterDoc struct {
		Description string        `bson:"description"`
		Questions   []questionDoc `bson:"questions"`
	}

	challengeDoc struct {
		ID           primitive.ObjectID `bson:"_id,omitempty"`
		Title        string             `bson:"title"`
		Chapters     []chapterDoc       `bson:"chapters"`
		RewardAura   int                `bson:"reward_aura"`
		RewardCredit int                `bson:"reward_credit"`
		Creator      primitive.ObjectID `bson:"creator"`
		CreatedAt    time.Time          `bson:"created_at"`
		UpdatedAt    time.Time          `bson:"updated_at"`
	}
)

func newChallengeDoc(ch challenge.Challenge) (challengeDoc, error) {
	doc := challengeDoc{
		Title:        ch.Title,
		Chapters:     make([]chapterDoc, 0, len(ch.Chapters)),
		RewardAura:   ch.RewardAura,
		RewardCredit: ch.RewardCredit,
		CreatedAt:    ch.CreatedAt,
		UpdatedAt:    ch.UpdatedAt,
	}
	if ch.ID != "" {
		oid, err := primitive.ObjectIDFromHex(ch.ID)
		if err != nil {
			return challengeDoc{}, errors.Wrap(err, "invalid challenge ID")
		}
		doc.ID = oid
	}
	creator, err := primitive.ObjectIDFromHex(ch.Creator)
	if err != nil {
		return challengeDoc{}, errors.Wrap(err, "invalid creator ID")
	}
	doc.Creator = creator
	for _, chap := range ch.Chapters {
		questions := make([]questionDoc, 0, len(chap.Questions))
		for _, q := range chap.Questions {
			questions = append(questions, questionDoc{Prompt: q.Prompt, Answer: q.Answer})
		}
		doc.Chapters = append(doc.Chapters, chapterDoc{Description: chap.Description, Questions: questions})
	}
	return doc, nil
}

func (doc challengeDoc) toChallenge() challenge.Challenge {
	ch := challenge.Challenge{
		ID:           doc.ID.Hex(),
		Title:        doc.Title,
		Chapters:     make([]challenge.Chapter, 0, len(doc.Chapters)),
		RewardAura:   doc.RewardAura,
		RewardCredit: doc.RewardCredit,
		Creator:      doc.Creator.Hex(),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	for _, chap := range doc.Chapters {
		questions := make([]challenge.Question, 0, len(chap.Questions))
		for _, q := range chap.Questions {
			questions = append(questions, challenge.Question{Prompt: q.Prompt, Answer: q.Answer})
		}
		ch.Chapters = append(ch.Chapters, challenge.Chapter{Description: chap.Description, Questions: questions})
	}
	return ch
}

type challengeRepository struct {
	coll *mongo.Collection
}

func NewChallengeRepository(db *mongo.Database) challenge.Repository {
	return &challengeRepository{coll: db.Collection(challengeCollection)}
}

func (repo *challengeRepository) CreateChallenge(ctx context.Context, ch challenge.Challenge) (challenge.Challenge, error) {
	doc, err := newChallengeDoc(ch)
	if err != nil {
		return challenge.Challenge{}, err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if _, err = repo.coll.InsertOne(ctx, doc); err != nil {
		return challenge.Challenge{}, errors.Wrap(err, "inserting challenge")
	}
	ch.ID = doc.ID.Hex()
	return ch, nil
}

func (repo *challengeRepository) GetChallengeByID(ctx context.Context, id string) (challenge.Challenge, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return challenge.Challenge{}, challenge.ErrNotFound
	}
	var doc challengeDoc
	if err = repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return challenge.Challenge{}, challenge.ErrNotFound
		}
		return challenge.Challenge{}, errors.Wrap(err, "finding challenge")
	}
	return doc.toChallenge(), nil
}

func (repo *challengeRepository) QueryAllChallenges(ctx context.Context) ([]challenge.Challenge, error) {
	return repo.queryChallenges(ctx, bson.M{})
}

func (repo *challengeRepository) QueryChallengesByCreator(ctx context.Context, creatorID string) ([]challenge.Challenge, error) {
	oid, err := primitive.ObjectIDFromHex(creatorID)
	if err != nil {
		return nil, nil
	}
	return repo.queryChallenges(ctx, bson.M{"creator": oid})
}

func (repo *challengeRepository) queryChallenges(ctx context.Context, filter bson.M) ([]challenge.Challenge, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying challenges")
	}
	defer cur.Close(ctx)

	var chs []challenge.Challenge
	for cur.Next(ctx) {
		var doc challengeDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding challenge")
		}
		chs = append(chs, doc.toChallenge())
	}
	if err = cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating challenges")
	}
	return chs, nil
}
