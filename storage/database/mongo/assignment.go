package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core/assignment"
)

var _ assignment.Repository = (*assignmentRepository)(nil)

type assignmentDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	DueDate     time.Time          `bson:"due_date"`
	AuraPoint   int                `bson:"aura_point"`
	Semester    string             `bson:"semester,omitempty"`
	Branch      string             `bson:"branch,omitempty"`
	Author      primitive.ObjectID `bson:"author"`
	Complete    bool               `bson:"complete"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func newAssignmentDoc(a assignment.Assignment) (assignmentDoc, error) {
	doc := assignmentDoc{
		Title:       a.Title,
		Description: a.Description,
		DueDate:     a.DueDate,
		AuraPoint:   a.AuraPoint,
		Semester:    a.Semester,
		Branch:      a.Branch,
		Complete:    a.Complete,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.ID != "" {
		oid, err := primitive.ObjectIDFromHex(a.ID)
		if err != nil {
			return assignmentDoc{}, errors.Wrap(err, "invalid assignment ID")
		}
		doc.ID = oid
	}
	author, err := primitive.ObjectIDFromHex(a.Author)
	if err != nil {
		return assignmentDoc{}, errors.Wrap(err, "invalid author ID")
	}
	doc.Author = author
	return doc, nil
}

func (doc assignmentDoc) toAssignment() assignment.Assignment {
	return assignment.Assignment{
		ID:          doc.ID.Hex(),
		Title:       doc.Title,
		Description: doc.Description,
		DueDate:     doc.DueDate,
		AuraPoint:   doc.AuraPoint,
		Semester:    doc.Semester,
		Branch:      doc.Branch,
		Author:      doc.Author.Hex(),
		Complete:    doc.Complete,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

type assignmentRepository struct {
	coll *mongo.Collection
}

func NewAssignmentRepository(db *mongo.Database) assignment.Repository {
	return &assignmentRepository{coll: db.Collection(assignmentCollection)}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	doc, err := newAssignmentDoc(a)
	if err != nil {
		return assignment.Assignment{}, err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if _, err = repo.coll.InsertOne(ctx, doc); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	a.ID = doc.ID.Hex()
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var doc assignmentDoc
	if err = repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment")
	}
	return doc.toAssignment(), nil
}

func (repo *assignmentRepository) QueryRecentAssignments(ctx context.Context, limit int) ([]assignment.Assignment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	return repo.queryAssignments(ctx, bson.M{}, opts)
}

func (repo *assignmentRepository) QueryAssignmentsByAuthor(ctx context.Context, authorID string) ([]assignment.Assignment, error) {
	oid, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return nil, nil
	}
	return repo.queryAssignments(ctx, bson.M{"author": oid}, nil)
}

func (repo *assignmentRepository) QueryAssignmentsByIDs(ctx context.Context, ids []string) ([]assignment.Assignment, error) {
	oids := hexToObjectIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	return repo.queryAssignments(ctx, bson.M{"_id": bson.M{"$in": oids}}, nil)
}

func (repo *assignmentRepository) QueryAssignmentsByAuthors(ctx context.Context, authorIDs, excludedIDs []string) ([]assignment.Assignment, error) {
	authors := hexToObjectIDs(authorIDs)
	if len(authors) == 0 {
		return nil, nil
	}
	filter := bson.M{"author": bson.M{"$in": authors}}
	if excluded := hexToObjectIDs(excludedIDs); len(excluded) > 0 {
		filter["_id"] = bson.M{"$nin": excluded}
	}
	return repo.queryAssignments(ctx, filter, nil)
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	doc, err := newAssignmentDoc(a)
	if err != nil {
		return assignment.Assignment{}, err
	}
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if res.MatchedCount == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return a, nil
}

func (repo *assignmentRepository) queryAssignments(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]assignment.Assignment, error) {
	if opts == nil {
		opts = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	}
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	defer cur.Close(ctx)

	var as []assignment.Assignment
	for cur.Next(ctx) {
		var doc assignmentDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding assignment")
		}
		as = append(as, doc.toAssignment())
	}
	if err = cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating assignments")
	}
	return as, nil
}

// hexToObjectIDs converts hex ids, silently dropping malformed ones.
func hexToObjectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}
