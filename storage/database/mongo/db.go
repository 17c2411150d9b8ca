package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/darasa/core"
)

// collections
const (
	userCollection       = "users"
	challengeCollection  = "challenges"
	assignmentCollection = "assignments"
	projectCollection    = "projects"
	timetableCollection  = "timetables"
)

// Open connects to the configured database, waits for it to be ready and
// ensures the indexes the repositories rely on.
func Open(conf *core.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}

	if err = ping(ctx, client); err != nil {
		return nil, err
	}

	db := client.Database(conf.Database.Name)
	if err = ensureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func Close(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.Client().Disconnect(ctx)
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = client.Ping(ctx, readpref.Primary())
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(userCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}, {Key: "aura_points", Value: -1}},
		},
	})
	if err != nil {
		return errors.Wrap(err, "creating user indexes")
	}

	ownerKeys := map[string]string{
		challengeCollection:  "creator",
		assignmentCollection: "author",
		projectCollection:    "submitter",
	}
	for coll, key := range ownerKeys {
		_, err = db.Collection(coll).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: key, Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		})
		if err != nil {
			return errors.Wrap(err, "creating "+coll+" indexes")
		}
	}

	_, err = db.Collection(timetableCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "class_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "creating timetable indexes")
	}
	return nil
}
