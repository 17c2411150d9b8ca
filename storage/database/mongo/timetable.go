package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core/timetable"
)

var _ timetable.Repository = (*timetableRepository)(nil)

type (
	slotDoc struct {
		Subject string `bson:"subject"`
		Time    string `bson:"time"`
	}

	dayDoc struct {
		Day   string    `bson:"day"`
		Slots []slotDoc `bson:"slots"`
	}

	timetableDoc struct {
		ID        primitive.ObjectID `bson:"_id,omitempty"`
		ClassID   string             `bson:"class_id"`
		Days      []dayDoc           `bson:"days"`
		CreatedAt time.Time          `bson:"created_at"`
		UpdatedAt time.Time          `bson:"updated_at"`
	}
)

func newDayDocs(days []timetable.Day) []dayDoc {
	docs := make([]dayDoc, 0, len(days))
	for _, d := range days {
		slots := make([]slotDoc, 0, len(d.Slots))
		for _, s := range d.Slots {
			slots = append(slots, slotDoc{Subject: s.Subject, Time: s.Time})
		}
		docs = append(docs, dayDoc{Day: d.Day, Slots: slots})
	}
	return docs
}

func (doc timetableDoc) toTimetable() timetable.Timetable {
	tt := timetable.Timetable{
		ID:        doc.ID.Hex(),
		ClassID:   doc.ClassID,
		Days:      make([]timetable.Day, 0, len(doc.Days)),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, d := range doc.Days {
		day := timetable.Day{Day: d.Day}
		day.Slots = make([]timetable.Slot, 0, len(d.Slots))
		for _, s := range d.Slots {
			day.Slots = append(day.Slots, timetable.Slot{Subject: s.Subject, Time: s.Time})
		}
		tt.Days = append(tt.Days, day)
	}
	return tt
}

type timetableRepository struct {
	coll *mongo.Collection
}

func NewTimetableRepository(db *mongo.Database) timetable.Repository {
	return &timetableRepository{coll: db.Collection(timetableCollection)}
}

func (repo *timetableRepository) UpsertTimetable(ctx context.Context, tt timetable.Timetable) (timetable.Timetable, error) {
	update := bson.M{
		"$set": bson.M{
			"days":       newDayDocs(tt.Days),
			"updated_at": tt.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": tt.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc timetableDoc
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"class_id": tt.ClassID}, update, opts).Decode(&doc); err != nil {
		return timetable.Timetable{}, errors.Wrap(err, "upserting timetable")
	}
	return doc.toTimetable(), nil
}

func (repo *timetableRepository) GetTimetableByClassID(ctx context.Context, classID string) (timetable.Timetable, error) {
	var doc timetableDoc
	if err := repo.coll.FindOne(ctx, bson.M{"class_id": classID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return timetable.Timetable{}, timetable.ErrNotFound
		}
		return timetable.Timetable{}, errors.Wrap(err, "finding timetable")
	}
	return doc.toTimetable(), nil
}
