package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core/project"
)

var _ project.Repository = (*projectRepository)(nil)

type (
	fileDoc struct {
		URL      string `bson:"url"`
		FileType string `bson:"file_type"`
	}

	projectDoc struct {
		ID           primitive.ObjectID `bson:"_id,omitempty"`
		Title        string             `bson:"title"`
		Description  string             `bson:"description"`
		Tags         []string           `bson:"tags,omitempty"`
		Files        []fileDoc          `bson:"files"`
		TeacherFiles []fileDoc          `bson:"teacher_files"`
		Submitter    primitive.ObjectID `bson:"submitter"`
		CreatedAt    time.Time          `bson:"created_at"`
		UpdatedAt    time.Time          `bson:"updated_at"`
	}
)

func newFileDocs(files []project.File) []fileDoc {
	docs := make([]fileDoc, 0, len(files))
	for _, f := range files {
		docs = append(docs, fileDoc{URL: f.URL, FileType: f.FileType})
	}
	return docs
}

func newProjectDoc(p project.Project) (projectDoc, error) {
	doc := projectDoc{
		Title:        p.Title,
		Description:  p.Description,
		Tags:         p.Tags,
		Files:        newFileDocs(p.Files),
		TeacherFiles: newFileDocs(p.TeacherFiles),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.ID != "" {
		oid, err := primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			return projectDoc{}, errors.Wrap(err, "invalid project ID")
		}
		doc.ID = oid
	}
	submitter, err := primitive.ObjectIDFromHex(p.Submitter)
	if err != nil {
		return projectDoc{}, errors.Wrap(err, "invalid submitter ID")
	}
	doc.Submitter = submitter
	return doc, nil
}

func (doc projectDoc) toProject() project.Project {
	p := project.Project{
		ID:          doc.ID.Hex(),
		Title:       doc.Title,
		Description: doc.Description,
		Tags:        doc.Tags,
		Submitter:   doc.Submitter.Hex(),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	for _, f := range doc.Files {
		p.Files = append(p.Files, project.File{URL: f.URL, FileType: f.FileType})
	}
	for _, f := range doc.TeacherFiles {
		p.TeacherFiles = append(p.TeacherFiles, project.File{URL: f.URL, FileType: f.FileType})
	}
	return p
}

type projectRepository struct {
	coll *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) project.Repository {
	return &projectRepository{coll: db.Collection(projectCollection)}
}

func (repo *projectRepository) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	doc, err := newProjectDoc(p)
	if err != nil {
		return project.Project{}, err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if _, err = repo.coll.InsertOne(ctx, doc); err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	p.ID = doc.ID.Hex()
	return p, nil
}

func (repo *projectRepository) GetProjectByID(ctx context.Context, id string) (project.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return project.Project{}, project.ErrNotFound
	}
	var doc projectDoc
	if err = repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, errors.Wrap(err, "finding project")
	}
	return doc.toProject(), nil
}

func (repo *projectRepository) QueryProjectsBySubmitter(ctx context.Context, submitterID string) ([]project.Project, error) {
	oid, err := primitive.ObjectIDFromHex(submitterID)
	if err != nil {
		return nil, nil
	}
	return repo.queryProjects(ctx, bson.M{"submitter": oid})
}

func (repo *projectRepository) QueryProjectsByIDs(ctx context.Context, ids []string) ([]project.Project, error) {
	oids := hexToObjectIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	return repo.queryProjects(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (repo *projectRepository) QueryProjectsBySubmitters(ctx context.Context, submitterIDs, excludedIDs []string) ([]project.Project, error) {
	submitters := hexToObjectIDs(submitterIDs)
	if len(submitters) == 0 {
		return nil, nil
	}
	filter := bson.M{"submitter": bson.M{"$in": submitters}}
	if excluded := hexToObjectIDs(excludedIDs); len(excluded) > 0 {
		filter["_id"] = bson.M{"$nin": excluded}
	}
	return repo.queryProjects(ctx, filter)
}

func (repo *projectRepository) AddProjectFile(ctx context.Context, projectID string, f project.File) (project.Project, error) {
	oid, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return project.Project{}, project.ErrNotFound
	}
	update := bson.M{
		"$push": bson.M{"files": fileDoc{URL: f.URL, FileType: f.FileType}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc projectDoc
	if err = repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, errors.Wrap(err, "adding project file")
	}
	return doc.toProject(), nil
}

func (repo *projectRepository) queryProjects(ctx context.Context, filter bson.M) ([]project.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}
	defer cur.Close(ctx)

	var ps []project.Project
	for cur.Next(ctx) {
		var doc projectDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding project")
		}
		ps = append(ps, doc.toProject())
	}
	if err = cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating projects")
	}
	return ps, nil
}
