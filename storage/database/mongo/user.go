package mongodb

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core/user"
)

var _ user.Repository = (*userRepository)(nil)

type userDoc struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty"`
	Name                 string               `bson:"name"`
	Username             string               `bson:"username"`
	Email                string               `bson:"email"`
	IsActive             bool                 `bson:"is_active"`
	Role                 string               `bson:"role"`
	Avatar               string               `bson:"avatar,omitempty"`
	Section              string               `bson:"section,omitempty"`
	Semester             string               `bson:"semester,omitempty"`
	Branch               string               `bson:"branch,omitempty"`
	AuraPoints           int                  `bson:"aura_points"`
	CreditPoints         int                  `bson:"credit_points"`
	CompletedChallenges  []primitive.ObjectID `bson:"completed_challenges"`
	CompletedAssignments []primitive.ObjectID `bson:"completed_assignments"`
	SubmittedProjects    []primitive.ObjectID `bson:"submitted_projects"`
	PasswordHash         []byte               `bson:"password_hash"`
	CreatedAt            time.Time            `bson:"created_at"`
	UpdatedAt            time.Time            `bson:"updated_at"`
	LastLogin            time.Time            `bson:"last_login,omitempty"`
}

func newUserDoc(usr user.User) (userDoc, error) {
	doc := userDoc{
		Name:                 usr.Name,
		Username:             usr.Username,
		Email:                usr.Email,
		IsActive:             usr.IsActive,
		Role:                 usr.Role,
		Avatar:               usr.Avatar,
		Section:              usr.Section,
		Semester:             usr.Semester,
		Branch:               usr.Branch,
		AuraPoints:           usr.AuraPoints,
		CreditPoints:         usr.CreditPoints,
		CompletedChallenges:  make([]primitive.ObjectID, 0, len(usr.CompletedChallenges)),
		CompletedAssignments: make([]primitive.ObjectID, 0, len(usr.CompletedAssignments)),
		SubmittedProjects:    make([]primitive.ObjectID, 0, len(usr.SubmittedProjects)),
		PasswordHash:         usr.PasswordHash,
		CreatedAt:            usr.CreatedAt,
		UpdatedAt:            usr.UpdatedAt,
		LastLogin:            usr.LastLogin,
	}
	if usr.ID != "" {
		oid, err := primitive.ObjectIDFromHex(usr.ID)
		if err != nil {
			return userDoc{}, errors.Wrap(err, "invalid user ID")
		}
		doc.ID = oid
	}
	for _, id := range usr.CompletedChallenges {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return userDoc{}, errors.Wrap(err, "invalid challenge ID")
		}
		doc.CompletedChallenges = append(doc.CompletedChallenges, oid)
	}
	for _, id := range usr.CompletedAssignments {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return userDoc{}, errors.Wrap(err, "invalid assignment ID")
		}
		doc.CompletedAssignments = append(doc.CompletedAssignments, oid)
	}
	for _, id := range usr.SubmittedProjects {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return userDoc{}, errors.Wrap(err, "invalid project ID")
		}
		doc.SubmittedProjects = append(doc.SubmittedProjects, oid)
	}
	return doc, nil
}

func (doc userDoc) toUser() user.User {
	usr := user.User{
		ID:           doc.ID.Hex(),
		Name:         doc.Name,
		Username:     doc.Username,
		Email:        doc.Email,
		IsActive:     doc.IsActive,
		Role:         doc.Role,
		Avatar:       doc.Avatar,
		Section:      doc.Section,
		Semester:     doc.Semester,
		Branch:       doc.Branch,
		AuraPoints:   doc.AuraPoints,
		CreditPoints: doc.CreditPoints,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		LastLogin:    doc.LastLogin,
	}
	for _, oid := range doc.CompletedChallenges {
		usr.CompletedChallenges = append(usr.CompletedChallenges, oid.Hex())
	}
	for _, oid := range doc.CompletedAssignments {
		usr.CompletedAssignments = append(usr.CompletedAssignments, oid.Hex())
	}
	for _, oid := range doc.SubmittedProjects {
		usr.SubmittedProjects = append(usr.SubmittedProjects, oid.Hex())
	}
	return usr
}

type userRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) user.Repository {
	return &userRepository{coll: db.Collection(userCollection)}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, uname, email string, excludedUsers ...user.User) error {
	excludedIDs := make([]primitive.ObjectID, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		if oid, err := primitive.ObjectIDFromHex(usr.ID); err == nil {
			excludedIDs = append(excludedIDs, oid)
		}
	}

	filter := bson.M{"username": uname}
	if len(excludedIDs) > 0 {
		filter["_id"] = bson.M{"$nin": excludedIDs}
	}
	n, err := repo.coll.CountDocuments(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "counting users by username")
	}
	if n > 0 {
		return user.ErrUsernameExists
	}

	filter = bson.M{"email": email}
	if len(excludedIDs) > 0 {
		filter["_id"] = bson.M{"$nin": excludedIDs}
	}
	n, err = repo.coll.CountDocuments(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "counting users by email")
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	doc, err := newUserDoc(usr)
	if err != nil {
		return user.User{}, err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if _, err = repo.coll.InsertOne(ctx, doc); err != nil {
		return user.User{}, wrapDuplicateErr(err, "inserting user")
	}
	usr.ID = doc.ID.Hex()
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, bson.M{"_id": oid})
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, uname string) (user.User, error) {
	return repo.getUser(ctx, bson.M{"username": uname})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, bson.M{"email": email})
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	return repo.getUser(ctx, bson.M{"$or": bson.A{
		bson.M{"username": uname},
		bson.M{"email": uname},
	}})
}

func (repo *userRepository) getUser(ctx context.Context, filter bson.M) (user.User, error) {
	var doc userDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return doc.toUser(), nil
}

func (repo *userRepository) QueryLeaderboard(ctx context.Context, limit int) ([]user.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "aura_points", Value: -1}, {Key: "credit_points", Value: -1}}).
		SetLimit(int64(limit))
	return repo.queryUsers(ctx, bson.M{"role": user.RoleStudent, "is_active": true}, opts)
}

func (repo *userRepository) QueryTeachers(ctx context.Context, section, branch string) ([]user.User, error) {
	filter := bson.M{"role": user.RoleTeacher, "is_active": true}
	if section != "" {
		filter["section"] = section
	}
	if branch != "" {
		filter["branch"] = branch
	}
	return repo.queryUsers(ctx, filter, nil)
}

func (repo *userRepository) queryUsers(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]user.User, error) {
	var cur *mongo.Cursor
	var err error
	if opts != nil {
		cur, err = repo.coll.Find(ctx, filter, opts)
	} else {
		cur, err = repo.coll.Find(ctx, filter)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	defer cur.Close(ctx)

	var usrs []user.User
	for cur.Next(ctx) {
		var doc userDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding user")
		}
		usrs = append(usrs, doc.toUser())
	}
	if err = cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating users")
	}
	return usrs, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(usr.ID)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	set := bson.M{
		"avatar":     usr.Avatar,
		"section":    usr.Section,
		"semester":   usr.Semester,
		"branch":     usr.Branch,
		"updated_at": time.Now().UTC(),
	}
	if usr.Name != "" {
		set["name"] = usr.Name
	}
	if usr.Username != "" {
		set["username"] = usr.Username
	}
	if usr.Email != "" {
		set["email"] = usr.Email
	}
	if usr.PasswordHash != nil {
		set["password_hash"] = usr.PasswordHash
	}
	if isActive != nil {
		set["is_active"] = *isActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	err = repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, wrapDuplicateErr(err, "updating user")
	}
	return doc.toUser(), nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	doc, err := newUserDoc(usr)
	if err != nil {
		return user.User{}, err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err = repo.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return user.User{}, wrapDuplicateErr(err, "replacing user")
	}
	return usr, nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, usr user.User) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(usr.ID)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"last_login": time.Now().UTC()}}
	var doc userDoc
	if err = repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	return doc.toUser(), nil
}

// AwardChallenge records a challenge completion and its reward in a single
// conditional update so a student can never be rewarded twice for the same
// challenge, no matter how many submissions race.
func (repo *userRepository) AwardChallenge(ctx context.Context, userID, challengeID string, aura, credit int) (bool, error) {
	return repo.award(ctx, userID, challengeID, "completed_challenges", bson.M{"aura_points": aura, "credit_points": credit})
}

func (repo *userRepository) CompleteAssignment(ctx context.Context, userID, assignmentID string, aura int) (bool, error) {
	return repo.award(ctx, userID, assignmentID, "completed_assignments", bson.M{"aura_points": aura})
}

func (repo *userRepository) AddSubmittedProject(ctx context.Context, userID, projectID string) (bool, error) {
	return repo.award(ctx, userID, projectID, "submitted_projects", nil)
}

func (repo *userRepository) award(ctx context.Context, userID, itemID, field string, inc bson.M) (bool, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, user.ErrNotFound
	}
	oid, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return false, errors.Wrap(err, "invalid item ID")
	}

	filter := bson.M{"_id": uid, field: bson.M{"$ne": oid}}
	update := bson.M{"$addToSet": bson.M{field: oid}}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, errors.Wrap(err, "awarding "+field)
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}

	// nothing modified: either already awarded or the user is gone
	n, err := repo.coll.CountDocuments(ctx, bson.M{"_id": uid})
	if err != nil {
		return false, errors.Wrap(err, "counting users")
	}
	if n == 0 {
		return false, user.ErrNotFound
	}
	return false, nil
}

func wrapDuplicateErr(err error, msg string) error {
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), "email") {
			return user.ErrEmailExists
		}
		return user.ErrUsernameExists
	}
	return errors.Wrap(err, msg)
}
