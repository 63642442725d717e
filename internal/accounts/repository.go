package accounts

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fieldverify/verification-portal-backend/internal/apperrors"
	"fieldverify/verification-portal-backend/internal/auth"
)

const collectionName = "accounts"

// Repository defines the interface for account data access
type Repository interface {
	Create(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindChild(ctx context.Context, id, parent primitive.ObjectID) (*Account, error)
	ListByParent(ctx context.Context, parent primitive.ObjectID, level auth.RoleLevel) ([]Account, error)
	ChildrenOf(ctx context.Context, parents []primitive.ObjectID) ([]Account, error)
	UpdateDetails(ctx context.Context, id primitive.ObjectID, update bson.M) error
	SetDisabled(ctx context.Context, ids []primitive.ObjectID, disabled bool) error
}

// MongoRepository implements Repository and auth.CredentialStore over MongoDB
type MongoRepository struct {
	coll *mongo.Collection
}

// NewRepository creates an account repository over the given database.
func NewRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(collectionName)}
}

// EnsureIndexes creates the unique email index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "parent", Value: 1}}},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, account *Account) error {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}

	_, err := r.coll.InsertOne(ctx, account)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.ErrConflict
	}
	return err
}

func (r *MongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) FindChild(ctx context.Context, id, parent primitive.ObjectID) (*Account, error) {
	return r.findOne(ctx, bson.M{"_id": id, "parent": parent})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*Account, error) {
	var account Account
	err := r.coll.FindOne(ctx, filter).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *MongoRepository) ListByParent(ctx context.Context, parent primitive.ObjectID, level auth.RoleLevel) ([]Account, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"parent":    parent,
		"userLevel": level,
		"disabled":  false,
	})
	if err != nil {
		return nil, err
	}
	var out []Account
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) ChildrenOf(ctx context.Context, parents []primitive.ObjectID) ([]Account, error) {
	if len(parents) == 0 {
		return nil, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"parent": bson.M{"$in": parents}})
	if err != nil {
		return nil, err
	}
	var out []Account
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) UpdateDetails(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["updatedAt"] = time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) SetDisabled(ctx context.Context, ids []primitive.ObjectID, disabled bool) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"disabled": disabled, "updatedAt": time.Now()}},
	)
	return err
}

// CredentialsByEmail implements auth.CredentialStore.
func (r *MongoRepository) CredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	account, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return credentials(account), nil
}

// CredentialsByID implements auth.CredentialStore.
func (r *MongoRepository) CredentialsByID(ctx context.Context, id primitive.ObjectID) (*auth.Credentials, error) {
	account, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return credentials(account), nil
}

func credentials(a *Account) *auth.Credentials {
	return &auth.Credentials{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		RoleLevel:    a.UserLevel,
		PasswordHash: a.PasswordHash,
		Disabled:     a.Disabled,
	}
}
