package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	autherrors "github.com/abgdnv/shophub/internal/auth/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const usersCollection = "users"

// userDocument is the BSON shape of a user. The id is kept as its canonical string form.
type userDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewMongoStore creates a UserStore on the users collection of database.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique email index.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func (m *MongoStore) Create(ctx context.Context, user User) (*User, error) {
	doc := userDocument{
		ID:           user.ID.String(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC().Truncate(time.Millisecond),
	}
	if _, err := m.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, autherrors.ErrUserExists
		}
		return nil, fmt.Errorf("%w: %w", autherrors.ErrCreateUser, err)
	}
	return doc.toUser()
}

func (m *MongoStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return m.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (m *MongoStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return m.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoStore) findOne(ctx context.Context, filter bson.D) (*User, error) {
	var doc userDocument
	if err := m.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, autherrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %w", autherrors.ErrFindUser, err)
	}
	return doc.toUser()
}

func (d userDocument) toUser() (*User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed id %q: %w", autherrors.ErrFindUser, d.ID, err)
	}
	return &User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}, nil
}
