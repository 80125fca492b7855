package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cinescope/cinescope/src/internal/domain"
)

// userDocument is the stored shape: profile fields plus the embedded,
// append-ordered savedMovies array.
type userDocument struct {
	ID          string              `bson:"_id"`
	GoogleID    string              `bson:"googleId"`
	Email       string              `bson:"email"`
	Name        string              `bson:"name"`
	Avatar      string              `bson:"avatar"`
	SavedMovies []domain.SavedTitle `bson:"savedMovies"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

func toDocument(u *domain.User) userDocument {
	return userDocument{
		ID:          u.ID,
		GoogleID:    u.ProviderID,
		Email:       u.Email,
		Name:        u.Name,
		Avatar:      u.AvatarURL,
		SavedMovies: []domain.SavedTitle{},
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (d userDocument) toUser() *domain.User {
	return &domain.User{
		ID:         d.ID,
		ProviderID: d.GoogleID,
		Email:      d.Email,
		Name:       d.Name,
		AvatarURL:  d.Avatar,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type UserRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *MongoDB) *UserRepo {
	return &UserRepo{collection: db.Collection("users")}
}

// EnsureIndexes creates the unique indexes the account-linking rules rely on.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "googleId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepo) GetByProviderID(ctx context.Context, providerID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"googleId": providerID})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	opts := options.FindOne().SetProjection(bson.M{"savedMovies": 0})

	var doc userDocument
	err := r.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toUser(), nil
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	if _, err := r.collection.InsertOne(ctx, toDocument(user)); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) LinkProvider(ctx context.Context, userID, providerID, avatarURL string) error {
	update := bson.M{"$set": bson.M{
		"googleId":  providerID,
		"avatar":    avatarURL,
		"updatedAt": time.Now(),
	}}
	return r.updateOne(ctx, userID, update)
}

func (r *UserRepo) GetCollection(ctx context.Context, userID string) (domain.Collection, error) {
	opts := options.FindOne().SetProjection(bson.M{"savedMovies": 1})

	var doc userDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find saved movies: %w", err)
	}
	if doc.SavedMovies == nil {
		return domain.Collection{}, nil
	}
	return domain.Collection(doc.SavedMovies), nil
}

func (r *UserRepo) SaveCollection(ctx context.Context, userID string, titles domain.Collection) error {
	if titles == nil {
		titles = domain.Collection{}
	}
	update := bson.M{"$set": bson.M{
		"savedMovies": []domain.SavedTitle(titles),
		"updatedAt":   time.Now(),
	}}
	return r.updateOne(ctx, userID, update)
}

func (r *UserRepo) updateOne(ctx context.Context, userID string, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
