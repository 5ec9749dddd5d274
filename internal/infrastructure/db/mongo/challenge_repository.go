package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

const collectionChallenges = "challenges"

type ChallengeRepository struct {
	col *mongo.Collection
}

func NewChallengeRepository(db *mongo.Database) *ChallengeRepository {
	return &ChallengeRepository{col: db.Collection(collectionChallenges)}
}

// Create inserts a new challenge document.
func (r *ChallengeRepository) Create(ctx context.Context, c *domain.Challenge) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, c)
	return err
}

func (r *ChallengeRepository) FindByID(ctx context.Context, id string) (*domain.Challenge, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c domain.Challenge
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrChallengeNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Consume marks the challenge used with a single conditional update keyed
// on used_at being unset and the expiry still being in the future. Two
// racing consumers get exactly one winner; the loser is classified by a
// follow-up read.
func (r *ChallengeRepository) Consume(ctx context.Context, id, userID string, now time.Time) (*domain.Challenge, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":        id,
		"user_id":    userID,
		"used_at":    nil,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{"used_at": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var c domain.Challenge
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&c)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// The conditional update matched nothing; read the challenge once to
	// report why. Consumption itself already happened (or not) atomically.
	existing, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	switch {
	case existing.UserID != userID:
		return nil, domain.ErrInvalidChallenge
	case existing.Used():
		return nil, domain.ErrChallengeReplayed
	case existing.Expired(now):
		return nil, domain.ErrChallengeExpired
	default:
		return nil, domain.ErrChallengeNotFound
	}
}

// Release clears the used marker set by Consume, handing the challenge
// back after a consumed sample failed to be stored.
func (r *ChallengeRepository) Release(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"used_at": nil}})
	return err
}

// RecentPhraseIDs returns the phrase ids of the user's n most recent
// challenges, newest first.
func (r *ChallengeRepository) RecentPhraseIDs(ctx context.Context, userID string, n int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if n <= 0 {
		return nil, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "issued_at", Value: -1}}).
		SetLimit(int64(n)).
		SetProjection(bson.M{"phrase_id": 1})

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var row struct {
			PhraseID string `bson:"phrase_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.PhraseID)
	}
	return ids, cur.Err()
}

// CountActive counts the user's unconsumed, unexpired challenges.
func (r *ChallengeRepository) CountActive(ctx context.Context, userID string, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"used_at":    nil,
		"expires_at": bson.M{"$gt": now},
	})
}

// EnsureIndexes creates necessary indexes on the challenges collection.
// The TTL index reaps consumed and lapsed challenges a day after expiry;
// until then they remain queryable for the exclusion window.
func (r *ChallengeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "issued_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32((24 * time.Hour).Seconds())),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
