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

const collectionSessions = "enrollment_sessions"

type EnrollmentRepository struct {
	col *mongo.Collection
}

func NewEnrollmentRepository(db *mongo.Database) *EnrollmentRepository {
	return &EnrollmentRepository{col: db.Collection(collectionSessions)}
}

func (r *EnrollmentRepository) Create(ctx context.Context, s *domain.EnrollmentSession) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*domain.EnrollmentSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.EnrollmentSession
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// AppendSample pushes the sample and advances the challenge index in one
// conditional update keyed on the expected sample count, so two racing
// writers cannot both claim the same slot.
func (r *EnrollmentRepository) AppendSample(ctx context.Context, id string, expectedCount int, sample domain.EnrollmentSample) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":          id,
		"status":       domain.SessionInProgress,
		"sample_count": expectedCount,
	}
	update := bson.M{
		"$push": bson.M{"samples": sample},
		"$inc":  bson.M{"sample_count": 1, "current_index": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionConflict
	}
	return nil
}

// SetStatus transitions the session out of in_progress. The filter keeps
// the state machine honest under concurrency: a session that already left
// in_progress cannot transition again.
func (r *EnrollmentRepository) SetStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if !domain.SessionInProgress.CanTransitionTo(status) {
		return domain.ErrSessionNotActive
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": domain.SessionInProgress},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionConflict
	}
	return nil
}

func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// FindOverdue returns in-progress sessions whose expiry lapsed before now.
func (r *EnrollmentRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.EnrollmentSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "expires_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{
		"status":     domain.SessionInProgress,
		"expires_at": bson.M{"$lte": now},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sessions []*domain.EnrollmentSession
	for cur.Next(ctx) {
		var s domain.EnrollmentSession
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, cur.Err()
}

// EnsureIndexes creates necessary indexes on the sessions collection.
func (r *EnrollmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
