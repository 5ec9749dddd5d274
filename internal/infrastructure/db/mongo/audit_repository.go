package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/voiceguard/biometric-system/internal/core/domain"
	"github.com/voiceguard/biometric-system/internal/core/ports"
)

const collectionAudit = "auth_attempts"

// AuditRepository implements the append-only audit sink. Documents in the
// auth_attempts collection are never updated or deleted.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

// auditDoc embeds the scores in the attempt document so the pair is
// written in one atomic insert.
type auditDoc struct {
	Attempt domain.AuthAttempt `bson:"attempt"`
	Scores  domain.Scores      `bson:"scores"`
}

func (r *AuditRepository) Append(ctx context.Context, attempt *domain.AuthAttempt, scores *domain.Scores) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, auditDoc{Attempt: *attempt, Scores: *scores})
	return err
}

// List returns audit records matching the filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter ports.AuditFilter) ([]ports.AuditRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.UserID != "" {
		query["attempt.user_id"] = filter.UserID
	}
	if filter.Reason != "" {
		query["attempt.reason"] = filter.Reason
	}
	created := bson.M{}
	if !filter.From.IsZero() {
		created["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		created["$lte"] = filter.To
	}
	if len(created) > 0 {
		query["attempt.created_at"] = created
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "attempt.created_at", Value: -1}}).
		SetLimit(int64(filter.Limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var records []ports.AuditRecord
	for cur.Next(ctx) {
		var doc auditDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, ports.AuditRecord{Attempt: doc.Attempt, Scores: doc.Scores})
	}
	return records, cur.Err()
}

// EnsureIndexes creates necessary indexes on the audit collection.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "attempt.user_id", Value: 1}, {Key: "attempt.created_at", Value: -1}}},
		{Keys: bson.D{{Key: "attempt.reason", Value: 1}}},
		{Keys: bson.D{{Key: "attempt.created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
