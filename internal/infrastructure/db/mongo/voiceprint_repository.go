package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

const collectionVoiceprints = "voiceprints"

type VoiceprintRepository struct {
	col *mongo.Collection
}

func NewVoiceprintRepository(db *mongo.Database) *VoiceprintRepository {
	return &VoiceprintRepository{col: db.Collection(collectionVoiceprints)}
}

// Upsert stores the voiceprint keyed by user id. A re-enrollment replaces
// the previous vector wholesale; vectors are never merged.
func (r *VoiceprintRepository) Upsert(ctx context.Context, vp *domain.Voiceprint) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": vp.UserID}, vp, opts)
	return err
}

func (r *VoiceprintRepository) FindByUser(ctx context.Context, userID string) (*domain.Voiceprint, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var vp domain.Voiceprint
	err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&vp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotEnrolled
		}
		return nil, err
	}
	return &vp, nil
}

// Delete removes the voiceprint as part of explicit user-data deletion.
func (r *VoiceprintRepository) Delete(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}
