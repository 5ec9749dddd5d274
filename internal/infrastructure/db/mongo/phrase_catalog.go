package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/voiceguard/biometric-system/internal/core/domain"
)

const collectionPhrases = "phrases"

// PhraseCatalog reads the externally-owned phrase corpus. This core never
// writes to the phrases collection.
type PhraseCatalog struct {
	col *mongo.Collection
}

func NewPhraseCatalog(db *mongo.Database) *PhraseCatalog {
	return &PhraseCatalog{col: db.Collection(collectionPhrases)}
}

// SelectPhrase picks a random active phrase outside the exclusion set,
// optionally restricted to a difficulty tier.
func (c *PhraseCatalog) SelectPhrase(ctx context.Context, excludePhraseIDs []string, difficulty string) (*domain.Phrase, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	match := bson.M{"active": true}
	if len(excludePhraseIDs) > 0 {
		match["_id"] = bson.M{"$nin": excludePhraseIDs}
	}
	if difficulty != "" {
		match["difficulty"] = difficulty
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sample", Value: bson.M{"size": 1}}},
	}

	cur, err := c.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrNoPhraseAvailable
	}

	var p domain.Phrase
	if err := cur.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
