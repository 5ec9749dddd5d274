package domain

import "time"

// Voiceprint is the stored reference embedding for an enrolled user. A
// re-enrollment supersedes the previous voiceprint entirely; vectors are
// never merged across enrollments.
type Voiceprint struct {
	UserID    string    `json:"user_id" bson:"_id"`
	Vector    []float64 `json:"vector" bson:"vector"`
	Samples   int       `json:"samples" bson:"samples"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
