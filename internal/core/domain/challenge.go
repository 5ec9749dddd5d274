package domain

import (
	"errors"
	"time"
)

var ErrChallengeNotFound = errors.New("challenge not found")
var ErrChallengeExpired = errors.New("challenge expired")
var ErrChallengeReplayed = errors.New("challenge already used")
var ErrInvalidChallenge = errors.New("challenge does not match request")
var ErrNoPhraseAvailable = errors.New("no phrase available outside exclusion window")
var ErrRateLimited = errors.New("challenge rate limit exceeded")

// Phrase is an immutable catalog entry. The catalog itself is owned by an
// external subsystem; this core only reads it.
type Phrase struct {
	ID               string  `json:"id" bson:"_id"`
	Text             string  `json:"text" bson:"text"`
	WordCount        int     `json:"word_count" bson:"word_count"`
	CharCount        int     `json:"char_count" bson:"char_count"`
	Difficulty       string  `json:"difficulty" bson:"difficulty"`
	PhonemeDiversity float64 `json:"phoneme_diversity" bson:"phoneme_diversity"`
	Style            string  `json:"style" bson:"style"`
	Active           bool    `json:"active" bson:"active"`
}

// Challenge is a single-use, time-boxed phrase prompt issued to defeat
// replay attacks. UsedAt is set at most once, and only before ExpiresAt;
// consumption must be a conditional update, never read-then-write.
type Challenge struct {
	ID         string     `json:"id" bson:"_id"`
	UserID     string     `json:"user_id" bson:"user_id"`
	PhraseID   string     `json:"phrase_id" bson:"phrase_id"`
	PhraseText string     `json:"phrase_text" bson:"phrase_text"`
	IssuedAt   time.Time  `json:"issued_at" bson:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at" bson:"expires_at"`
	UsedAt     *time.Time `json:"used_at,omitempty" bson:"used_at,omitempty"`
}

// Expired reports whether the challenge's liveness window has lapsed at now.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Used reports whether the challenge has been consumed.
func (c *Challenge) Used() bool {
	return c.UsedAt != nil
}
