package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type FeedbackType string

const (
	FeedbackPositive     FeedbackType = "positive"
	FeedbackNegative     FeedbackType = "negative"
	FeedbackUnclassified FeedbackType = "unclassified"
)

func (t FeedbackType) Valid() bool {
	switch t {
	case FeedbackPositive, FeedbackNegative, FeedbackUnclassified:
		return true
	}
	return false
}

// Feedback is immutable once stored — there is no update or delete path.
type Feedback struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	FeedbackType FeedbackType  `bson:"feedback_type" json:"feedback_type"`
	Text         string        `bson:"feedback_text" json:"feedback_text"`
	ContactInfo  string        `bson:"contact_info,omitempty" json:"contact_info,omitempty"`
	UserID       int64         `bson:"user_id" json:"user_id"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
}
