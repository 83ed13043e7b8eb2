package repository

import (
	"context"
	"time"

	"feedback-bot/internal/database"
	"feedback-bot/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ListFilter is the conjunctive predicate set for feedback listings.
// Zero values mean "no bound".
type ListFilter struct {
	Type models.FeedbackType
	From time.Time
	To   time.Time
}

type FeedbackRepo struct {
	collection *mongo.Collection
}

func NewFeedbackRepo() *FeedbackRepo {
	return &FeedbackRepo{
		collection: database.GetCollection("feedbacks"),
	}
}

func (r *FeedbackRepo) Create(ctx context.Context, feedback *models.Feedback) error {
	feedback.CreatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, feedback)
	if err != nil {
		return err
	}
	feedback.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// LastSubmittedAt returns the created_at of the user's newest feedback.
// The second return value is false when the user has never submitted.
func (r *FeedbackRepo) LastSubmittedAt(ctx context.Context, userID int64) (time.Time, bool, error) {
	var doc struct {
		CreatedAt time.Time `bson:"created_at"`
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"created_at": 1})
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return doc.CreatedAt, true, nil
}

func (r *FeedbackRepo) FindPage(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Feedback, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.Feedback
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *FeedbackRepo) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, buildFilter(filter))
}

// buildFilter is the single source of the listing predicate: FindPage and
// Count both go through it so the page content and the count never drift.
func buildFilter(f ListFilter) bson.M {
	filter := bson.M{}
	if f.Type != "" {
		filter["feedback_type"] = f.Type
	}
	created := bson.M{}
	if !f.From.IsZero() {
		created["$gte"] = f.From
	}
	if !f.To.IsZero() {
		created["$lte"] = f.To
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return filter
}

// TotalPages is ceil(count / pageSize). Zero rows yield zero pages.
func TotalPages(count, pageSize int64) int64 {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage forces page into [1, max(totalPages, 1)] so an out-of-range
// request never produces a negative offset or an empty-but-valid page.
func ClampPage(page, totalPages int64) int64 {
	if page < 1 {
		return 1
	}
	if totalPages < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// EnsureIndexes creates necessary indexes for the feedbacks collection
func (r *FeedbackRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "feedback_type", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
