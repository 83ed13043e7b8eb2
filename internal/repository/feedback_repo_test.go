package repository

import (
	"testing"
	"time"

	"feedback-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestBuildFilter(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name   string
		filter ListFilter
		want   bson.M
	}{
		{
			name:   "empty filter matches everything",
			filter: ListFilter{},
			want:   bson.M{},
		},
		{
			name:   "type only",
			filter: ListFilter{Type: models.FeedbackNegative},
			want:   bson.M{"feedback_type": models.FeedbackNegative},
		},
		{
			name:   "from only",
			filter: ListFilter{From: from},
			want:   bson.M{"created_at": bson.M{"$gte": from}},
		},
		{
			name:   "full filter",
			filter: ListFilter{Type: models.FeedbackPositive, From: from, To: to},
			want: bson.M{
				"feedback_type": models.FeedbackPositive,
				"created_at":    bson.M{"$gte": from, "$lte": to},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFilter(tt.filter))
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), TotalPages(0, 10))
	assert.Equal(t, int64(1), TotalPages(1, 10))
	assert.Equal(t, int64(1), TotalPages(10, 10))
	assert.Equal(t, int64(2), TotalPages(11, 10))
	assert.Equal(t, int64(3), TotalPages(23, 10))
}

func TestClampPage(t *testing.T) {
	// Floor at 1, even with no pages at all.
	assert.Equal(t, int64(1), ClampPage(0, 0))
	assert.Equal(t, int64(1), ClampPage(-3, 5))
	assert.Equal(t, int64(1), ClampPage(1, 0))

	// Within range is untouched; past the end is clamped.
	assert.Equal(t, int64(2), ClampPage(2, 3))
	assert.Equal(t, int64(3), ClampPage(7, 3))
}
