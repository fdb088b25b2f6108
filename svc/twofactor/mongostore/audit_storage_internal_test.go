package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/enrollhub/twofa/pkg/audit"
)

func TestBuildFilter(t *testing.T) {
	t.Parallel()

	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(time.Hour)

	tests := []struct {
		name     string
		criteria audit.Criteria
		want     bson.D
	}{
		{
			name:     "empty",
			criteria: audit.Criteria{},
			want:     bson.D{},
		},
		{
			name:     "actor",
			criteria: audit.Criteria{ActorKind: "user", ActorID: "42"},
			want: bson.D{
				{Key: "actor_kind", Value: "user"},
				{Key: "actor_id", Value: "42"},
			},
		},
		{
			name:     "action and range",
			criteria: audit.Criteria{Action: "two_factor.failed", Since: since, Until: until, Limit: 5},
			want: bson.D{
				{Key: "action", Value: "two_factor.failed"},
				{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since}, {Key: "$lt", Value: until}}},
			},
		},
		{
			name:     "since only",
			criteria: audit.Criteria{Since: since},
			want:     bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, buildFilter(tt.criteria))
		})
	}
}
