package pgstore

import (
	"testing"
	"time"

	"github.com/enrollhub/twofa/pkg/audit"

	"github.com/stretchr/testify/assert"
)

func TestBuildAuditQuery(t *testing.T) {
	t.Parallel()

	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		criteria  audit.Criteria
		wantWhere string
		wantTail  string
		wantArgs  []any
	}{
		{
			name:     "no filters",
			criteria: audit.Criteria{},
			wantTail: "FROM two_factor_audit_events ORDER BY created_at DESC, id DESC",
		},
		{
			name:      "actor with limit",
			criteria:  audit.Criteria{ActorKind: "user", ActorID: "alice", Limit: 20},
			wantWhere: "WHERE actor_kind = $1 AND actor_id = $2",
			wantTail:  "ORDER BY created_at DESC, id DESC LIMIT $3",
			wantArgs:  []any{"user", "alice", 20},
		},
		{
			name:      "action and since",
			criteria:  audit.Criteria{Action: "two_factor.failed", Since: since},
			wantWhere: "WHERE action = $1 AND created_at >= $2",
			wantArgs:  []any{"two_factor.failed", since},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			query, args := buildAuditQuery(tt.criteria)
			assert.Contains(t, query, "SELECT id, actor_kind, actor_id")
			if tt.wantWhere != "" {
				assert.Contains(t, query, tt.wantWhere)
			} else {
				assert.NotContains(t, query, "WHERE")
			}
			if tt.wantTail != "" {
				assert.Contains(t, query, tt.wantTail)
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
