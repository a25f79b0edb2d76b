// internal/matching/fame_test.go

package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFameRating(t *testing.T) {
	tests := []struct {
		name   string
		counts InteractionCounts
		want   int
	}{
		{
			name:   "no interactions",
			counts: InteractionCounts{},
			want:   0,
		},
		{
			name:   "likes and visits",
			counts: InteractionCounts{LikesReceived: 3, VisitsReceived: 4},
			want:   10,
		},
		{
			name:   "matches weigh heaviest",
			counts: InteractionCounts{LikesReceived: 2, Matches: 2},
			want:   14,
		},
		{
			name:   "dislikes subtract",
			counts: InteractionCounts{LikesReceived: 5, DislikesReceived: 3},
			want:   7,
		},
		{
			name:   "never negative",
			counts: InteractionCounts{DislikesReceived: 10},
			want:   0,
		},
		{
			name:   "dislikes exactly cancel likes",
			counts: InteractionCounts{LikesReceived: 1, DislikesReceived: 2},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeFameRating(tt.counts))
		})
	}
}
