// internal/matching/metrics.go

package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	likesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matcha_likes_processed_total",
		Help: "Number of like/dislike interactions processed, by result.",
	}, []string{"result"})

	matchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matcha_matches_created_total",
		Help: "Number of mutual matches created.",
	})

	matchesDissolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matcha_matches_dissolved_total",
		Help: "Number of matches dissolved by an unlike or block.",
	})

	blocksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matcha_blocks_created_total",
		Help: "Number of user blocks created.",
	})

	browseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matcha_browse_duration_seconds",
		Help:    "Time spent serving browse requests.",
		Buckets: prometheus.DefBuckets,
	})

	fameRatingObserved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matcha_fame_rating",
		Help:    "Distribution of recomputed fame ratings.",
		Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
)
