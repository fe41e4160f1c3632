package matching

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    compatibilityScores = promauto.NewHistogram(
        prometheus.HistogramOpts{
            Name:    "matching_compatibility_scores",
            Help:    "Distribution of compatibility scores",
            Buckets: prometheus.LinearBuckets(0, 10, 11),
        },
    )

    recommendationsServed = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "matching_recommendations_served_total",
            Help: "Recommendation lists served, by source",
        },
        []string{"source"},
    )

    scoringErrors = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "matching_scoring_errors_total",
            Help: "Candidates skipped because scoring failed",
        },
    )

    preferenceRefreshes = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "matching_preference_refreshes_total",
            Help: "Preference profile refreshes, by outcome",
        },
        []string{"outcome"},
    )

    likesRecorded = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "matching_likes_recorded_total",
            Help: "Profile likes recorded",
        },
    )

    matchesTotal = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "matching_matches_total",
            Help: "Mutual matches created",
        },
    )

    boostsDecayed = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "matching_boosts_decayed_total",
            Help: "Users whose recommendation boost was decayed",
        },
    )
)

func recordCompatibilityScore(score float64) {
    compatibilityScores.Observe(score)
}

func recordRecommendationsServed(source string) {
    recommendationsServed.WithLabelValues(source).Inc()
}

func recordScoringError() {
    scoringErrors.Inc()
}

func recordPreferenceRefresh(outcome string) {
    preferenceRefreshes.WithLabelValues(outcome).Inc()
}

func recordLike() {
    likesRecorded.Inc()
}

func recordMatch() {
    matchesTotal.Inc()
}

func recordBoostDecay(count int64) {
    boostsDecayed.Add(float64(count))
}
