package matching

import (
    "context"
    "math"
    "time"
)

const (
    activityWindow    = 7 * 24 * time.Hour
    dailySeriesLength = 7
    dailyCountCap     = 10
)

// RefreshPreferences recomputes the user's derived preference parameters
// and engagement fields from recent history. Safe on users with no history:
// fields without enough data keep their previous values.
func (e *Engine) RefreshPreferences(ctx context.Context, userID int64) error {
    user, err := e.repo.GetUserProfile(ctx, userID)
    if err != nil {
        return err
    }

    prefs, err := e.repo.EnsurePreferenceProfile(ctx, userID)
    if err != nil {
        return err
    }

    totalViews, err := e.repo.CountViewsMade(ctx, userID)
    if err != nil {
        return err
    }
    totalLikes, err := e.repo.CountLikesGiven(ctx, userID)
    if err != nil {
        return err
    }

    // Zero views would divide by zero; keep the previous rate.
    if totalViews > 0 {
        prefs.SwipeRate = float64(totalLikes) / float64(totalViews)
    }

    recentInteractions, err := e.repo.CountInteractionsSince(ctx, userID, e.now().Add(-activityWindow))
    if err != nil {
        return err
    }
    user.ActivityLevel = activityLevelForCount(recentInteractions)

    messagesSent, err := e.repo.CountInteractionsByKind(ctx, userID, InteractionMessageSent)
    if err != nil {
        return err
    }

    consistency, err := e.activityConsistency(ctx, userID)
    if err != nil {
        return err
    }

    user.EngagementScore = float64(messagesSent)*2 +
        float64(user.MomentCount)*3 +
        float64(totalLikes)*1 +
        ProfileCompleteness(user)*50 +
        consistency*30

    now := e.now()
    user.LastPreferenceUpdate = &now

    if err := e.repo.SaveDerivedUserFields(ctx, user); err != nil {
        return err
    }
    return e.repo.SavePreferenceProfile(ctx, prefs)
}

func activityLevelForCount(recentInteractions int) string {
    switch {
    case recentInteractions > 50:
        return ActivityVeryHigh
    case recentInteractions > 25:
        return ActivityHigh
    case recentInteractions > 10:
        return ActivityMedium
    default:
        return ActivityLow
    }
}

// activityConsistency measures how evenly the user's interactions spread
// over the trailing week, from the coefficient of variation of the daily
// counts. Each day is capped at 10 so a single burst does not dominate.
func (e *Engine) activityConsistency(ctx context.Context, userID int64) (float64, error) {
    counts, err := e.repo.DailyInteractionCounts(ctx, userID, dailySeriesLength)
    if err != nil {
        return 0, err
    }
    return consistencyFromDailyCounts(counts), nil
}

func consistencyFromDailyCounts(counts []int) float64 {
    if len(counts) == 0 {
        return 0
    }

    capped := make([]float64, len(counts))
    sum := 0.0
    for i, count := range counts {
        if count > dailyCountCap {
            count = dailyCountCap
        }
        capped[i] = float64(count)
        sum += capped[i]
    }

    mean := sum / float64(len(capped))
    if mean == 0 {
        return 0
    }

    variance := 0.0
    for _, v := range capped {
        variance += (v - mean) * (v - mean)
    }
    stddev := math.Sqrt(variance / float64(len(capped)))

    return math.Max(0, 1-(stddev/mean)/2)
}
