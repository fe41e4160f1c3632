package matching

import (
    "context"
    "math"
    "strings"
    "time"
)

// Engine computes compatibility scores between users. All scores are in
// [0, 100]. Missing optional attributes degrade a factor to its neutral
// default instead of failing the computation.
type Engine struct {
    repo Repository
    now  func() time.Time
}

func NewEngine(repo Repository) *Engine {
    return &Engine{repo: repo, now: time.Now}
}

const (
    positiveInteractionSample = 20
    engagedViewSample         = 10
    reciprocityWindow         = 7 * 24 * time.Hour
)

// CalculateCompatibility scores candidate for subject using the subject's
// preference profile and both users' interaction history.
func (e *Engine) CalculateCompatibility(ctx context.Context, subject, candidate *UserProfile, prefs *PreferenceProfile) (float64, *CompatibilityFactors, error) {
    factors := &CompatibilityFactors{}

    factors.Demographic = e.demographicScore(subject, candidate, prefs)

    behavioral, err := e.behavioralScore(ctx, subject, candidate)
    if err != nil {
        return 0, nil, err
    }
    factors.Behavioral = behavioral

    factors.Interest = e.interestScore(subject.Interests, candidate.Interests)
    factors.EngagementPotential = e.engagementPotential(candidate)

    reciprocity, err := e.reciprocityScore(ctx, subject, candidate)
    if err != nil {
        return 0, nil, err
    }
    factors.Reciprocity = reciprocity

    freshness, err := e.freshnessScore(ctx, subject.ID, candidate.ID)
    if err != nil {
        return 0, nil, err
    }
    factors.Freshness = freshness

    factors.ActivityMatch = e.activityLevelMatch(subject.ActivityLevel, candidate.ActivityLevel)

    total := factors.Demographic*0.15 +
        factors.Behavioral*0.20 +
        factors.Interest*0.20 +
        factors.EngagementPotential*0.15 +
        factors.Reciprocity*0.15 +
        factors.Freshness*0.10 +
        factors.ActivityMatch*0.05

    // The candidate's boost raises their visibility to everyone scoring them.
    boost := candidate.RecommendationBoost
    if boost < 1.0 {
        boost = 1.0
    }
    total *= boost

    return math.Min(total, 100), factors, nil
}

// demographicScore applies age-window and distance penalties on a base of
// 100. Penalties compound multiplicatively; there is no floor.
func (e *Engine) demographicScore(subject, candidate *UserProfile, prefs *PreferenceProfile) float64 {
    score := 100.0
    now := e.now()

    if subject.BirthYear != nil && candidate.BirthYear != nil {
        subjectAge := subject.Age(now)
        candidateAge := candidate.Age(now)
        ageDiff := abs(subjectAge - candidateAge)

        minPref, maxPref := 18, 100
        if prefs != nil {
            minPref, maxPref = prefs.AgePreferenceMin, prefs.AgePreferenceMax
        }

        switch {
        case candidateAge < minPref || candidateAge > maxPref:
            score *= 0.5
        case ageDiff <= 3:
            score *= 1.0
        case ageDiff <= 7:
            score *= 0.9
        default:
            score *= 0.7
        }
    }

    if subject.Latitude != nil && subject.Longitude != nil &&
        candidate.Latitude != nil && candidate.Longitude != nil {
        distance := haversineKm(*subject.Latitude, *subject.Longitude, *candidate.Latitude, *candidate.Longitude)

        importance := 0.5
        if prefs != nil {
            importance = prefs.DistanceImportance
        }

        switch {
        case distance <= 10:
            score *= 1.0
        case distance <= 50:
            score *= 1 - importance*0.2
        case distance <= 100:
            score *= 1 - importance*0.4
        default:
            score *= 1 - importance*0.6
        }
    }

    return score
}

// behavioralScore compares the candidate against profiles the subject has
// previously liked or engaged with.
func (e *Engine) behavioralScore(ctx context.Context, subject, candidate *UserProfile) (float64, error) {
    score := 100.0

    liked, err := e.repo.PositiveInteractionTargets(ctx, subject.ID, positiveInteractionSample)
    if err != nil {
        return 0, err
    }
    if len(liked) > 0 {
        total := 0.0
        for _, profile := range liked {
            total += profileSimilarity(candidate, profile)
        }
        avg := total / float64(len(liked))
        score *= 0.5 + avg*0.5
    }

    engaged, err := e.repo.EngagedViewTargets(ctx, subject.ID, engagedViewSample)
    if err != nil {
        return 0, err
    }
    if len(engaged) > 0 {
        total := 0.0
        for _, profile := range engaged {
            total += profileSimilarity(candidate, profile)
        }
        avg := total / float64(len(engaged))
        score *= 0.8 + avg*0.4
    }

    return score, nil
}

// interestScore maps interest-tag overlap onto [50, 100]. Either side
// having no tags leaves the neutral base of 50.
func (e *Engine) interestScore(subjectInterests, candidateInterests []string) float64 {
    score := 50.0

    if len(subjectInterests) > 0 && len(candidateInterests) > 0 {
        intersection, union := setOverlap(subjectInterests, candidateInterests)
        jaccard := 0.0
        if union > 0 {
            jaccard = float64(intersection) / float64(union)
        }

        score = 50 + jaccard*50
        if intersection > 0 {
            score *= 1.1
        }
    }

    return math.Min(score, 100)
}

// engagementPotential estimates how likely the candidate is to respond,
// from presence, recency, activity level and profile completeness.
func (e *Engine) engagementPotential(candidate *UserProfile) float64 {
    score := 70.0

    if candidate.Online {
        score *= 1.2
    } else if candidate.LastActive != nil {
        hoursSince := e.now().Sub(*candidate.LastActive).Hours()
        switch {
        case hoursSince < 24:
            score *= 1.1
        case hoursSince < 72:
            score *= 1.0
        default:
            score *= 0.8
        }
    }

    if candidate.ActivityLevel == ActivityHigh || candidate.ActivityLevel == ActivityVeryHigh {
        score *= 1.15
    }

    completeness := ProfileCompleteness(candidate)
    score *= 0.7 + completeness*0.3

    return math.Min(score, 100)
}

// reciprocityScore rewards candidates who already looked at the subject,
// weighted by view quality and by overlap in who both users have liked.
func (e *Engine) reciprocityScore(ctx context.Context, subject, candidate *UserProfile) (float64, error) {
    score := 50.0

    viewedUs, err := e.repo.HasViewed(ctx, candidate.ID, subject.ID)
    if err != nil {
        return 0, err
    }

    if viewedUs {
        score *= 1.5

        recent, err := e.repo.BestRecentView(ctx, candidate.ID, subject.ID, e.now().Add(-reciprocityWindow))
        if err != nil {
            return 0, err
        }
        if recent != nil && recent.ViewDuration > 30 {
            score *= 1.3
        }
        if recent != nil && recent.ScrolledToBottom {
            score *= 1.2
        }
    }

    ourLikes, err := e.repo.LikedUserIDs(ctx, subject.ID)
    if err != nil {
        return 0, err
    }
    theirLikes, err := e.repo.LikedUserIDs(ctx, candidate.ID)
    if err != nil {
        return 0, err
    }

    common := commonIDs(ourLikes, theirLikes)
    if common > 0 {
        denom := len(ourLikes)
        if denom < 1 {
            denom = 1
        }
        overlapRatio := float64(common) / float64(denom)
        score *= 1 + overlapRatio*0.5
    }

    return math.Min(score, 100), nil
}

// freshnessScore penalizes candidates the subject has already seen. Step
// function of prior view count, monotonically non-increasing.
func (e *Engine) freshnessScore(ctx context.Context, subjectID, candidateID int64) (float64, error) {
    views, err := e.repo.CountProfileViews(ctx, subjectID, candidateID)
    if err != nil {
        return 0, err
    }
    return freshnessForViewCount(views), nil
}

func freshnessForViewCount(views int) float64 {
    switch {
    case views == 0:
        return 100
    case views == 1:
        return 80
    case views <= 3:
        return 60
    case views <= 5:
        return 40
    default:
        return 20
    }
}

// activityLevelMatch scores the ordinal distance between activity levels.
func (e *Engine) activityLevelMatch(subjectLevel, candidateLevel string) float64 {
    diff := abs(activityOrdinal(subjectLevel) - activityOrdinal(candidateLevel))

    switch diff {
    case 0:
        return 100
    case 1:
        return 80
    case 2:
        return 60
    default:
        return 40
    }
}

func activityOrdinal(level string) int {
    switch level {
    case ActivityLow:
        return 1
    case ActivityMedium:
        return 2
    case ActivityHigh:
        return 3
    case ActivityVeryHigh:
        return 4
    default:
        return 2
    }
}

// profileSimilarity averages up to three component similarities, each used
// only when both profiles carry the attribute: interest Jaccard, birth-year
// closeness, and bio word-set Jaccard. A fully unknown pair is neutral 0.5.
func profileSimilarity(a, b *UserProfile) float64 {
    total := 0.0
    factors := 0

    if len(a.Interests) > 0 && len(b.Interests) > 0 {
        intersection, union := setOverlap(a.Interests, b.Interests)
        if union > 0 {
            total += float64(intersection) / float64(union)
        }
        factors++
    }

    if a.BirthYear != nil && b.BirthYear != nil {
        ageDiff := float64(abs(*a.BirthYear - *b.BirthYear))
        total += math.Max(0, 1-ageDiff/20)
        factors++
    }

    if hasText(a.Bio) && hasText(b.Bio) {
        wordsA := strings.Fields(strings.ToLower(*a.Bio))
        wordsB := strings.Fields(strings.ToLower(*b.Bio))
        if len(wordsA) > 0 && len(wordsB) > 0 {
            intersection, union := setOverlap(wordsA, wordsB)
            if union > 0 {
                total += float64(intersection) / float64(union)
            }
        }
        factors++
    }

    if factors == 0 {
        return 0.5
    }
    return total / float64(factors)
}

// ProfileCompleteness returns the fraction of ten profile fields the user
// has filled in. Adding a field never lowers the result.
func ProfileCompleteness(user *UserProfile) float64 {
    score := 0
    const total = 10

    if hasText(user.ProfilePicture) {
        score++
    }
    if user.ImageCount >= 3 {
        score++
    }
    if user.Bio != nil && len(*user.Bio) > 50 {
        score++
    }
    if len(user.Interests) >= 3 {
        score++
    }
    if hasText(user.FirstName) {
        score++
    }
    if user.BirthYear != nil {
        score++
    }
    if hasText(user.Religion) {
        score++
    }
    if hasText(user.Instagram) || hasText(user.Twitter) {
        score++
    }
    if hasText(user.Hopes) {
        score++
    }
    if user.Latitude != nil && user.Longitude != nil {
        score++
    }

    return float64(score) / float64(total)
}

// haversineKm is the great-circle distance in kilometers.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
    const earthRadius = 6371 // km

    lat1Rad := lat1 * math.Pi / 180
    lat2Rad := lat2 * math.Pi / 180
    dLat := (lat2 - lat1) * math.Pi / 180
    dLon := (lon2 - lon1) * math.Pi / 180

    a := math.Sin(dLat/2)*math.Sin(dLat/2) +
        math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)

    return earthRadius * 2 * math.Asin(math.Sqrt(a))
}

func setOverlap(a, b []string) (intersection, union int) {
    seen := make(map[string]bool, len(a))
    for _, item := range a {
        seen[item] = true
    }

    matched := make(map[string]bool, len(b))
    for _, item := range b {
        if seen[item] && !matched[item] {
            matched[item] = true
        }
    }

    all := make(map[string]bool, len(a)+len(b))
    for _, item := range a {
        all[item] = true
    }
    for _, item := range b {
        all[item] = true
    }

    return len(matched), len(all)
}

func commonIDs(a, b []int64) int {
    seen := make(map[int64]bool, len(a))
    for _, id := range a {
        seen[id] = true
    }

    count := 0
    for _, id := range b {
        if seen[id] {
            count++
            seen[id] = false
        }
    }
    return count
}

func hasText(s *string) bool {
    return s != nil && *s != ""
}

func abs(n int) int {
    if n < 0 {
        return -n
    }
    return n
}
