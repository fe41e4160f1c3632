package matching

import (
    "context"
    "errors"
    "log"
    "time"
)

var (
    ErrUserNotFound        = errors.New("user not found")
    ErrPreferencesNotFound = errors.New("preference profile not found")
    ErrAlreadyLiked        = errors.New("profile already liked")
    ErrCannotLikeSelf      = errors.New("cannot like your own profile")
)

// A preference refresh runs synchronously after this many likes, on top of
// the daily scheduled refresh, so ranking reacts to swipe behavior quickly.
const likesPerSyncRefresh = 5

const defaultEventRetention = 90 * 24 * time.Hour

// Cache stores ranked recommendation lists per user between requests.
// Implemented by RecommendationCache; a nil Cache disables caching.
type Cache interface {
    Get(ctx context.Context, userID int64) []*ScoredCandidate
    Set(ctx context.Context, userID int64, candidates []*ScoredCandidate)
    Invalidate(ctx context.Context, userID int64)
}

type Service interface {
    // Recommendations & scoring
    GetRecommendations(ctx context.Context, userID int64, limit int, excludeIDs []int64) ([]*ScoredCandidate, error)
    GetCompatibility(ctx context.Context, subjectID, candidateID int64) (float64, *CompatibilityFactors, error)
    GetProfileCompleteness(ctx context.Context, userID int64) (float64, error)

    // Behavioral events
    RecordLike(ctx context.Context, likerID, likedUserID int64, superlike bool) (*LikeResult, error)
    RecordProfileView(ctx context.Context, view *ProfileView) error

    // Preference maintenance
    RefreshPreferences(ctx context.Context, userID int64) error

    // Scheduled jobs
    RefreshAllPreferences(ctx context.Context) error
    DecayBoosts(ctx context.Context) error
    CleanupOldEvents(ctx context.Context) error
}

type LikeResult struct {
    Like    *ProfileLike `json:"like"`
    Matched bool         `json:"matched"`
    Match   *Match       `json:"match,omitempty"`
}

type service struct {
    repo      Repository
    engine    *Engine
    cache     Cache
    retention time.Duration
}

func NewService(repo Repository, engine *Engine, cache Cache, eventRetention time.Duration) Service {
    if eventRetention <= 0 {
        eventRetention = defaultEventRetention
    }
    return &service{repo: repo, engine: engine, cache: cache, retention: eventRetention}
}

func (s *service) GetRecommendations(ctx context.Context, userID int64, limit int, excludeIDs []int64) ([]*ScoredCandidate, error) {
    // Caller exclusions make the result request-specific; only plain feed
    // requests go through the cache.
    if len(excludeIDs) > 0 {
        scored, err := s.engine.RecommendUsers(ctx, userID, limit, excludeIDs)
        if err != nil {
            return nil, err
        }
        recordRecommendationsServed("engine")
        return scored, nil
    }

    if s.cache != nil {
        if cached := s.cache.Get(ctx, userID); cached != nil {
            recordRecommendationsServed("cache")
            return truncateScored(cached, limit), nil
        }
    }

    // Rank the whole pool so the cached entry can serve any later request
    // size; only the response is cut to the requested limit.
    scored, err := s.engine.RecommendUsers(ctx, userID, 0, nil)
    if err != nil {
        return nil, err
    }

    if s.cache != nil {
        s.cache.Set(ctx, userID, scored)
    }

    recordRecommendationsServed("engine")
    return truncateScored(scored, limit), nil
}

func truncateScored(scored []*ScoredCandidate, limit int) []*ScoredCandidate {
    if limit > 0 && len(scored) > limit {
        return scored[:limit]
    }
    return scored
}

func (s *service) GetCompatibility(ctx context.Context, subjectID, candidateID int64) (float64, *CompatibilityFactors, error) {
    subject, err := s.repo.GetUserProfile(ctx, subjectID)
    if err != nil {
        return 0, nil, err
    }

    candidate, err := s.repo.GetUserProfile(ctx, candidateID)
    if err != nil {
        return 0, nil, err
    }

    prefs, err := s.repo.EnsurePreferenceProfile(ctx, subjectID)
    if err != nil {
        return 0, nil, err
    }

    score, factors, err := s.engine.CalculateCompatibility(ctx, subject, candidate, prefs)
    if err != nil {
        return 0, nil, err
    }

    recordCompatibilityScore(score)
    return score, factors, nil
}

func (s *service) GetProfileCompleteness(ctx context.Context, userID int64) (float64, error) {
    user, err := s.repo.GetUserProfile(ctx, userID)
    if err != nil {
        return 0, err
    }
    return ProfileCompleteness(user), nil
}

func (s *service) RecordLike(ctx context.Context, likerID, likedUserID int64, superlike bool) (*LikeResult, error) {
    if likerID == likedUserID {
        return nil, ErrCannotLikeSelf
    }

    if _, err := s.repo.GetUserProfile(ctx, likedUserID); err != nil {
        return nil, err
    }

    like := &ProfileLike{LikerID: likerID, LikedUserID: likedUserID, Superlike: superlike}
    if err := s.repo.CreateLike(ctx, like); err != nil {
        return nil, err
    }
    recordLike()

    kind := InteractionLike
    if superlike {
        kind = InteractionSuperlike
    }
    interaction := &Interaction{UserID: likerID, TargetUserID: &likedUserID, Kind: kind, Engagement: 1}
    if err := s.repo.CreateInteraction(ctx, interaction); err != nil {
        log.Printf("recording like interaction for user %d failed: %v", likerID, err)
    }

    result := &LikeResult{Like: like}

    reciprocal, err := s.repo.HasLike(ctx, likedUserID, likerID)
    if err != nil {
        return nil, err
    }
    if reciprocal {
        match := &Match{User1ID: likerID, User2ID: likedUserID}
        if err := s.repo.CreateMatch(ctx, match); err != nil {
            return nil, err
        }
        recordMatch()
        result.Matched = true
        result.Match = match
    }

    if s.cache != nil {
        s.cache.Invalidate(ctx, likerID)
    }

    // Immediate feedback loop: refresh derived preferences every Nth like.
    total, err := s.repo.CountLikesGiven(ctx, likerID)
    if err == nil && total > 0 && total%likesPerSyncRefresh == 0 {
        if err := s.RefreshPreferences(ctx, likerID); err != nil {
            log.Printf("post-like preference refresh for user %d failed: %v", likerID, err)
        }
    }

    return result, nil
}

func (s *service) RecordProfileView(ctx context.Context, view *ProfileView) error {
    if err := s.repo.CreateProfileView(ctx, view); err != nil {
        return err
    }

    interaction := &Interaction{
        UserID:       view.ViewerID,
        TargetUserID: &view.ViewedUserID,
        Kind:         InteractionProfileView,
        Engagement:   viewEngagement(view),
    }
    if err := s.repo.CreateInteraction(ctx, interaction); err != nil {
        log.Printf("recording view interaction for user %d failed: %v", view.ViewerID, err)
    }

    return nil
}

// viewEngagement scores one profile view from its depth signals.
func viewEngagement(view *ProfileView) float64 {
    score := 0.0
    if view.ViewDuration >= 10 {
        score++
    }
    if view.ViewDuration > 30 {
        score++
    }
    if view.ScrolledToBottom {
        score++
    }
    if view.ViewedImagesCount >= 3 {
        score++
    }
    if view.ClickedSocialLinks {
        score++
    }
    return score
}

func (s *service) RefreshPreferences(ctx context.Context, userID int64) error {
    if err := s.engine.RefreshPreferences(ctx, userID); err != nil {
        recordPreferenceRefresh("error")
        return err
    }

    if s.cache != nil {
        s.cache.Invalidate(ctx, userID)
    }
    recordPreferenceRefresh("ok")
    return nil
}

// RefreshAllPreferences refreshes every user active in the trailing week.
// One bad user must not halt the batch.
func (s *service) RefreshAllPreferences(ctx context.Context) error {
    ids, err := s.repo.GetActiveUserIDs(ctx, activityWindow)
    if err != nil {
        return err
    }

    updated := 0
    for _, id := range ids {
        if err := s.RefreshPreferences(ctx, id); err != nil {
            log.Printf("preference refresh for user %d failed: %v", id, err)
            continue
        }
        updated++
    }

    log.Printf("refreshed %d of %d active preference profiles", updated, len(ids))
    return nil
}

// DecayBoosts walks recommendation boosts 5% back toward the 1.0 baseline.
func (s *service) DecayBoosts(ctx context.Context) error {
    count, err := s.repo.DecayRecommendationBoosts(ctx, 0.05)
    if err != nil {
        return err
    }

    recordBoostDecay(count)
    return nil
}

func (s *service) CleanupOldEvents(ctx context.Context) error {
    deleted, err := s.repo.DeleteEventsBefore(ctx, time.Now().Add(-s.retention))
    if err != nil {
        return err
    }

    log.Printf("pruned %d old interaction events", deleted)
    return nil
}
