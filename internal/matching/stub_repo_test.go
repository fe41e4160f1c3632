package matching

import (
    "context"
    "errors"
    "sort"
    "time"
)

// stubRepo is an in-memory Repository used across the package tests.
type stubRepo struct {
    profiles     map[int64]*UserProfile
    prefs        map[int64]*PreferenceProfile
    likes        []*ProfileLike
    matches      []*Match
    views        []*ProfileView
    interactions []*Interaction

    dailyCounts []int

    // failViewLookupFor makes history lookups fail for the given viewer,
    // simulating a broken candidate record during scoring.
    failViewLookupFor map[int64]bool

    savedUsers       []*UserProfile
    savedPreferences []*PreferenceProfile
    decayCalls       int
    deleteCutoff     time.Time
}

func newStubRepo() *stubRepo {
    return &stubRepo{
        profiles:          make(map[int64]*UserProfile),
        prefs:             make(map[int64]*PreferenceProfile),
        failViewLookupFor: make(map[int64]bool),
    }
}

func (s *stubRepo) addProfile(p *UserProfile) *UserProfile {
    if p.RecommendationBoost == 0 {
        p.RecommendationBoost = 1.0
    }
    if p.ActivityLevel == "" {
        p.ActivityLevel = ActivityMedium
    }
    s.profiles[p.ID] = p
    return p
}

func (s *stubRepo) GetUserProfile(_ context.Context, userID int64) (*UserProfile, error) {
    profile, ok := s.profiles[userID]
    if !ok {
        return nil, ErrUserNotFound
    }
    return profile, nil
}

func (s *stubRepo) GetActiveUserIDs(_ context.Context, activeWithin time.Duration) ([]int64, error) {
    cutoff := time.Now().Add(-activeWithin)
    var ids []int64
    for id, p := range s.profiles {
        if p.LastActive != nil && p.LastActive.After(cutoff) {
            ids = append(ids, id)
        }
    }
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
    return ids, nil
}

func (s *stubRepo) FindCandidates(_ context.Context, userID int64, filters *CandidateFilters) ([]*UserProfile, error) {
    liked := make(map[int64]bool)
    for _, l := range s.likes {
        if l.LikerID == userID {
            liked[l.LikedUserID] = true
        }
    }

    matched := make(map[int64]bool)
    for _, m := range s.matches {
        if m.User1ID == userID {
            matched[m.User2ID] = true
        }
        if m.User2ID == userID {
            matched[m.User1ID] = true
        }
    }

    excluded := make(map[int64]bool)
    for _, id := range filters.ExcludeIDs {
        excluded[id] = true
    }

    var ids []int64
    for id := range s.profiles {
        ids = append(ids, id)
    }
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

    var out []*UserProfile
    for _, id := range ids {
        p := s.profiles[id]
        if id == userID || p.Gender == nil || liked[id] || matched[id] || excluded[id] {
            continue
        }
        if !filters.Genders.Any {
            if len(filters.Genders.Genders) > 0 {
                if !containsString(filters.Genders.Genders, *p.Gender) {
                    continue
                }
            } else if filters.SubjectGender != "" && *p.Gender == filters.SubjectGender {
                continue
            }
        }
        out = append(out, p)
        if filters.PoolLimit > 0 && len(out) >= filters.PoolLimit {
            break
        }
    }
    return out, nil
}

func (s *stubRepo) SaveDerivedUserFields(_ context.Context, user *UserProfile) error {
    s.savedUsers = append(s.savedUsers, user)
    return nil
}

func (s *stubRepo) GetPreferenceProfile(_ context.Context, userID int64) (*PreferenceProfile, error) {
    p, ok := s.prefs[userID]
    if !ok {
        return nil, ErrPreferencesNotFound
    }
    return p, nil
}

func (s *stubRepo) EnsurePreferenceProfile(_ context.Context, userID int64) (*PreferenceProfile, error) {
    if p, ok := s.prefs[userID]; ok {
        return p, nil
    }
    p := &PreferenceProfile{
        UserID:             userID,
        AgePreferenceMin:   18,
        AgePreferenceMax:   100,
        DistanceImportance: 0.5,
    }
    s.prefs[userID] = p
    return p, nil
}

func (s *stubRepo) SavePreferenceProfile(_ context.Context, profile *PreferenceProfile) error {
    s.prefs[profile.UserID] = profile
    s.savedPreferences = append(s.savedPreferences, profile)
    return nil
}

func (s *stubRepo) CreateLike(_ context.Context, like *ProfileLike) error {
    for _, l := range s.likes {
        if l.LikerID == like.LikerID && l.LikedUserID == like.LikedUserID {
            return ErrAlreadyLiked
        }
    }
    like.ID = int64(len(s.likes) + 1)
    like.CreatedAt = time.Now()
    s.likes = append(s.likes, like)
    return nil
}

func (s *stubRepo) HasLike(_ context.Context, likerID, likedUserID int64) (bool, error) {
    for _, l := range s.likes {
        if l.LikerID == likerID && l.LikedUserID == likedUserID {
            return true, nil
        }
    }
    return false, nil
}

func (s *stubRepo) LikedUserIDs(_ context.Context, likerID int64) ([]int64, error) {
    var ids []int64
    for _, l := range s.likes {
        if l.LikerID == likerID {
            ids = append(ids, l.LikedUserID)
        }
    }
    return ids, nil
}

func (s *stubRepo) CountLikesGiven(_ context.Context, likerID int64) (int, error) {
    count := 0
    for _, l := range s.likes {
        if l.LikerID == likerID {
            count++
        }
    }
    return count, nil
}

func (s *stubRepo) CreateMatch(_ context.Context, match *Match) error {
    if match.User1ID > match.User2ID {
        match.User1ID, match.User2ID = match.User2ID, match.User1ID
    }
    match.ID = int64(len(s.matches) + 1)
    match.CreatedAt = time.Now()
    s.matches = append(s.matches, match)
    return nil
}

func (s *stubRepo) CreateInteraction(_ context.Context, interaction *Interaction) error {
    interaction.ID = int64(len(s.interactions) + 1)
    if interaction.CreatedAt.IsZero() {
        interaction.CreatedAt = time.Now()
    }
    s.interactions = append(s.interactions, interaction)
    return nil
}

func (s *stubRepo) PositiveInteractionTargets(_ context.Context, userID int64, limit int) ([]*UserProfile, error) {
    seen := make(map[int64]bool)
    var out []*UserProfile
    for _, i := range s.interactions {
        if i.UserID != userID || i.TargetUserID == nil {
            continue
        }
        if i.Kind != InteractionLike && i.Kind != InteractionSuperlike && i.Kind != InteractionMessageSent {
            continue
        }
        if seen[*i.TargetUserID] {
            continue
        }
        if p, ok := s.profiles[*i.TargetUserID]; ok {
            seen[*i.TargetUserID] = true
            out = append(out, p)
            if len(out) >= limit {
                break
            }
        }
    }
    return out, nil
}

func (s *stubRepo) CountInteractionsSince(_ context.Context, userID int64, since time.Time) (int, error) {
    count := 0
    for _, i := range s.interactions {
        if i.UserID == userID && !i.CreatedAt.Before(since) {
            count++
        }
    }
    return count, nil
}

func (s *stubRepo) CountInteractionsByKind(_ context.Context, userID int64, kind string) (int, error) {
    count := 0
    for _, i := range s.interactions {
        if i.UserID == userID && i.Kind == kind {
            count++
        }
    }
    return count, nil
}

func (s *stubRepo) DailyInteractionCounts(_ context.Context, _ int64, days int) ([]int, error) {
    if s.dailyCounts != nil {
        return s.dailyCounts, nil
    }
    return make([]int, days), nil
}

func (s *stubRepo) CreateProfileView(_ context.Context, view *ProfileView) error {
    view.ID = int64(len(s.views) + 1)
    if view.CreatedAt.IsZero() {
        view.CreatedAt = time.Now()
    }
    s.views = append(s.views, view)
    return nil
}

func (s *stubRepo) EngagedViewTargets(_ context.Context, viewerID int64, limit int) ([]*UserProfile, error) {
    seen := make(map[int64]bool)
    var out []*UserProfile
    for _, v := range s.views {
        if v.ViewerID != viewerID || v.ViewDuration < 10 {
            continue
        }
        if !v.ScrolledToBottom && v.ViewedImagesCount < 3 {
            continue
        }
        if seen[v.ViewedUserID] {
            continue
        }
        if p, ok := s.profiles[v.ViewedUserID]; ok {
            seen[v.ViewedUserID] = true
            out = append(out, p)
            if len(out) >= limit {
                break
            }
        }
    }
    return out, nil
}

func (s *stubRepo) CountProfileViews(_ context.Context, viewerID, viewedUserID int64) (int, error) {
    count := 0
    for _, v := range s.views {
        if v.ViewerID == viewerID && v.ViewedUserID == viewedUserID {
            count++
        }
    }
    return count, nil
}

func (s *stubRepo) HasViewed(_ context.Context, viewerID, viewedUserID int64) (bool, error) {
    if s.failViewLookupFor[viewerID] {
        return false, errors.New("stub: view lookup failed")
    }
    for _, v := range s.views {
        if v.ViewerID == viewerID && v.ViewedUserID == viewedUserID {
            return true, nil
        }
    }
    return false, nil
}

func (s *stubRepo) BestRecentView(_ context.Context, viewerID, viewedUserID int64, since time.Time) (*ProfileView, error) {
    var best *ProfileView
    for _, v := range s.views {
        if v.ViewerID != viewerID || v.ViewedUserID != viewedUserID || v.CreatedAt.Before(since) {
            continue
        }
        if best == nil || v.ViewDuration > best.ViewDuration {
            best = v
        }
    }
    return best, nil
}

func (s *stubRepo) CountViewsMade(_ context.Context, viewerID int64) (int, error) {
    count := 0
    for _, v := range s.views {
        if v.ViewerID == viewerID {
            count++
        }
    }
    return count, nil
}

func (s *stubRepo) DecayRecommendationBoosts(_ context.Context, rate float64) (int64, error) {
    s.decayCalls++
    var affected int64
    for _, p := range s.profiles {
        if p.RecommendationBoost > 1.0 {
            p.RecommendationBoost -= (p.RecommendationBoost - 1.0) * rate
            if p.RecommendationBoost < 1.0 {
                p.RecommendationBoost = 1.0
            }
            affected++
        }
    }
    return affected, nil
}

func (s *stubRepo) DeleteEventsBefore(_ context.Context, cutoff time.Time) (int64, error) {
    s.deleteCutoff = cutoff

    var deleted int64
    var keptViews []*ProfileView
    for _, v := range s.views {
        if v.CreatedAt.Before(cutoff) {
            deleted++
            continue
        }
        keptViews = append(keptViews, v)
    }
    s.views = keptViews

    var keptInteractions []*Interaction
    for _, i := range s.interactions {
        if i.CreatedAt.Before(cutoff) {
            deleted++
            continue
        }
        keptInteractions = append(keptInteractions, i)
    }
    s.interactions = keptInteractions

    return deleted, nil
}

func containsString(set []string, value string) bool {
    for _, s := range set {
        if s == value {
            return true
        }
    }
    return false
}

// Test helpers

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func timePtr(t time.Time) *time.Time { return &t }
