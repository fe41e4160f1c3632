package matching

import (
    "context"
    "log"
    "sort"
)

// candidatePoolCap bounds how many filtered candidates are scored per
// request. Scoring the entire user base per request is deliberately traded
// away for a bounded pool.
const candidatePoolCap = 100

type CandidateFilters struct {
    Genders       GenderPreference
    SubjectGender string
    ExcludeIDs    []int64
    PoolLimit     int
}

// RecommendUsers scores a bounded candidate pool for the subject and
// returns up to limit candidates ordered by score, highest first. A
// candidate that fails to score is skipped; the rest of the pool is still
// ranked.
func (e *Engine) RecommendUsers(ctx context.Context, userID int64, limit int, excludeIDs []int64) ([]*ScoredCandidate, error) {
    subject, err := e.repo.GetUserProfile(ctx, userID)
    if err != nil {
        return nil, err
    }

    prefs, err := e.repo.EnsurePreferenceProfile(ctx, userID)
    if err != nil {
        return nil, err
    }

    filters := &CandidateFilters{
        Genders:    prefs.GenderPreference(),
        ExcludeIDs: excludeIDs,
        PoolLimit:  candidatePoolCap,
    }
    if subject.Gender != nil {
        filters.SubjectGender = *subject.Gender
    }

    candidates, err := e.repo.FindCandidates(ctx, userID, filters)
    if err != nil {
        return nil, err
    }

    scored := make([]*ScoredCandidate, 0, len(candidates))
    for _, candidate := range candidates {
        score, factors, err := e.CalculateCompatibility(ctx, subject, candidate, prefs)
        if err != nil {
            log.Printf("scoring candidate %d for user %d failed: %v", candidate.ID, userID, err)
            recordScoringError()
            continue
        }

        recordCompatibilityScore(score)
        scored = append(scored, &ScoredCandidate{
            UserID:  candidate.ID,
            Profile: candidate,
            Score:   score,
            Factors: factors,
        })
    }

    // Tie-break on candidate ID so identical inputs always rank identically.
    sort.SliceStable(scored, func(i, j int) bool {
        if scored[i].Score != scored[j].Score {
            return scored[i].Score > scored[j].Score
        }
        return scored[i].UserID < scored[j].UserID
    })

    if limit > 0 && len(scored) > limit {
        scored = scored[:limit]
    }

    return scored, nil
}
