package matching

import (
    "time"

    "github.com/lib/pq"
)

// Activity levels, lowest to highest.
const (
    ActivityLow      = "low"
    ActivityMedium   = "medium"
    ActivityHigh     = "high"
    ActivityVeryHigh = "very_high"
)

// Interaction kinds recorded in user_interactions.
const (
    InteractionLike        = "like"
    InteractionSuperlike   = "superlike"
    InteractionMessageSent = "message_sent"
    InteractionProfileView = "profile_view"
    InteractionPass        = "pass"
)

type UserProfile struct {
    ID             int64          `json:"id" db:"id"`
    Username       string         `json:"username" db:"username"`
    FirstName      *string        `json:"first_name,omitempty" db:"first_name"`
    Gender         *string        `json:"gender,omitempty" db:"gender"`
    BirthYear      *int           `json:"birth_year,omitempty" db:"birth_year"`
    Bio            *string        `json:"bio,omitempty" db:"bio"`
    Hopes          *string        `json:"hopes,omitempty" db:"hopes"`
    Religion       *string        `json:"religion,omitempty" db:"religion"`
    Instagram      *string        `json:"instagram,omitempty" db:"instagram"`
    Twitter        *string        `json:"twitter,omitempty" db:"twitter"`
    ProfilePicture *string        `json:"profile_picture,omitempty" db:"profile_picture"`
    ImageCount     int            `json:"image_count" db:"image_count"`
    Interests      pq.StringArray `json:"interests" db:"interests"`

    // Location (decimal degrees, optional)
    Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
    Longitude *float64 `json:"longitude,omitempty" db:"longitude"`

    // Activity & engagement
    Online              bool       `json:"online" db:"online"`
    LastActive          *time.Time `json:"last_active,omitempty" db:"last_active"`
    ActivityLevel       string     `json:"activity_level" db:"activity_level"`
    EngagementScore     float64    `json:"engagement_score" db:"engagement_score"`
    RecommendationBoost float64    `json:"recommendation_boost" db:"recommendation_boost"`
    MomentCount         int        `json:"moment_count" db:"moment_count"`

    LastPreferenceUpdate *time.Time `json:"last_preference_update,omitempty" db:"last_preference_update"`
    CreatedAt            time.Time  `json:"created_at" db:"created_at"`
    UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// Age derives the user's age from the birth year, or 0 when unset.
func (u *UserProfile) Age(now time.Time) int {
    if u.BirthYear == nil {
        return 0
    }
    return now.Year() - *u.BirthYear
}

// PreferenceProfile holds the derived matching parameters for one user.
// Created lazily on first use, mutated only by the preference updater.
type PreferenceProfile struct {
    UserID             int64          `json:"user_id" db:"user_id"`
    AgePreferenceMin   int            `json:"age_preference_min" db:"age_preference_min"`
    AgePreferenceMax   int            `json:"age_preference_max" db:"age_preference_max"`
    DistanceImportance float64        `json:"distance_importance" db:"distance_importance"`
    SwipeRate          float64        `json:"swipe_rate" db:"swipe_rate"`
    AnyGender          bool           `json:"any_gender" db:"any_gender"`
    PreferredGenders   pq.StringArray `json:"preferred_genders" db:"preferred_genders"`
    UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// GenderPreference resolves the declarative candidate-gender filter for a
// subject. An empty preference falls back to "any gender except the
// subject's own", which keeps parity with the legacy opposite-gender rule
// without hard-coding a binary model.
func (p *PreferenceProfile) GenderPreference() GenderPreference {
    if p == nil {
        return GenderPreference{}
    }
    return GenderPreference{Any: p.AnyGender, Genders: p.PreferredGenders}
}

type GenderPreference struct {
    Any     bool
    Genders []string
}

type Interaction struct {
    ID           int64     `json:"id" db:"id"`
    UserID       int64     `json:"user_id" db:"user_id"`
    TargetUserID *int64    `json:"target_user_id,omitempty" db:"target_user_id"`
    Kind         string    `json:"kind" db:"kind"`
    Engagement   float64   `json:"engagement" db:"engagement"`
    CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type ProfileView struct {
    ID                 int64     `json:"id" db:"id"`
    ViewerID           int64     `json:"viewer_id" db:"viewer_id"`
    ViewedUserID       int64     `json:"viewed_user_id" db:"viewed_user_id"`
    ViewDuration       int       `json:"view_duration" db:"view_duration"`
    ScrolledToBottom   bool      `json:"scrolled_to_bottom" db:"scrolled_to_bottom"`
    ViewedImagesCount  int       `json:"viewed_images_count" db:"viewed_images_count"`
    ClickedSocialLinks bool      `json:"clicked_social_links" db:"clicked_social_links"`
    CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

type ProfileLike struct {
    ID          int64     `json:"id" db:"id"`
    LikerID     int64     `json:"liker_id" db:"liker_id"`
    LikedUserID int64     `json:"liked_user_id" db:"liked_user_id"`
    Superlike   bool      `json:"superlike" db:"superlike"`
    CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Match struct {
    ID        int64     `json:"id" db:"id"`
    User1ID   int64     `json:"user1_id" db:"user1_id"`
    User2ID   int64     `json:"user2_id" db:"user2_id"`
    CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CompatibilityFactors carries the seven sub-scores behind a final score,
// mostly for explainability in API responses and stored picks.
type CompatibilityFactors struct {
    Demographic         float64 `json:"demographic"`
    Behavioral          float64 `json:"behavioral"`
    Interest            float64 `json:"interest"`
    EngagementPotential float64 `json:"engagement_potential"`
    Reciprocity         float64 `json:"reciprocity"`
    Freshness           float64 `json:"freshness"`
    ActivityMatch       float64 `json:"activity_match"`
}

type ScoredCandidate struct {
    UserID  int64                 `json:"user_id"`
    Profile *UserProfile          `json:"profile,omitempty"`
    Score   float64               `json:"score"`
    Factors *CompatibilityFactors `json:"factors,omitempty"`
}
