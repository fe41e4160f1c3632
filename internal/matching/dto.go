// internal/matching/dto.go
package matching

// DTOs for API requests/responses

type RecordLikeDTO struct {
    LikedUserID int64 `json:"liked_user_id" validate:"required"`
    Superlike   bool  `json:"superlike,omitempty"`
}

type RecordViewDTO struct {
    ViewedUserID       int64 `json:"viewed_user_id" validate:"required"`
    ViewDuration       int   `json:"view_duration" validate:"min=0"`
    ScrolledToBottom   bool  `json:"scrolled_to_bottom,omitempty"`
    ViewedImagesCount  int   `json:"viewed_images_count,omitempty" validate:"min=0"`
    ClickedSocialLinks bool  `json:"clicked_social_links,omitempty"`
}

type RecommendationsResponse struct {
    Recommendations []*ScoredCandidate `json:"recommendations"`
    Count           int                `json:"count"`
}

type CompatibilityResponse struct {
    UserID  int64                 `json:"user_id"`
    Score   float64               `json:"score"`
    Factors *CompatibilityFactors `json:"factors"`
}

type CompletenessResponse struct {
    Completeness float64 `json:"completeness"`
}
