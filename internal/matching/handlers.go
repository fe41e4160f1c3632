package matching

import (
    "encoding/json"
    "net/http"
    "strconv"
    "strings"

    "github.com/gorilla/mux"

    "github.com/mazale-app/matchmaking-backend/internal/common/utils"
)

type Handler struct {
    service      Service
    defaultLimit int
}

func NewHandler(service Service, defaultLimit int) *Handler {
    if defaultLimit <= 0 {
        defaultLimit = 20
    }
    return &Handler{service: service, defaultLimit: defaultLimit}
}

func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
    userID := r.Context().Value("userID").(int64)

    limit := h.defaultLimit
    if l := r.URL.Query().Get("limit"); l != "" {
        if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
            limit = parsed
        }
    }

    var excludeIDs []int64
    if raw := r.URL.Query().Get("exclude"); raw != "" {
        for _, part := range strings.Split(raw, ",") {
            id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
            if err != nil {
                utils.RespondWithError(w, http.StatusBadRequest, "Invalid exclude list")
                return
            }
            excludeIDs = append(excludeIDs, id)
        }
    }

    recommendations, err := h.service.GetRecommendations(r.Context(), userID, limit, excludeIDs)
    if err != nil {
        if err == ErrUserNotFound {
            utils.RespondWithError(w, http.StatusNotFound, err.Error())
            return
        }
        utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get recommendations")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, &RecommendationsResponse{
        Recommendations: recommendations,
        Count:           len(recommendations),
    })
}

func (h *Handler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
    userID := r.Context().Value("userID").(int64)

    vars := mux.Vars(r)
    candidateID, err := strconv.ParseInt(vars["userId"], 10, 64)
    if err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
        return
    }

    score, factors, err := h.service.GetCompatibility(r.Context(), userID, candidateID)
    if err != nil {
        if err == ErrUserNotFound {
            utils.RespondWithError(w, http.StatusNotFound, err.Error())
            return
        }
        utils.RespondWithError(w, http.StatusInternalServerError, "Failed to calculate compatibility")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, &CompatibilityResponse{
        UserID:  candidateID,
        Score:   score,
        Factors: factors,
    })
}

func (h *Handler) RecordLike(w http.ResponseWriter, r *http.Request) {
    userID := r.Context().Value("userID").(int64)

    var dto RecordLikeDTO
    if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
        return
    }
    if err := utils.ValidateStruct(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    result, err := h.service.RecordLike(r.Context(), userID, dto.LikedUserID, dto.Superlike)
    if err != nil {
        switch err {
        case ErrCannotLikeSelf:
            utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        case ErrAlreadyLiked:
            utils.RespondWithError(w, http.StatusConflict, err.Error())
        case ErrUserNotFound:
            utils.RespondWithError(w, http.StatusNotFound, err.Error())
        default:
            utils.RespondWithError(w, http.StatusInternalServerError, "Failed to record like")
        }
        return
    }

    utils.RespondWithJSON(w, http.StatusCreated, result)
}

func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
    userID := r.Context().Value("userID").(int64)

    var dto RecordViewDTO
    if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
        return
    }
    if err := utils.ValidateStruct(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    view := &ProfileView{
        ViewerID:           userID,
        ViewedUserID:       dto.ViewedUserID,
        ViewDuration:       dto.ViewDuration,
        ScrolledToBottom:   dto.ScrolledToBottom,
        ViewedImagesCount:  dto.ViewedImagesCount,
        ClickedSocialLinks: dto.ClickedSocialLinks,
    }

    if err := h.service.RecordProfileView(r.Context(), view); err != nil {
        utils.RespondWithError(w, http.StatusInternalServerError, "Failed to record profile view")
        return
    }

    utils.RespondWithJSON(w, http.StatusCreated, view)
}

func (h *Handler) RefreshPreferences(w http.ResponseWriter, r *http.Request) {
    userID := r.Context().Value("userID").(int64)

    if err := h.service.RefreshPreferences(r.Context(), userID); err != nil {
        if err == ErrUserNotFound {
            utils.RespondWithError(w, http.StatusNotFound, err.Error())
            return
        }
        utils.RespondWithError(w, http.StatusInternalServerError, "Failed to refresh preferences")
        return
    }

    utils.MessageResponse(w, "Preference profile refreshed", http.StatusOK)
}

func (h *Handler) GetProfileCompleteness(w http.ResponseWriter, r *http.Request) {
    userID := r.Context().Value("userID").(int64)

    completeness, err := h.service.GetProfileCompleteness(r.Context(), userID)
    if err != nil {
        if err == ErrUserNotFound {
            utils.RespondWithError(w, http.StatusNotFound, err.Error())
            return
        }
        utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get profile completeness")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, &CompletenessResponse{Completeness: completeness})
}
