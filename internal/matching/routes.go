package matching

import (
    "net/http"

    "github.com/gorilla/mux"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authenticate func(http.Handler) http.Handler) {
    api := router.PathPrefix("/api/v1/matching").Subrouter()
    api.Use(authenticate)

    // Recommendations & scoring
    api.HandleFunc("/recommendations", handler.GetRecommendations).Methods("GET")
    api.HandleFunc("/compatibility/{userId}", handler.GetCompatibility).Methods("GET")

    // Behavioral events
    api.HandleFunc("/likes", handler.RecordLike).Methods("POST")
    api.HandleFunc("/views", handler.RecordView).Methods("POST")

    // Preference profile
    api.HandleFunc("/preferences/refresh", handler.RefreshPreferences).Methods("POST")
    api.HandleFunc("/profile/completeness", handler.GetProfileCompleteness).Methods("GET")
}
