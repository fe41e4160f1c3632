package auth

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/mazale-app/matchmaking-backend/internal/common/utils"
)

const testSecret = "test-secret"

func authedHandler(t *testing.T, wantUserID int64) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        userID, ok := r.Context().Value("userID").(int64)
        if !ok {
            t.Error("userID missing from request context")
        } else if userID != wantUserID {
            t.Errorf("userID = %d, want %d", userID, wantUserID)
        }
        w.WriteHeader(http.StatusOK)
    })
}

func TestAuthenticate(t *testing.T) {
    middleware := NewMiddleware(testSecret)

    token, err := utils.GenerateJWT(7, "access", time.Hour, testSecret)
    if err != nil {
        t.Fatalf("GenerateJWT: %v", err)
    }

    req := httptest.NewRequest("GET", "/", nil)
    req.Header.Set("Authorization", "Bearer "+token)
    rec := httptest.NewRecorder()

    middleware.Authenticate(authedHandler(t, 7)).ServeHTTP(rec, req)

    if rec.Code != http.StatusOK {
        t.Errorf("status = %d, want 200", rec.Code)
    }
}

func TestAuthenticateRejections(t *testing.T) {
    middleware := NewMiddleware(testSecret)

    expired, err := utils.GenerateJWT(7, "access", -time.Hour, testSecret)
    if err != nil {
        t.Fatalf("GenerateJWT: %v", err)
    }
    refresh, err := utils.GenerateJWT(7, "refresh", time.Hour, testSecret)
    if err != nil {
        t.Fatalf("GenerateJWT: %v", err)
    }
    wrongKey, err := utils.GenerateJWT(7, "access", time.Hour, "other-secret")
    if err != nil {
        t.Fatalf("GenerateJWT: %v", err)
    }

    tests := []struct {
        name   string
        header string
    }{
        {"no header", ""},
        {"not bearer", "Basic abc123"},
        {"garbage token", "Bearer not-a-token"},
        {"expired token", "Bearer " + expired},
        {"refresh token on access route", "Bearer " + refresh},
        {"wrong signing key", "Bearer " + wrongKey},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            req := httptest.NewRequest("GET", "/", nil)
            if tt.header != "" {
                req.Header.Set("Authorization", tt.header)
            }
            rec := httptest.NewRecorder()

            handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
                t.Error("handler reached with invalid credentials")
            }))
            handler.ServeHTTP(rec, req)

            if rec.Code != http.StatusUnauthorized {
                t.Errorf("status = %d, want 401", rec.Code)
            }
        })
    }
}
