package matching

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/gorilla/mux"
)

// fakeAuth injects a fixed authenticated user, standing in for the JWT
// middleware.
func fakeAuth(userID int64) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            ctx := context.WithValue(r.Context(), "userID", userID)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

func newTestRouter(repo *stubRepo, userID int64) *mux.Router {
    router := mux.NewRouter()
    RegisterRoutes(router, NewHandler(newTestService(repo), 20), fakeAuth(userID))
    return router
}

func TestGetRecommendationsHandler(t *testing.T) {
    repo := newStubRepo()
    seedSubject(repo, "female")
    repo.addProfile(&UserProfile{ID: 2, Gender: strPtr("male")})
    repo.addProfile(&UserProfile{ID: 3, Gender: strPtr("male")})
    router := newTestRouter(repo, 1)

    req := httptest.NewRequest("GET", "/api/v1/matching/recommendations?limit=1", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
    }

    var resp RecommendationsResponse
    if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode response: %v", err)
    }
    if resp.Count != 1 || len(resp.Recommendations) != 1 {
        t.Errorf("count = %d with %d items, want 1", resp.Count, len(resp.Recommendations))
    }
}

func TestGetRecommendationsHandlerDefaultLimit(t *testing.T) {
    repo := newStubRepo()
    seedSubject(repo, "female")
    for i := int64(2); i <= 5; i++ {
        repo.addProfile(&UserProfile{ID: i, Gender: strPtr("male")})
    }

    router := mux.NewRouter()
    RegisterRoutes(router, NewHandler(newTestService(repo), 3), fakeAuth(1))

    req := httptest.NewRequest("GET", "/api/v1/matching/recommendations", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
    }

    var resp RecommendationsResponse
    if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode response: %v", err)
    }
    if resp.Count != 3 {
        t.Errorf("count = %d, want the configured default of 3", resp.Count)
    }
}

func TestGetRecommendationsHandlerBadExclude(t *testing.T) {
    repo := newStubRepo()
    seedSubject(repo, "female")
    router := newTestRouter(repo, 1)

    req := httptest.NewRequest("GET", "/api/v1/matching/recommendations?exclude=2,abc", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    if rec.Code != http.StatusBadRequest {
        t.Errorf("status = %d, want 400", rec.Code)
    }
}

func TestGetCompatibilityHandler(t *testing.T) {
    repo := newStubRepo()
    repo.addProfile(completeProfile(1))
    repo.addProfile(completeProfile(2))
    router := newTestRouter(repo, 1)

    req := httptest.NewRequest("GET", "/api/v1/matching/compatibility/2", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
    }

    var resp CompatibilityResponse
    if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode response: %v", err)
    }
    if resp.UserID != 2 {
        t.Errorf("user_id = %d, want 2", resp.UserID)
    }
    if resp.Score < 0 || resp.Score > 100 {
        t.Errorf("score = %v, outside [0, 100]", resp.Score)
    }
    if resp.Factors == nil {
        t.Error("factors missing from response")
    }
}

func TestGetCompatibilityHandlerUnknownUser(t *testing.T) {
    repo := newStubRepo()
    repo.addProfile(completeProfile(1))
    router := newTestRouter(repo, 1)

    req := httptest.NewRequest("GET", "/api/v1/matching/compatibility/99", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    if rec.Code != http.StatusNotFound {
        t.Errorf("status = %d, want 404", rec.Code)
    }
}

func TestRecordLikeHandler(t *testing.T) {
    tests := []struct {
        name       string
        body       string
        wantStatus int
    }{
        {"created", `{"liked_user_id": 2}`, http.StatusCreated},
        {"self like", `{"liked_user_id": 1}`, http.StatusBadRequest},
        {"unknown target", `{"liked_user_id": 99}`, http.StatusNotFound},
        {"missing target", `{}`, http.StatusBadRequest},
        {"malformed json", `{"liked_user_id": `, http.StatusBadRequest},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            repo := newStubRepo()
            repo.addProfile(&UserProfile{ID: 1})
            repo.addProfile(&UserProfile{ID: 2})
            router := newTestRouter(repo, 1)

            req := httptest.NewRequest("POST", "/api/v1/matching/likes", bytes.NewBufferString(tt.body))
            rec := httptest.NewRecorder()
            router.ServeHTTP(rec, req)

            if rec.Code != tt.wantStatus {
                t.Errorf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body.String())
            }
        })
    }
}

func TestRecordLikeHandlerDuplicate(t *testing.T) {
    repo := newStubRepo()
    repo.addProfile(&UserProfile{ID: 1})
    repo.addProfile(&UserProfile{ID: 2})
    router := newTestRouter(repo, 1)

    for i, want := range []int{http.StatusCreated, http.StatusConflict} {
        req := httptest.NewRequest("POST", "/api/v1/matching/likes", bytes.NewBufferString(`{"liked_user_id": 2}`))
        rec := httptest.NewRecorder()
        router.ServeHTTP(rec, req)
        if rec.Code != want {
            t.Errorf("request %d status = %d, want %d", i+1, rec.Code, want)
        }
    }
}

func TestRecordViewHandler(t *testing.T) {
    repo := newStubRepo()
    repo.addProfile(&UserProfile{ID: 1})
    repo.addProfile(&UserProfile{ID: 2})
    router := newTestRouter(repo, 1)

    body := `{"viewed_user_id": 2, "view_duration": 42, "scrolled_to_bottom": true}`
    req := httptest.NewRequest("POST", "/api/v1/matching/views", bytes.NewBufferString(body))
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    if rec.Code != http.StatusCreated {
        t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
    }
    if len(repo.views) != 1 || repo.views[0].ViewDuration != 42 {
        t.Errorf("view not stored as submitted: %+v", repo.views)
    }
    if repo.views[0].ViewerID != 1 {
        t.Errorf("viewer = %d, want authenticated user 1", repo.views[0].ViewerID)
    }
}

func TestRefreshPreferencesHandler(t *testing.T) {
    repo := newStubRepo()
    repo.addProfile(&UserProfile{ID: 1})
    router := newTestRouter(repo, 1)

    req := httptest.NewRequest("POST", "/api/v1/matching/preferences/refresh", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
    }
    if _, ok := repo.prefs[1]; !ok {
        t.Error("refresh did not create the preference profile")
    }
}

func TestGetProfileCompletenessHandler(t *testing.T) {
    repo := newStubRepo()
    repo.addProfile(completeProfile(1))
    router := newTestRouter(repo, 1)

    req := httptest.NewRequest("GET", "/api/v1/matching/profile/completeness", nil)
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)

    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
    }

    var resp CompletenessResponse
    if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode response: %v", err)
    }
    if resp.Completeness != 1.0 {
        t.Errorf("completeness = %v, want 1.0", resp.Completeness)
    }
}
