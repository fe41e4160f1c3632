// cmd/api/main.go
// Main entry point for the matchmaking API
// Bootstraps all components and starts the server

package main

import (
    "context"
    "fmt"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/go-redis/redis/v8"
    "github.com/google/uuid"
    "github.com/gorilla/mux"
    "github.com/jmoiron/sqlx"
    "github.com/joho/godotenv"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/mazale-app/matchmaking-backend/internal/auth"
    "github.com/mazale-app/matchmaking-backend/internal/common/database"
    "github.com/mazale-app/matchmaking-backend/internal/config"
    "github.com/mazale-app/matchmaking-backend/internal/matching"
)

var startTime = time.Now()

func main() {
    log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

    log.Println("Starting matchmaking API")

    // 1. Load environment variables
    if err := godotenv.Load(); err != nil {
        log.Printf("No .env file found (%v), using environment variables", err)
    }

    // 2. Load and validate configuration
    cfg := config.Load()
    if err := cfg.Validate(); err != nil {
        log.Fatal("Configuration validation failed:", err)
    }

    // 3. Connect to PostgreSQL
    db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL)
    if err != nil {
        log.Fatal("Failed to connect to PostgreSQL:", err)
    }
    defer db.Close()
    log.Println("Connected to PostgreSQL")

    // 4. Connect to Redis (optional; recommendations are computed per
    // request when the cache is unavailable)
    var redisClient *redis.Client
    if cfg.RedisURL != "" {
        redisClient, err = database.NewRedisClientFromURL(cfg.RedisURL)
        if err != nil {
            log.Printf("Redis unavailable (%v), continuing without recommendation cache", err)
            redisClient = nil
        } else {
            defer redisClient.Close()
            log.Println("Connected to Redis")
        }
    }

    // 5. Run database migrations
    if err := runMigrations(db); err != nil {
        log.Fatal("Failed to run migrations:", err)
    }
    log.Println("Database migrations completed")

    // 6. Initialize matching module
    repo := matching.NewPostgresRepository(db)
    engine := matching.NewEngine(repo)
    cache := matching.NewRecommendationCache(redisClient, cfg.RecommendationCacheTTL)
    eventRetention := time.Duration(cfg.EventRetentionDays) * 24 * time.Hour
    matchingService := matching.NewService(repo, engine, cache, eventRetention)
    matchingHandler := matching.NewHandler(matchingService, cfg.RecommendationLimit)
    log.Println("Matching module initialized")

    // 7. Start the scheduler for periodic maintenance
    schedulerCtx, stopScheduler := context.WithCancel(context.Background())
    defer stopScheduler()

    scheduler := matching.NewScheduler(matchingService, cfg.BoostDecayInterval)
    scheduler.Start(schedulerCtx)
    log.Println("Scheduler started")

    // 8. Set up routes
    authMiddleware := auth.NewMiddleware(cfg.JWTSecret)

    router := mux.NewRouter()
    router.HandleFunc("/health", healthCheck).Methods("GET")
    router.Handle("/metrics", promhttp.Handler()).Methods("GET")
    matching.RegisterRoutes(router, matchingHandler, authMiddleware.Authenticate)

    router.Use(requestIDMiddleware)
    router.Use(loggingMiddleware)

    // 9. Create and start HTTP server
    srv := &http.Server{
        Addr:         fmt.Sprintf(":%s", cfg.Port),
        Handler:      router,
        ReadTimeout:  15 * time.Second,
        WriteTimeout: 15 * time.Second,
        IdleTimeout:  60 * time.Second,
    }

    go func() {
        log.Printf("Server listening on :%s (%s)", cfg.Port, cfg.Environment)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal("Failed to start server:", err)
        }
    }()

    // Wait for interrupt signal
    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit

    log.Println("Shutdown signal received")
    stopScheduler()

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()

    if err := srv.Shutdown(ctx); err != nil {
        log.Fatal("Server forced to shutdown:", err)
    }

    log.Println("Server exited gracefully")
}

// healthCheck returns server health status
func healthCheck(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusOK)
    fmt.Fprintf(w, `{"status":"healthy","uptime":"%s"}`, time.Since(startTime))
}

// requestIDMiddleware tags every request with an ID for log correlation
func requestIDMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        requestID := r.Header.Get("X-Request-ID")
        if requestID == "" {
            requestID = uuid.NewString()
        }
        w.Header().Set("X-Request-ID", requestID)
        next.ServeHTTP(w, r)
    })
}

// loggingMiddleware logs all requests
func loggingMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()

        wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
        next.ServeHTTP(wrapped, r)

        log.Printf("%s %s [%d] %v", r.Method, r.RequestURI, wrapped.statusCode, time.Since(start))
    })
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
    http.ResponseWriter
    statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
    rw.statusCode = code
    rw.ResponseWriter.WriteHeader(code)
}

// runMigrations executes database migrations
func runMigrations(db *sqlx.DB) error {
    migrations := []string{
        `CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            username VARCHAR(100) UNIQUE NOT NULL,
            first_name VARCHAR(50),
            gender VARCHAR(10),
            birth_year INTEGER,
            bio TEXT,
            hopes TEXT,
            religion VARCHAR(50),
            instagram VARCHAR(100),
            twitter VARCHAR(100),
            profile_picture VARCHAR(255),
            image_count INTEGER DEFAULT 0,
            interests TEXT[] DEFAULT '{}',
            latitude DOUBLE PRECISION,
            longitude DOUBLE PRECISION,
            online BOOLEAN DEFAULT FALSE,
            last_active TIMESTAMP,
            activity_level VARCHAR(20) DEFAULT 'medium',
            engagement_score DOUBLE PRECISION DEFAULT 0,
            recommendation_boost DOUBLE PRECISION DEFAULT 1.0,
            moment_count INTEGER DEFAULT 0,
            last_preference_update TIMESTAMP,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

        `CREATE TABLE IF NOT EXISTS preference_profiles (
            user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
            age_preference_min INTEGER DEFAULT 18,
            age_preference_max INTEGER DEFAULT 100,
            distance_importance DOUBLE PRECISION DEFAULT 0.5,
            swipe_rate DOUBLE PRECISION DEFAULT 0,
            any_gender BOOLEAN DEFAULT FALSE,
            preferred_genders TEXT[] DEFAULT '{}',
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

        `CREATE TABLE IF NOT EXISTS profile_likes (
            id SERIAL PRIMARY KEY,
            liker_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            liked_user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            superlike BOOLEAN DEFAULT FALSE,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT unique_profile_like UNIQUE(liker_id, liked_user_id)
        )`,

        `CREATE TABLE IF NOT EXISTS matches (
            id SERIAL PRIMARY KEY,
            user1_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            user2_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT unique_match UNIQUE(user1_id, user2_id)
        )`,

        `CREATE TABLE IF NOT EXISTS user_interactions (
            id SERIAL PRIMARY KEY,
            user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            target_user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
            kind VARCHAR(20) NOT NULL,
            engagement DOUBLE PRECISION DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

        `CREATE TABLE IF NOT EXISTS profile_views (
            id SERIAL PRIMARY KEY,
            viewer_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            viewed_user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            view_duration INTEGER DEFAULT 0,
            scrolled_to_bottom BOOLEAN DEFAULT FALSE,
            viewed_images_count INTEGER DEFAULT 0,
            clicked_social_links BOOLEAN DEFAULT FALSE,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

        `CREATE INDEX IF NOT EXISTS idx_users_last_active ON users(last_active)`,
        `CREATE INDEX IF NOT EXISTS idx_users_gender ON users(gender)`,
        `CREATE INDEX IF NOT EXISTS idx_profile_likes_liker ON profile_likes(liker_id)`,
        `CREATE INDEX IF NOT EXISTS idx_profile_likes_liked ON profile_likes(liked_user_id)`,
        `CREATE INDEX IF NOT EXISTS idx_matches_user1 ON matches(user1_id)`,
        `CREATE INDEX IF NOT EXISTS idx_matches_user2 ON matches(user2_id)`,
        `CREATE INDEX IF NOT EXISTS idx_interactions_user_created ON user_interactions(user_id, created_at)`,
        `CREATE INDEX IF NOT EXISTS idx_interactions_kind ON user_interactions(user_id, kind)`,
        `CREATE INDEX IF NOT EXISTS idx_views_viewer_viewed ON profile_views(viewer_id, viewed_user_id)`,
        `CREATE INDEX IF NOT EXISTS idx_views_viewed ON profile_views(viewed_user_id)`,
        `CREATE INDEX IF NOT EXISTS idx_views_created ON profile_views(created_at)`,
    }

    for i, migration := range migrations {
        if _, err := db.Exec(migration); err != nil {
            return fmt.Errorf("migration %d failed: %w", i+1, err)
        }
    }

    return nil
}
