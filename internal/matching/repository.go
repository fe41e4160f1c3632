package matching

import (
    "context"
    "database/sql"
    "strconv"
    "time"

    "github.com/jmoiron/sqlx"
    "github.com/lib/pq"
)

type Repository interface {
    // Profiles
    GetUserProfile(ctx context.Context, userID int64) (*UserProfile, error)
    GetActiveUserIDs(ctx context.Context, activeWithin time.Duration) ([]int64, error)
    FindCandidates(ctx context.Context, userID int64, filters *CandidateFilters) ([]*UserProfile, error)
    SaveDerivedUserFields(ctx context.Context, user *UserProfile) error

    // Preference profiles
    GetPreferenceProfile(ctx context.Context, userID int64) (*PreferenceProfile, error)
    EnsurePreferenceProfile(ctx context.Context, userID int64) (*PreferenceProfile, error)
    SavePreferenceProfile(ctx context.Context, profile *PreferenceProfile) error

    // Likes
    CreateLike(ctx context.Context, like *ProfileLike) error
    HasLike(ctx context.Context, likerID, likedUserID int64) (bool, error)
    LikedUserIDs(ctx context.Context, likerID int64) ([]int64, error)
    CountLikesGiven(ctx context.Context, likerID int64) (int, error)

    // Matches
    CreateMatch(ctx context.Context, match *Match) error

    // Interactions
    CreateInteraction(ctx context.Context, interaction *Interaction) error
    PositiveInteractionTargets(ctx context.Context, userID int64, limit int) ([]*UserProfile, error)
    CountInteractionsSince(ctx context.Context, userID int64, since time.Time) (int, error)
    CountInteractionsByKind(ctx context.Context, userID int64, kind string) (int, error)
    DailyInteractionCounts(ctx context.Context, userID int64, days int) ([]int, error)

    // Profile views
    CreateProfileView(ctx context.Context, view *ProfileView) error
    EngagedViewTargets(ctx context.Context, viewerID int64, limit int) ([]*UserProfile, error)
    CountProfileViews(ctx context.Context, viewerID, viewedUserID int64) (int, error)
    HasViewed(ctx context.Context, viewerID, viewedUserID int64) (bool, error)
    BestRecentView(ctx context.Context, viewerID, viewedUserID int64, since time.Time) (*ProfileView, error)
    CountViewsMade(ctx context.Context, viewerID int64) (int, error)

    // Maintenance
    DecayRecommendationBoosts(ctx context.Context, rate float64) (int64, error)
    DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type postgresRepository struct {
    db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
    return &postgresRepository{db: db}
}

const profileColumns = `
    id, username, first_name, gender, birth_year, bio, hopes, religion,
    instagram, twitter, profile_picture, image_count, interests,
    latitude, longitude, online, last_active, activity_level,
    engagement_score, recommendation_boost, moment_count,
    last_preference_update, created_at, updated_at
`

func (r *postgresRepository) GetUserProfile(ctx context.Context, userID int64) (*UserProfile, error) {
    var profile UserProfile
    query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`

    err := r.db.GetContext(ctx, &profile, query, userID)
    if err == sql.ErrNoRows {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }

    return &profile, nil
}

func (r *postgresRepository) GetActiveUserIDs(ctx context.Context, activeWithin time.Duration) ([]int64, error) {
    var ids []int64
    query := `SELECT id FROM users WHERE last_active >= $1 ORDER BY id`

    err := r.db.SelectContext(ctx, &ids, query, time.Now().Add(-activeWithin))
    return ids, err
}

func (r *postgresRepository) FindCandidates(ctx context.Context, userID int64, filters *CandidateFilters) ([]*UserProfile, error) {
    query := `
        SELECT ` + profileColumns + `
        FROM users u
        WHERE u.id != $1
          AND u.gender IS NOT NULL
          AND u.id NOT IN (SELECT liked_user_id FROM profile_likes WHERE liker_id = $1)
          AND u.id NOT IN (
              SELECT CASE WHEN m.user1_id = $1 THEN m.user2_id ELSE m.user1_id END
              FROM matches m
              WHERE m.user1_id = $1 OR m.user2_id = $1
          )
    `

    args := []interface{}{userID}

    if len(filters.ExcludeIDs) > 0 {
        args = append(args, pq.Array(filters.ExcludeIDs))
        query += ` AND u.id != ALL($2)`
    }

    switch {
    case filters.Genders.Any:
        // no gender restriction
    case len(filters.Genders.Genders) > 0:
        args = append(args, pq.Array(filters.Genders.Genders))
        query += ` AND u.gender = ANY($` + strconv.Itoa(len(args)) + `)`
    case filters.SubjectGender != "":
        args = append(args, filters.SubjectGender)
        query += ` AND u.gender != $` + strconv.Itoa(len(args))
    }

    args = append(args, filters.PoolLimit)
    query += ` ORDER BY u.id LIMIT $` + strconv.Itoa(len(args))

    var candidates []*UserProfile
    err := r.db.SelectContext(ctx, &candidates, query, args...)
    return candidates, err
}

func (r *postgresRepository) SaveDerivedUserFields(ctx context.Context, user *UserProfile) error {
    query := `
        UPDATE users
        SET activity_level = $2, engagement_score = $3,
            last_preference_update = $4, updated_at = CURRENT_TIMESTAMP
        WHERE id = $1
    `

    _, err := r.db.ExecContext(
        ctx, query,
        user.ID, user.ActivityLevel, user.EngagementScore, user.LastPreferenceUpdate,
    )
    return err
}

// Preference profiles

func (r *postgresRepository) GetPreferenceProfile(ctx context.Context, userID int64) (*PreferenceProfile, error) {
    var profile PreferenceProfile
    query := `
        SELECT user_id, age_preference_min, age_preference_max, distance_importance,
               swipe_rate, any_gender, preferred_genders, updated_at
        FROM preference_profiles
        WHERE user_id = $1
    `

    err := r.db.GetContext(ctx, &profile, query, userID)
    if err == sql.ErrNoRows {
        return nil, ErrPreferencesNotFound
    }
    if err != nil {
        return nil, err
    }

    return &profile, nil
}

func (r *postgresRepository) EnsurePreferenceProfile(ctx context.Context, userID int64) (*PreferenceProfile, error) {
    query := `
        INSERT INTO preference_profiles (user_id)
        VALUES ($1)
        ON CONFLICT (user_id) DO NOTHING
    `

    if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
        return nil, err
    }

    return r.GetPreferenceProfile(ctx, userID)
}

func (r *postgresRepository) SavePreferenceProfile(ctx context.Context, profile *PreferenceProfile) error {
    query := `
        UPDATE preference_profiles
        SET age_preference_min = $2, age_preference_max = $3,
            distance_importance = $4, swipe_rate = $5,
            any_gender = $6, preferred_genders = $7,
            updated_at = CURRENT_TIMESTAMP
        WHERE user_id = $1
    `

    _, err := r.db.ExecContext(
        ctx, query,
        profile.UserID, profile.AgePreferenceMin, profile.AgePreferenceMax,
        profile.DistanceImportance, profile.SwipeRate,
        profile.AnyGender, profile.PreferredGenders,
    )
    return err
}

// Likes

func (r *postgresRepository) CreateLike(ctx context.Context, like *ProfileLike) error {
    query := `
        INSERT INTO profile_likes (liker_id, liked_user_id, superlike)
        VALUES ($1, $2, $3)
        ON CONFLICT (liker_id, liked_user_id) DO NOTHING
        RETURNING id, created_at
    `

    err := r.db.QueryRowxContext(ctx, query, like.LikerID, like.LikedUserID, like.Superlike).
        Scan(&like.ID, &like.CreatedAt)
    if err == sql.ErrNoRows {
        return ErrAlreadyLiked
    }
    return err
}

func (r *postgresRepository) HasLike(ctx context.Context, likerID, likedUserID int64) (bool, error) {
    var exists bool
    query := `
        SELECT EXISTS(
            SELECT 1 FROM profile_likes
            WHERE liker_id = $1 AND liked_user_id = $2
        )
    `

    err := r.db.GetContext(ctx, &exists, query, likerID, likedUserID)
    return exists, err
}

func (r *postgresRepository) LikedUserIDs(ctx context.Context, likerID int64) ([]int64, error) {
    var ids []int64
    query := `SELECT liked_user_id FROM profile_likes WHERE liker_id = $1`

    err := r.db.SelectContext(ctx, &ids, query, likerID)
    return ids, err
}

func (r *postgresRepository) CountLikesGiven(ctx context.Context, likerID int64) (int, error) {
    var count int
    query := `SELECT COUNT(*) FROM profile_likes WHERE liker_id = $1`

    err := r.db.GetContext(ctx, &count, query, likerID)
    return count, err
}

// Matches

func (r *postgresRepository) CreateMatch(ctx context.Context, match *Match) error {
    // Ensure user1_id < user2_id for consistency
    if match.User1ID > match.User2ID {
        match.User1ID, match.User2ID = match.User2ID, match.User1ID
    }

    query := `
        INSERT INTO matches (user1_id, user2_id)
        VALUES ($1, $2)
        ON CONFLICT (user1_id, user2_id) DO UPDATE SET user1_id = matches.user1_id
        RETURNING id, created_at
    `

    return r.db.QueryRowxContext(ctx, query, match.User1ID, match.User2ID).
        Scan(&match.ID, &match.CreatedAt)
}

// Interactions

func (r *postgresRepository) CreateInteraction(ctx context.Context, interaction *Interaction) error {
    query := `
        INSERT INTO user_interactions (user_id, target_user_id, kind, engagement)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `

    return r.db.QueryRowxContext(
        ctx, query,
        interaction.UserID, interaction.TargetUserID, interaction.Kind, interaction.Engagement,
    ).Scan(&interaction.ID, &interaction.CreatedAt)
}

func (r *postgresRepository) PositiveInteractionTargets(ctx context.Context, userID int64, limit int) ([]*UserProfile, error) {
    query := `
        SELECT DISTINCT ON (u.id) ` + prefixedProfileColumns("u") + `
        FROM user_interactions i
        JOIN users u ON u.id = i.target_user_id
        WHERE i.user_id = $1
          AND i.kind IN ('like', 'superlike', 'message_sent')
        ORDER BY u.id
        LIMIT $2
    `

    var profiles []*UserProfile
    err := r.db.SelectContext(ctx, &profiles, query, userID, limit)
    return profiles, err
}

func (r *postgresRepository) CountInteractionsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
    var count int
    query := `SELECT COUNT(*) FROM user_interactions WHERE user_id = $1 AND created_at >= $2`

    err := r.db.GetContext(ctx, &count, query, userID, since)
    return count, err
}

func (r *postgresRepository) CountInteractionsByKind(ctx context.Context, userID int64, kind string) (int, error) {
    var count int
    query := `SELECT COUNT(*) FROM user_interactions WHERE user_id = $1 AND kind = $2`

    err := r.db.GetContext(ctx, &count, query, userID, kind)
    return count, err
}

func (r *postgresRepository) DailyInteractionCounts(ctx context.Context, userID int64, days int) ([]int, error) {
    query := `
        SELECT d.day, COUNT(i.id)
        FROM generate_series(0, $2 - 1) AS d(day)
        LEFT JOIN user_interactions i
            ON i.user_id = $1
            AND i.created_at >= date_trunc('day', NOW()) - (d.day || ' days')::interval
            AND i.created_at < date_trunc('day', NOW()) - (d.day || ' days')::interval + interval '1 day'
        GROUP BY d.day
        ORDER BY d.day
    `

    rows, err := r.db.QueryxContext(ctx, query, userID, days)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    counts := make([]int, 0, days)
    for rows.Next() {
        var day, count int
        if err := rows.Scan(&day, &count); err != nil {
            return nil, err
        }
        counts = append(counts, count)
    }

    return counts, rows.Err()
}

// Profile views

func (r *postgresRepository) CreateProfileView(ctx context.Context, view *ProfileView) error {
    query := `
        INSERT INTO profile_views (
            viewer_id, viewed_user_id, view_duration,
            scrolled_to_bottom, viewed_images_count, clicked_social_links
        ) VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `

    return r.db.QueryRowxContext(
        ctx, query,
        view.ViewerID, view.ViewedUserID, view.ViewDuration,
        view.ScrolledToBottom, view.ViewedImagesCount, view.ClickedSocialLinks,
    ).Scan(&view.ID, &view.CreatedAt)
}

func (r *postgresRepository) EngagedViewTargets(ctx context.Context, viewerID int64, limit int) ([]*UserProfile, error) {
    query := `
        SELECT DISTINCT ON (u.id) ` + prefixedProfileColumns("u") + `
        FROM profile_views v
        JOIN users u ON u.id = v.viewed_user_id
        WHERE v.viewer_id = $1
          AND v.view_duration >= 10
          AND (v.scrolled_to_bottom = TRUE OR v.viewed_images_count >= 3)
        ORDER BY u.id
        LIMIT $2
    `

    var profiles []*UserProfile
    err := r.db.SelectContext(ctx, &profiles, query, viewerID, limit)
    return profiles, err
}

func (r *postgresRepository) CountProfileViews(ctx context.Context, viewerID, viewedUserID int64) (int, error) {
    var count int
    query := `SELECT COUNT(*) FROM profile_views WHERE viewer_id = $1 AND viewed_user_id = $2`

    err := r.db.GetContext(ctx, &count, query, viewerID, viewedUserID)
    return count, err
}

func (r *postgresRepository) HasViewed(ctx context.Context, viewerID, viewedUserID int64) (bool, error) {
    var exists bool
    query := `
        SELECT EXISTS(
            SELECT 1 FROM profile_views
            WHERE viewer_id = $1 AND viewed_user_id = $2
        )
    `

    err := r.db.GetContext(ctx, &exists, query, viewerID, viewedUserID)
    return exists, err
}

func (r *postgresRepository) BestRecentView(ctx context.Context, viewerID, viewedUserID int64, since time.Time) (*ProfileView, error) {
    var view ProfileView
    query := `
        SELECT id, viewer_id, viewed_user_id, view_duration,
               scrolled_to_bottom, viewed_images_count, clicked_social_links, created_at
        FROM profile_views
        WHERE viewer_id = $1 AND viewed_user_id = $2 AND created_at >= $3
        ORDER BY view_duration DESC
        LIMIT 1
    `

    err := r.db.GetContext(ctx, &view, query, viewerID, viewedUserID, since)
    if err == sql.ErrNoRows {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }

    return &view, nil
}

func (r *postgresRepository) CountViewsMade(ctx context.Context, viewerID int64) (int, error) {
    var count int
    query := `SELECT COUNT(*) FROM profile_views WHERE viewer_id = $1`

    err := r.db.GetContext(ctx, &count, query, viewerID)
    return count, err
}

// Maintenance

func (r *postgresRepository) DecayRecommendationBoosts(ctx context.Context, rate float64) (int64, error) {
    query := `
        UPDATE users
        SET recommendation_boost = GREATEST(
            recommendation_boost - (recommendation_boost - 1.0) * $1, 1.0
        )
        WHERE recommendation_boost > 1.0
    `

    result, err := r.db.ExecContext(ctx, query, rate)
    if err != nil {
        return 0, err
    }
    return result.RowsAffected()
}

func (r *postgresRepository) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
    result, err := r.db.ExecContext(
        ctx, `DELETE FROM profile_views WHERE created_at < $1`, cutoff,
    )
    if err != nil {
        return 0, err
    }
    views, _ := result.RowsAffected()

    result, err = r.db.ExecContext(
        ctx, `DELETE FROM user_interactions WHERE created_at < $1`, cutoff,
    )
    if err != nil {
        return views, err
    }
    interactions, _ := result.RowsAffected()

    return views + interactions, nil
}

func prefixedProfileColumns(alias string) string {
    return alias + `.id, ` + alias + `.username, ` + alias + `.first_name, ` + alias + `.gender, ` +
        alias + `.birth_year, ` + alias + `.bio, ` + alias + `.hopes, ` + alias + `.religion, ` +
        alias + `.instagram, ` + alias + `.twitter, ` + alias + `.profile_picture, ` +
        alias + `.image_count, ` + alias + `.interests, ` + alias + `.latitude, ` + alias + `.longitude, ` +
        alias + `.online, ` + alias + `.last_active, ` + alias + `.activity_level, ` +
        alias + `.engagement_score, ` + alias + `.recommendation_boost, ` + alias + `.moment_count, ` +
        alias + `.last_preference_update, ` + alias + `.created_at, ` + alias + `.updated_at`
}
