package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tanmald/plant-sis/app/config"
	"github.com/tanmald/plant-sis/app/models"

	"github.com/lib/pq"
)

var db *sql.DB

// store is the persistence seam for the analysis pipeline. Production wires
// a pgStore over the shared *sql.DB; tests swap in fakes.
var store analysisStore = &pgStore{}

// analysisStore covers every row-store operation the pipeline and its
// supporting endpoints perform.
type analysisStore interface {
	GetUserProfile(ctx context.Context, userID string) (models.UserProfile, error)
	EnsureUserProfile(ctx context.Context, userID, email, name string) error
	IncrementAnalysesUsed(ctx context.Context, userID string) error
	InsertAnalysis(ctx context.Context, rec models.AnalysisRecord) (string, error)
	ListPlantAnalyses(ctx context.Context, plantID string, limit int) ([]models.AnalysisRecord, error)
	UpsertCheckInSchedule(ctx context.Context, sched models.CheckInSchedule) error
	GetCheckInSchedule(ctx context.Context, plantID string) (models.CheckInSchedule, error)
	SnoozeCheckIn(ctx context.Context, plantID string, until time.Time) error
	InsertNotification(ctx context.Context, n models.Notification) error
	GetStripeCustomerID(ctx context.Context, userID string) (string, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	SetTier(ctx context.Context, userID string, tier models.Tier) error
	SetTierByStripeCustomer(ctx context.Context, customerID string, tier models.Tier) error
}

// MustInitDB initializes the global db and panics/logs fatally on error.
func MustInitDB() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s",
		cfg.DB.Username,
		cfg.DB.Password,
		cfg.DB.URL,
		cfg.DB.Port,
	)

	d, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("sql.Open: %v", err)
	}

	if err := d.Ping(); err != nil {
		log.Fatalf("db.Ping: %v", err)
	}

	log.Println("Connected to Postgres")
	db = d
}

// pgStore implements analysisStore over the package-level Postgres handle.
// Every method tolerates a nil db so tests can run without a backing DB.
type pgStore struct{}

// GetUserProfile loads the quota-owning profile row, lazily zeroing the
// monthly counter when the stored usage period predates the current month.
func (s *pgStore) GetUserProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	if db == nil {
		return models.UserProfile{ID: userID, Tier: models.TierFree}, nil
	}

	var (
		profile models.UserProfile
		email   sql.NullString
		name    sql.NullString
	)
	err := db.QueryRowContext(ctx, `
		SELECT email, display_name, subscription_tier, ai_analyses_used_this_month, usage_period_start
		FROM user_profiles
		WHERE id = $1;
	`, userID).Scan(&email, &name, &profile.Tier, &profile.AnalysesUsed, &profile.UsagePeriodStart)
	if err != nil {
		return models.UserProfile{}, err
	}
	profile.ID = userID
	profile.Email = email.String
	profile.DisplayName = name.String

	currentMonthStart := monthStartUTC(time.Now())
	if profile.UsagePeriodStart.Before(currentMonthStart) {
		profile.AnalysesUsed = 0
		profile.UsagePeriodStart = currentMonthStart
		_, err = db.ExecContext(ctx, `
			UPDATE user_profiles
			SET ai_analyses_used_this_month = 0, usage_period_start = $1
			WHERE id = $2;
		`, currentMonthStart, userID)
		if err != nil {
			return models.UserProfile{}, err
		}
	}

	return profile, nil
}

// EnsureUserProfile creates a free-tier profile row if none exists.
func (s *pgStore) EnsureUserProfile(ctx context.Context, userID, email, name string) error {
	if db == nil || userID == "" {
		return nil
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_profiles (id, email, display_name, subscription_tier, ai_analyses_used_this_month, usage_period_start, last_login)
		VALUES ($1, $2, $3, $4, 0, $5, now())
		ON CONFLICT (id) DO UPDATE SET last_login = now();
	`, userID, nullIfEmpty(email), nullIfEmpty(name), models.TierFree, monthStartUTC(time.Now()))
	return err
}

// IncrementAnalysesUsed bumps the monthly counter by one. It is a plain
// UPDATE with no read-back, so two in-flight analyses that both passed the
// gate both land their increments.
func (s *pgStore) IncrementAnalysesUsed(ctx context.Context, userID string) error {
	if db == nil {
		return nil
	}
	_, err := db.ExecContext(ctx, `
		UPDATE user_profiles
		SET ai_analyses_used_this_month = ai_analyses_used_this_month + 1
		WHERE id = $1;
	`, userID)
	return err
}

// InsertAnalysis appends one history row and returns its generated id.
func (s *pgStore) InsertAnalysis(ctx context.Context, rec models.AnalysisRecord) (string, error) {
	if db == nil {
		return "", nil
	}
	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO ai_plant_analyses (
			plant_id, user_id, analysis_type,
			identified_species, confidence_score, health_status,
			insights, recommendations, risk_flags,
			ai_model_used, tokens_used, processing_time_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id;
	`,
		nullIfEmpty(rec.PlantID),
		rec.UserID,
		rec.AnalysisType,
		nullIfEmpty(rec.Result.Species),
		rec.Result.Confidence,
		rec.Result.HealthStatus,
		pq.Array(rec.Result.Insights),
		pq.Array(rec.Result.Recommendations),
		pq.Array(rec.Result.RiskFlags),
		rec.AIModelUsed,
		rec.TokensUsed,
		rec.ProcessingTimeMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListPlantAnalyses returns the newest analyses for a plant.
func (s *pgStore) ListPlantAnalyses(ctx context.Context, plantID string, limit int) ([]models.AnalysisRecord, error) {
	if db == nil {
		return []models.AnalysisRecord{}, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, analysis_type,
		       identified_species, confidence_score, health_status,
		       insights, recommendations, risk_flags,
		       ai_model_used, tokens_used, processing_time_ms, created_at
		FROM ai_plant_analyses
		WHERE plant_id = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`, plantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AnalysisRecord
	for rows.Next() {
		var (
			rec        models.AnalysisRecord
			species    sql.NullString
			confidence sql.NullFloat64
		)
		rec.PlantID = plantID
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.AnalysisType,
			&species,
			&confidence,
			&rec.Result.HealthStatus,
			pq.Array(&rec.Result.Insights),
			pq.Array(&rec.Result.Recommendations),
			pq.Array(&rec.Result.RiskFlags),
			&rec.AIModelUsed,
			&rec.TokensUsed,
			&rec.ProcessingTimeMs,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Result.Species = species.String
		if confidence.Valid {
			c := confidence.Float64
			rec.Result.Confidence = &c
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertCheckInSchedule replaces the plant's single schedule row. The latest
// analysis wins; prior schedules are overwritten, not versioned.
func (s *pgStore) UpsertCheckInSchedule(ctx context.Context, sched models.CheckInSchedule) error {
	if db == nil {
		return nil
	}
	factors, err := json.Marshal(sched.Factors)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO check_in_schedules (plant_id, next_check_in_date, check_in_frequency_days, last_calculated_at, calculation_factors)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (plant_id) DO UPDATE SET
			next_check_in_date = EXCLUDED.next_check_in_date,
			check_in_frequency_days = EXCLUDED.check_in_frequency_days,
			last_calculated_at = EXCLUDED.last_calculated_at,
			calculation_factors = EXCLUDED.calculation_factors;
	`, sched.PlantID, sched.NextCheckInDate, sched.FrequencyDays, sched.LastCalculatedAt, factors)
	return err
}

func (s *pgStore) GetCheckInSchedule(ctx context.Context, plantID string) (models.CheckInSchedule, error) {
	if db == nil {
		return models.CheckInSchedule{}, sql.ErrNoRows
	}
	var (
		sched   models.CheckInSchedule
		snoozed sql.NullTime
	)
	sched.PlantID = plantID
	err := db.QueryRowContext(ctx, `
		SELECT next_check_in_date, check_in_frequency_days, last_calculated_at, snoozed_until
		FROM check_in_schedules
		WHERE plant_id = $1;
	`, plantID).Scan(&sched.NextCheckInDate, &sched.FrequencyDays, &sched.LastCalculatedAt, &snoozed)
	if err != nil {
		return models.CheckInSchedule{}, err
	}
	if snoozed.Valid {
		sched.SnoozedUntil = &snoozed.Time
	}
	return sched, nil
}

func (s *pgStore) SnoozeCheckIn(ctx context.Context, plantID string, until time.Time) error {
	if db == nil {
		return nil
	}
	res, err := db.ExecContext(ctx, `
		UPDATE check_in_schedules
		SET snoozed_until = $1
		WHERE plant_id = $2;
	`, until, plantID)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// InsertNotification appends one alert row. Alerts have their own lifecycle;
// the pipeline only ever creates them.
func (s *pgStore) InsertNotification(ctx context.Context, n models.Notification) error {
	if db == nil {
		return nil
	}
	trigger, err := json.Marshal(n.TriggerReason)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, plant_id, notification_type, title, body, trigger_reason)
		VALUES ($1, $2, $3, $4, $5, $6);
	`, n.UserID, nullIfEmpty(n.PlantID), n.Type, n.Title, n.Body, trigger)
	return err
}

func (s *pgStore) GetStripeCustomerID(ctx context.Context, userID string) (string, error) {
	if db == nil {
		return "", errors.New("db not initialized")
	}
	var customerID sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT stripe_customer_id
		FROM user_profiles
		WHERE id = $1;
	`, userID).Scan(&customerID)
	if err != nil {
		return "", err
	}
	return customerID.String, nil
}

func (s *pgStore) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	if db == nil {
		return errors.New("db not initialized")
	}
	_, err := db.ExecContext(ctx, `
		UPDATE user_profiles
		SET stripe_customer_id = $1
		WHERE id = $2;
	`, customerID, userID)
	return err
}

func (s *pgStore) SetTier(ctx context.Context, userID string, tier models.Tier) error {
	if db == nil {
		return errors.New("db not initialized")
	}
	_, err := db.ExecContext(ctx, `
		UPDATE user_profiles
		SET subscription_tier = $1
		WHERE id = $2;
	`, tier, userID)
	return err
}

func (s *pgStore) SetTierByStripeCustomer(ctx context.Context, customerID string, tier models.Tier) error {
	if db == nil {
		return errors.New("db not initialized")
	}
	if customerID == "" {
		return errors.New("missing stripe customer id")
	}
	_, err := db.ExecContext(ctx, `
		UPDATE user_profiles
		SET subscription_tier = $1
		WHERE stripe_customer_id = $2;
	`, tier, customerID)
	return err
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
