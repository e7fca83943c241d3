package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tanmald/plant-sis/app/models"
	"github.com/tanmald/plant-sis/auth"
)

// setupHandlerTest builds a router with the given routes behind injected
// claims, skipping real token verification.
func setupHandlerTest(t *testing.T, fs *fakeStore, register func(*gin.RouterGroup)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prev := store
	store = fs
	t.Cleanup(func() { store = prev })

	router := gin.New()
	group := router.Group("/", func(c *gin.Context) {
		claims := &auth.Claims{Subject: "user-1", Email: "user@example.test"}
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
	})
	register(group)
	return router
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", Health)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestGetQuotaFreeTier(t *testing.T) {
	fs := newFakeStore()
	fs.profiles["user-1"] = models.UserProfile{ID: "user-1", Tier: models.TierFree, AnalysesUsed: 2}
	router := setupHandlerTest(t, fs, func(g *gin.RouterGroup) {
		g.GET("/api/quota", GetQuota)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/quota", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Tier         models.Tier `json:"tier"`
		AnalysesUsed int         `json:"analysesUsed"`
		MonthlyLimit *int        `json:"monthlyLimit"`
		Remaining    *int        `json:"remaining"`
		ResetDate    string      `json:"resetDate"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Tier != models.TierFree || body.AnalysesUsed != 2 {
		t.Errorf("tier=%q used=%d", body.Tier, body.AnalysesUsed)
	}
	if body.MonthlyLimit == nil || *body.MonthlyLimit != FreeMonthlyLimit {
		t.Errorf("monthlyLimit = %v", body.MonthlyLimit)
	}
	if body.Remaining == nil || *body.Remaining != 1 {
		t.Errorf("remaining = %v", body.Remaining)
	}
	reset, err := time.Parse(time.RFC3339, body.ResetDate)
	if err != nil {
		t.Fatalf("resetDate %q not RFC3339: %v", body.ResetDate, err)
	}
	if !reset.Equal(nextQuotaReset(time.Now())) {
		t.Errorf("resetDate = %v", reset)
	}
}

func TestGetQuotaProTierUnlimited(t *testing.T) {
	fs := newFakeStore()
	fs.profiles["user-1"] = models.UserProfile{ID: "user-1", Tier: models.TierPro, AnalysesUsed: 42}
	router := setupHandlerTest(t, fs, func(g *gin.RouterGroup) {
		g.GET("/api/quota", GetQuota)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/quota", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["monthlyLimit"] != nil {
		t.Errorf("monthlyLimit = %v, want null for pro", body["monthlyLimit"])
	}
	if body["remaining"] != nil {
		t.Errorf("remaining = %v, want null for pro", body["remaining"])
	}
}

func TestGetQuotaCreatesMissingProfile(t *testing.T) {
	fs := newFakeStore()
	router := setupHandlerTest(t, fs, func(g *gin.RouterGroup) {
		g.GET("/api/quota", GetQuota)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/quota", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	profile, ok := fs.profiles["user-1"]
	if !ok {
		t.Fatal("expected profile to be created")
	}
	if profile.Email != "user@example.test" {
		t.Errorf("profile email = %q", profile.Email)
	}
}

func TestGetPlantAnalyses(t *testing.T) {
	fs := newFakeStore()
	for i := 0; i < 8; i++ {
		fs.analyses = append(fs.analyses, models.AnalysisRecord{PlantID: "plant-1", UserID: "user-1"})
	}
	router := setupHandlerTest(t, fs, func(g *gin.RouterGroup) {
		g.GET("/api/plants/:plantid/analyses", GetPlantAnalyses)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/plants/plant-1/analyses", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Count    int                     `json:"count"`
		Analyses []models.AnalysisRecord `json:"analyses"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Count != 5 {
		t.Fatalf("count = %d, want default limit 5", body.Count)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/plants/plant-1/analyses?limit=2", nil))
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}

	// Out-of-range limits fall back to the default.
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/plants/plant-1/analyses?limit=900", nil))
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Count != 5 {
		t.Fatalf("count = %d, want 5 for out-of-range limit", body.Count)
	}
}

func TestGetCheckInDue(t *testing.T) {
	fs := newFakeStore()
	router := setupHandlerTest(t, fs, func(g *gin.RouterGroup) {
		g.GET("/api/plants/:plantid/checkin/due", GetCheckInDue)
	})

	check := func(t *testing.T, wantDue bool) {
		t.Helper()
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/plants/plant-1/checkin/due", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		var body struct {
			Due bool `json:"due"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.Due != wantDue {
			t.Fatalf("due = %v, want %v", body.Due, wantDue)
		}
	}

	// No schedule yet.
	check(t, false)

	// Past next date: due.
	fs.schedules["plant-1"] = models.CheckInSchedule{
		PlantID:         "plant-1",
		NextCheckInDate: time.Now().Add(-time.Hour),
	}
	check(t, true)

	// Future next date: not due.
	fs.schedules["plant-1"] = models.CheckInSchedule{
		PlantID:         "plant-1",
		NextCheckInDate: time.Now().Add(48 * time.Hour),
	}
	check(t, false)

	// Due but snoozed.
	snoozed := time.Now().Add(24 * time.Hour)
	fs.schedules["plant-1"] = models.CheckInSchedule{
		PlantID:         "plant-1",
		NextCheckInDate: time.Now().Add(-time.Hour),
		SnoozedUntil:    &snoozed,
	}
	check(t, false)
}

func TestSnoozeCheckIn(t *testing.T) {
	fs := newFakeStore()
	fs.schedules["plant-1"] = models.CheckInSchedule{
		PlantID:         "plant-1",
		NextCheckInDate: time.Now(),
	}
	router := setupHandlerTest(t, fs, func(g *gin.RouterGroup) {
		g.POST("/api/plants/:plantid/checkin/snooze", SnoozeCheckIn)
	})

	// Default snooze of 3 days with no body.
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/plants/plant-1/checkin/snooze", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	sched := fs.schedules["plant-1"]
	if sched.SnoozedUntil == nil {
		t.Fatal("expected snoozed_until to be set")
	}
	want := time.Now().AddDate(0, 0, 3)
	if diff := sched.SnoozedUntil.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("snoozed until %v, want near %v", sched.SnoozedUntil, want)
	}

	// Explicit days in the body.
	resp = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/plants/plant-1/checkin/snooze", bytes.NewReader([]byte(`{"days": 10}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	sched = fs.schedules["plant-1"]
	want = time.Now().AddDate(0, 0, 10)
	if diff := sched.SnoozedUntil.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("snoozed until %v, want near %v", sched.SnoozedUntil, want)
	}

	// Unknown plant.
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/plants/plant-2/checkin/snooze", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestParsePositiveInt(t *testing.T) {
	if v, err := parsePositiveInt("12"); err != nil || v != 12 {
		t.Fatalf("got %d, %v", v, err)
	}
	if _, err := parsePositiveInt("abc"); err == nil {
		t.Fatal("expected error for non-numeric input")
	}
}
