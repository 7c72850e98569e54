package service

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/Werewolf05/Pulselytics/internal/model"
	"github.com/Werewolf05/Pulselytics/internal/registry"
	"github.com/Werewolf05/Pulselytics/internal/stats"
)

// steadyHistory builds n posts with likes jittered around likesMean and a
// proportional comment and view count, oldest first.
func steadyHistory(n int, likesMean float64, seed int64) []model.PostRecord {
	rng := rand.New(rand.NewSource(seed))
	posts := make([]model.PostRecord, 0, n)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		likes := likesMean + rng.NormFloat64()*likesMean*0.1
		posts = append(posts, model.PostRecord{
			Platform:   model.PlatformInstagram,
			PostURL:    fmt.Sprintf("https://instagram.com/p/%d", i),
			Caption:    fmt.Sprintf("post %d #daily", i),
			UploadDate: start.AddDate(0, 0, i),
			Likes:      likes,
			Comments:   likes * 0.1,
			Views:      likes * 20,
			Followers:  5000,
		})
	}
	return posts
}

func newAnomalyFixture(t *testing.T, minSamples int) *AnomalyService {
	t.Helper()
	reg, err := registry.New(t.TempDir())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return NewAnomalyService(reg, 0.1, 100, minSamples, 42)
}

func TestAnomalyTrain_InsufficientData(t *testing.T) {
	svc := newAnomalyFixture(t, 30)

	report, err := svc.Train("acme", steadyHistory(5, 100, 1))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if report.Status != model.StatusInsufficientData {
		t.Errorf("Status = %s, want insufficient_data", report.Status)
	}
	if report.Reason == "" {
		t.Error("expected a reason for the failed run")
	}
	if _, err := svc.registry.Meta("acme", model.KindDetector); !errors.Is(err, model.ErrModelNotFound) {
		t.Errorf("artifact should not be persisted, got err=%v", err)
	}
}

func TestAnomalyTrain_PersistsArtifact(t *testing.T) {
	svc := newAnomalyFixture(t, 30)

	report, err := svc.Train("acme", steadyHistory(40, 100, 2))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if report.Status != model.StatusSuccess {
		t.Fatalf("Status = %s, want success", report.Status)
	}
	if report.SamplesTrained != 40 || report.Version == "" {
		t.Errorf("report = %+v, want 40 samples and a version", report)
	}

	meta, err := svc.registry.Meta("acme", model.KindDetector)
	if err != nil {
		t.Fatalf("Meta: %v", err)
	}
	if meta.BaselineAvgLikes < 80 || meta.BaselineAvgLikes > 120 {
		t.Errorf("BaselineAvgLikes = %d, want near 100", meta.BaselineAvgLikes)
	}
}

func TestAnomalyDetect_ModelModeFlagsSpike(t *testing.T) {
	svc := newAnomalyFixture(t, 30)

	history := steadyHistory(50, 100, 3)
	if _, err := svc.Train("acme", history); err != nil {
		t.Fatalf("Train: %v", err)
	}

	spike := model.PostRecord{
		Platform: model.PlatformInstagram,
		PostURL:  "https://instagram.com/p/spike",
		Likes:    10000, Comments: 800, Views: 50000, Followers: 5000,
		UploadDate: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	result, err := svc.Detect("acme", append(history, spike))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if result.Mode != model.DetectionModeModel {
		t.Fatalf("Mode = %s, want model", result.Mode)
	}
	if result.Analyzed != 51 {
		t.Errorf("Analyzed = %d, want 51", result.Analyzed)
	}
	found := false
	for _, a := range result.Anomalies {
		if a.PostURL == spike.PostURL {
			found = true
			if a.Category != model.AnomalyViralSpike {
				t.Errorf("spike category = %s, want viral_spike", a.Category)
			}
			if a.Severity != model.SeverityHigh {
				t.Errorf("spike severity = %s, want high", a.Severity)
			}
			if a.Score <= 0 || a.Score > 1 {
				t.Errorf("spike score = %v, want within (0, 1]", a.Score)
			}
		}
	}
	if !found {
		t.Fatal("spike post was not flagged")
	}
}

func TestAnomalyDetect_RuleModeOnThinHistory(t *testing.T) {
	svc := newAnomalyFixture(t, 30)

	history := steadyHistory(20, 100, 4)
	history = append(history, model.PostRecord{
		Platform: model.PlatformInstagram,
		PostURL:  "https://instagram.com/p/viral",
		Likes:    500, Comments: 50, Views: 10000, Followers: 5000,
	})

	result, err := svc.Detect("acme", history)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if result.Mode != model.DetectionModeRule {
		t.Fatalf("Mode = %s, want rule", result.Mode)
	}
	if len(result.Anomalies) != 1 {
		t.Fatalf("flagged %d posts, want exactly the spike", len(result.Anomalies))
	}
	a := result.Anomalies[0]
	if a.PostURL != "https://instagram.com/p/viral" {
		t.Errorf("flagged %s, want the spike post", a.PostURL)
	}
	if a.Category != model.AnomalyViralSpike {
		t.Errorf("category = %s, want viral_spike", a.Category)
	}
	if a.Deviation.LikesPct < 200 {
		t.Errorf("LikesPct = %v, want well above 200", a.Deviation.LikesPct)
	}
}

func TestAnomalyDetect_RuleModeCapsOutput(t *testing.T) {
	svc := newAnomalyFixture(t, 500)

	// 15 huge spikes in a flat 185-post history all clear three sigma,
	// more than the fallback reports.
	var history []model.PostRecord
	for i := 0; i < 185; i++ {
		history = append(history, model.PostRecord{PostURL: fmt.Sprintf("steady-%d", i), Likes: 100, Views: 2000})
	}
	for i := 0; i < 15; i++ {
		history = append(history, model.PostRecord{PostURL: fmt.Sprintf("spike-%d", i), Likes: 10000, Views: 2000})
	}

	result, err := svc.Detect("acme", history)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if result.Mode != model.DetectionModeRule {
		t.Fatalf("Mode = %s, want rule", result.Mode)
	}
	if len(result.Anomalies) != 10 {
		t.Errorf("rule mode returned %d anomalies, want the cap of 10", len(result.Anomalies))
	}
	if result.Skipped != 5 {
		t.Errorf("Skipped = %d, want 5", result.Skipped)
	}
}

func TestAnomalyDetect_InCallFitWithoutArtifact(t *testing.T) {
	svc := newAnomalyFixture(t, 30)

	history := steadyHistory(50, 100, 5)
	result, err := svc.Detect("acme", history)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if result.Mode != model.DetectionModeModel {
		t.Errorf("Mode = %s, want model for a long untrained history", result.Mode)
	}
	// The throwaway fit must not persist anything.
	if _, err := svc.registry.Meta("acme", model.KindDetector); !errors.Is(err, model.ErrModelNotFound) {
		t.Errorf("in-call fit persisted an artifact: err=%v", err)
	}
}

func TestAnomalyDetect_Idempotent(t *testing.T) {
	svc := newAnomalyFixture(t, 30)

	history := steadyHistory(50, 100, 7)
	if _, err := svc.Train("acme", history); err != nil {
		t.Fatalf("Train: %v", err)
	}

	first, err := svc.Detect("acme", history)
	if err != nil {
		t.Fatalf("first Detect: %v", err)
	}
	second, err := svc.Detect("acme", history)
	if err != nil {
		t.Fatalf("second Detect: %v", err)
	}

	if len(first.Anomalies) != len(second.Anomalies) {
		t.Fatalf("runs flagged %d vs %d posts", len(first.Anomalies), len(second.Anomalies))
	}
	for i := range first.Anomalies {
		a, b := first.Anomalies[i], second.Anomalies[i]
		if a.PostURL != b.PostURL || a.Score != b.Score || a.Severity != b.Severity {
			t.Errorf("anomaly %d differs across runs: %+v vs %+v", i, a, b)
		}
	}
}

func TestAnomalyDetect_EmptyHistory(t *testing.T) {
	svc := newAnomalyFixture(t, 30)

	result, err := svc.Detect("acme", nil)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(result.Anomalies) != 0 || result.Analyzed != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
	if result.Mode != model.DetectionModeRule {
		t.Errorf("mode = %s, want %s", result.Mode, model.DetectionModeRule)
	}
}

func TestBuildAnomaly_Categories(t *testing.T) {
	history := steadyHistory(30, 100, 6)

	tests := []struct {
		name string
		post model.PostRecord
		want string
	}{
		{"viral spike", model.PostRecord{Likes: 400, Comments: 10, Views: 2000}, model.AnomalyViralSpike},
		{"low performance", model.PostRecord{Likes: 5, Comments: 1, Views: 2000, Shares: 0}, model.AnomalyLowPerformance},
		{"controversial", model.PostRecord{Likes: 100, Comments: 90, Views: 2000}, model.AnomalyControversial},
	}

	base := stats.ComputeBaseline(history)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := buildAnomaly(&tt.post, base)
			if rec.Category != tt.want {
				t.Errorf("category = %s, want %s", rec.Category, tt.want)
			}
		})
	}
}
