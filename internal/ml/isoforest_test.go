package ml

import (
	"encoding/json"
	"math/rand"
	"testing"
)

// clusterWithOutlier builds a tight 2-D cluster around (10, 10) and appends
// one point far outside it.
func clusterWithOutlier(n int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, 0, n+1)
	for i := 0; i < n; i++ {
		x = append(x, []float64{10 + rng.NormFloat64(), 10 + rng.NormFloat64()})
	}
	x = append(x, []float64{200, 200})
	return x
}

func TestIsolationForest_OutlierScoresHighest(t *testing.T) {
	x := clusterWithOutlier(100, 1)
	f := NewIsolationForest(100, 64, 42)
	if err := f.Fit(x); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	scores := f.Scores(x)
	outlier := len(x) - 1
	for i := 0; i < outlier; i++ {
		if scores[i] >= scores[outlier] {
			t.Fatalf("inlier %d scored %v >= outlier score %v", i, scores[i], scores[outlier])
		}
	}
	if scores[outlier] < 0.6 {
		t.Errorf("outlier score = %v, want well above 0.5", scores[outlier])
	}
}

func TestIsolationForest_ScoreRange(t *testing.T) {
	x := clusterWithOutlier(50, 2)
	f := NewIsolationForest(50, 32, 7)
	if err := f.Fit(x); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for i, s := range f.Scores(x) {
		if s < 0 || s > 1 {
			t.Errorf("score[%d] = %v, want within [0, 1]", i, s)
		}
	}
}

func TestIsolationForest_Deterministic(t *testing.T) {
	x := clusterWithOutlier(60, 3)

	a := NewIsolationForest(40, 32, 99)
	b := NewIsolationForest(40, 32, 99)
	if err := a.Fit(x); err != nil {
		t.Fatalf("Fit a: %v", err)
	}
	if err := b.Fit(x); err != nil {
		t.Fatalf("Fit b: %v", err)
	}

	sa, sb := a.Scores(x), b.Scores(x)
	for i := range sa {
		if sa[i] != sb[i] {
			t.Fatalf("score[%d] differs across identical seeds: %v vs %v", i, sa[i], sb[i])
		}
	}
}

func TestIsolationForest_ConstantData(t *testing.T) {
	x := make([][]float64, 20)
	for i := range x {
		x[i] = []float64{5, 5, 5}
	}
	f := NewIsolationForest(20, 16, 1)
	if err := f.Fit(x); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	scores := f.Scores(x)
	for i := 1; i < len(scores); i++ {
		if scores[i] != scores[0] {
			t.Errorf("identical points scored differently: %v vs %v", scores[i], scores[0])
		}
	}
}

func TestIsolationForest_EmptyInput(t *testing.T) {
	f := NewIsolationForest(10, 8, 1)
	if err := f.Fit(nil); err == nil {
		t.Error("expected error for empty matrix")
	}
}

func TestIsolationForest_JSONRoundTrip(t *testing.T) {
	x := clusterWithOutlier(40, 4)
	f := NewIsolationForest(30, 32, 5)
	if err := f.Fit(x); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var restored IsolationForest
	if err := json.Unmarshal(raw, &restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want, got := f.Scores(x), restored.Scores(x)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("score[%d] changed after round-trip: %v vs %v", i, got[i], want[i])
		}
	}
}

func TestScoreThreshold(t *testing.T) {
	scores := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

	thr := ScoreThreshold(scores, 0.1)
	flagged := 0
	for _, s := range scores {
		if s >= thr {
			flagged++
		}
	}
	if flagged != 1 {
		t.Errorf("contamination 0.1 flagged %d of 10, want 1", flagged)
	}

	if thr := ScoreThreshold(nil, 0.1); thr != 1 {
		t.Errorf("empty scores threshold = %v, want 1", thr)
	}
}
