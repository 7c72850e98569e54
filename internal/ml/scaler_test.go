package ml

import (
	"encoding/json"
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestScaler_FitTransform(t *testing.T) {
	x := [][]float64{
		{1, 100},
		{2, 200},
		{3, 300},
	}
	var s StandardScaler
	scaled, err := s.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	for j := 0; j < 2; j++ {
		var sum float64
		for i := range scaled {
			sum += scaled[i][j]
		}
		if !almostEqual(sum/3, 0, 1e-9) {
			t.Errorf("column %d mean = %v, want 0", j, sum/3)
		}
	}
	// Middle row sits exactly on the mean.
	if !almostEqual(scaled[1][0], 0, 1e-9) || !almostEqual(scaled[1][1], 0, 1e-9) {
		t.Errorf("center row = %v, want zeros", scaled[1])
	}
}

func TestScaler_ConstantColumn(t *testing.T) {
	x := [][]float64{
		{5, 1},
		{5, 2},
		{5, 3},
	}
	var s StandardScaler
	scaled, err := s.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	for i := range scaled {
		if scaled[i][0] != 0 {
			t.Errorf("row %d constant column = %v, want 0", i, scaled[i][0])
		}
		if math.IsNaN(scaled[i][1]) {
			t.Errorf("row %d produced NaN", i)
		}
	}
}

func TestScaler_DimensionMismatch(t *testing.T) {
	var s StandardScaler
	if err := s.Fit([][]float64{{1, 2}, {3, 4}}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := s.TransformRow([]float64{1, 2, 3}); err == nil {
		t.Error("expected error for mismatched row width")
	}
}

func TestScaler_EmptyMatrix(t *testing.T) {
	var s StandardScaler
	if err := s.Fit(nil); err == nil {
		t.Error("expected error for empty matrix")
	}
}

func TestScaler_JSONRoundTrip(t *testing.T) {
	var s StandardScaler
	if err := s.Fit([][]float64{{1, 10}, {3, 30}}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	raw, err := json.Marshal(&s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var restored StandardScaler
	if err := json.Unmarshal(raw, &restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	row := []float64{2, 20}
	want, err := s.TransformRow(row)
	if err != nil {
		t.Fatalf("TransformRow: %v", err)
	}
	got, err := restored.TransformRow(row)
	if err != nil {
		t.Fatalf("restored TransformRow: %v", err)
	}
	for j := range want {
		if !almostEqual(got[j], want[j], 1e-12) {
			t.Errorf("column %d: restored %v != original %v", j, got[j], want[j])
		}
	}
}
