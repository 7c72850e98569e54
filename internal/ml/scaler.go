// Package ml holds the in-process learning primitives: feature scaling,
// isolation-forest outlier scoring, and ridge regression. All models are
// plain structs with exported fields so trained state survives a JSON
// round-trip through the artifact registry.
package ml

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers features to zero mean and unit variance, fitted
// column-wise on a training matrix.
type StandardScaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

// Fit learns per-column mean and standard deviation. Zero-variance columns
// keep a divisor of 1 so constant features pass through centered.
func (s *StandardScaler) Fit(x [][]float64) error {
	if len(x) == 0 || len(x[0]) == 0 {
		return fmt.Errorf("scaler: empty training matrix")
	}
	dims := len(x[0])
	s.Means = make([]float64, dims)
	s.Stds = make([]float64, dims)

	col := make([]float64, len(x))
	for j := 0; j < dims; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std <= 0 || std != std {
			std = 1
		}
		s.Means[j] = mean
		s.Stds[j] = std
	}
	return nil
}

// Transform scales a matrix with the fitted parameters, returning new rows.
func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled, err := s.TransformRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

// TransformRow scales a single feature vector.
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if len(row) != len(s.Means) {
		return nil, fmt.Errorf("scaler: row has %d features, fitted on %d", len(row), len(s.Means))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Means[j]) / s.Stds[j]
	}
	return out, nil
}

// FitTransform fits the scaler and scales the training matrix in one call.
func (s *StandardScaler) FitTransform(x [][]float64) ([][]float64, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
