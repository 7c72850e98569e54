package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Ridge is an L2-regularized linear regressor solved in closed form.
// Features are centered during fitting so the intercept is unpenalized.
type Ridge struct {
	Alpha     float64   `json:"alpha"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewRidge returns an unfitted regressor. Non-positive alpha falls back to
// 1.0, which also keeps the normal equations well conditioned when features
// are collinear.
func NewRidge(alpha float64) *Ridge {
	if alpha <= 0 {
		alpha = 1.0
	}
	return &Ridge{Alpha: alpha}
}

// Fit solves (Xc'Xc + alpha*I) w = Xc'y on centered data.
func (r *Ridge) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 || len(x[0]) == 0 {
		return fmt.Errorf("ridge: empty training matrix")
	}
	if len(y) != n {
		return fmt.Errorf("ridge: %d rows but %d targets", n, len(y))
	}
	d := len(x[0])

	xMeans := make([]float64, d)
	for _, row := range x {
		if len(row) != d {
			return fmt.Errorf("ridge: ragged training matrix")
		}
		for j, v := range row {
			xMeans[j] += v
		}
	}
	for j := range xMeans {
		xMeans[j] /= float64(n)
	}
	var yMean float64
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(n)

	xc := mat.NewDense(n, d, nil)
	yc := mat.NewVecDense(n, nil)
	for i, row := range x {
		for j, v := range row {
			xc.Set(i, j, v-xMeans[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	var gram mat.Dense
	gram.Mul(xc.T(), xc)
	for j := 0; j < d; j++ {
		gram.Set(j, j, gram.At(j, j)+r.Alpha)
	}

	var xty mat.VecDense
	xty.MulVec(xc.T(), yc)

	var w mat.VecDense
	if err := w.SolveVec(&gram, &xty); err != nil {
		return fmt.Errorf("ridge: solve: %w", err)
	}

	r.Weights = make([]float64, d)
	r.Intercept = yMean
	for j := 0; j < d; j++ {
		r.Weights[j] = w.AtVec(j)
		r.Intercept -= r.Weights[j] * xMeans[j]
	}
	return nil
}

// Predict evaluates the fitted model on one feature vector.
func (r *Ridge) Predict(row []float64) (float64, error) {
	if len(row) != len(r.Weights) {
		return 0, fmt.Errorf("ridge: row has %d features, fitted on %d", len(row), len(r.Weights))
	}
	out := r.Intercept
	for j, v := range row {
		out += r.Weights[j] * v
	}
	return out, nil
}

// PredictAll evaluates the fitted model on every row.
func (r *Ridge) PredictAll(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		p, err := r.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// RSquared is the coefficient of determination. A constant target yields 0.
func RSquared(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	var mean float64
	for _, v := range yTrue {
		mean += v
	}
	mean /= float64(len(yTrue))

	var ssRes, ssTot float64
	for i := range yTrue {
		dr := yTrue[i] - yPred[i]
		dt := yTrue[i] - mean
		ssRes += dr * dr
		ssTot += dt * dt
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
