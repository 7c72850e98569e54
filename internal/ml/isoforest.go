package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const (
	defaultTrees      = 100
	defaultSampleSize = 256
)

// IsolationForest isolates outliers by random recursive partitioning.
// Points that isolate in few splits score close to 1; inliers score
// close to 0. Trees are stored as flat node arrays so a fitted forest
// serializes to JSON without custom marshaling.
type IsolationForest struct {
	Trees      []isoTree `json:"trees"`
	SampleSize int       `json:"sampleSize"`
	NumTrees   int       `json:"numTrees"`

	rng *rand.Rand
}

type isoTree struct {
	Nodes []isoNode `json:"nodes"`
}

// isoNode is one split or leaf. Left/Right index into the tree's node
// slice; -1 marks a leaf, where Size is the subsample count that reached it.
type isoNode struct {
	Feature int     `json:"feature"`
	Split   float64 `json:"split"`
	Left    int     `json:"left"`
	Right   int     `json:"right"`
	Size    int     `json:"size"`
}

// NewIsolationForest builds an unfitted forest. Non-positive arguments fall
// back to the standard 100 trees and 256-point subsamples.
func NewIsolationForest(numTrees, sampleSize int, seed int64) *IsolationForest {
	if numTrees <= 0 {
		numTrees = defaultTrees
	}
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	return &IsolationForest{
		NumTrees:   numTrees,
		SampleSize: sampleSize,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Fit grows the ensemble on the training matrix. Each tree sees a random
// subsample and splits on random features at random cut points until points
// isolate or the height limit is reached.
func (f *IsolationForest) Fit(x [][]float64) error {
	if len(x) == 0 || len(x[0]) == 0 {
		return fmt.Errorf("isoforest: empty training matrix")
	}
	if f.rng == nil {
		f.rng = rand.New(rand.NewSource(0))
	}

	sample := f.SampleSize
	if sample > len(x) {
		sample = len(x)
	}
	heightLimit := int(math.Ceil(math.Log2(float64(sample)))) + 1

	f.Trees = make([]isoTree, f.NumTrees)
	for t := range f.Trees {
		idx := f.rng.Perm(len(x))[:sample]
		sub := make([][]float64, sample)
		for i, j := range idx {
			sub[i] = x[j]
		}
		f.Trees[t] = growTree(sub, heightLimit, f.rng)
	}
	return nil
}

// Score returns the anomaly score for one point in [0, 1].
func (f *IsolationForest) Score(row []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var total float64
	for i := range f.Trees {
		total += f.Trees[i].pathLength(row)
	}
	avg := total / float64(len(f.Trees))
	return math.Pow(2, -avg/avgPathLength(f.SampleSize))
}

// Scores scores every row of a matrix.
func (f *IsolationForest) Scores(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = f.Score(row)
	}
	return out
}

func growTree(x [][]float64, heightLimit int, rng *rand.Rand) isoTree {
	t := isoTree{}
	t.grow(x, 0, heightLimit, rng)
	return t
}

// grow appends the subtree for x and returns its root index.
func (t *isoTree) grow(x [][]float64, depth, heightLimit int, rng *rand.Rand) int {
	if len(x) <= 1 || depth >= heightLimit {
		t.Nodes = append(t.Nodes, isoNode{Left: -1, Right: -1, Size: len(x)})
		return len(t.Nodes) - 1
	}

	feature, split, ok := pickSplit(x, rng)
	if !ok {
		// All remaining points identical: nothing left to isolate.
		t.Nodes = append(t.Nodes, isoNode{Left: -1, Right: -1, Size: len(x)})
		return len(t.Nodes) - 1
	}

	var left, right [][]float64
	for _, row := range x {
		if row[feature] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	self := len(t.Nodes)
	t.Nodes = append(t.Nodes, isoNode{Feature: feature, Split: split})
	t.Nodes[self].Left = t.grow(left, depth+1, heightLimit, rng)
	t.Nodes[self].Right = t.grow(right, depth+1, heightLimit, rng)
	return self
}

// pickSplit chooses a random feature with spread and a uniform cut point
// strictly inside its range. Returns ok=false when every feature is constant.
func pickSplit(x [][]float64, rng *rand.Rand) (int, float64, bool) {
	dims := len(x[0])
	for _, feature := range rng.Perm(dims) {
		lo, hi := x[0][feature], x[0][feature]
		for _, row := range x[1:] {
			if row[feature] < lo {
				lo = row[feature]
			}
			if row[feature] > hi {
				hi = row[feature]
			}
		}
		if hi > lo {
			return feature, lo + rng.Float64()*(hi-lo), true
		}
	}
	return 0, 0, false
}

func (t *isoTree) pathLength(row []float64) float64 {
	depth := 0.0
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return depth + avgPathLength(n.Size)
		}
		depth++
		if n.Feature < len(row) && row[n.Feature] < n.Split {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// avgPathLength is the expected unsuccessful-search path length in a binary
// search tree of n points, the normalization constant c(n).
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	h := math.Log(float64(n-1)) + 0.5772156649
	return 2*h - 2*float64(n-1)/float64(n)
}

// ScoreThreshold returns the score cutoff that labels the given fraction of
// training points anomalous. Scores at or above the cutoff are anomalies.
func ScoreThreshold(trainScores []float64, contamination float64) float64 {
	if len(trainScores) == 0 {
		return 1
	}
	if contamination <= 0 {
		return math.Inf(1)
	}
	if contamination >= 1 {
		return 0
	}
	sorted := make([]float64, len(trainScores))
	copy(sorted, trainScores)
	sort.Float64s(sorted)

	rank := int(math.Ceil(float64(len(sorted)) * (1 - contamination)))
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}
