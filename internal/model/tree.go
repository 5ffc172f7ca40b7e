package model

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a CART regression tree. Fields are exported so
// fitted trees survive gob serialization.
type treeNode struct {
	Leaf      bool
	Feature   int
	Threshold float64 // x[Feature] <= Threshold goes left
	Value     float64 // leaf prediction (mean of targets)
	N         int
	Left      *treeNode
	Right     *treeNode
}

// regressionTree is the variance-reduction CART learner shared by the forest
// and boosting families. It is not a Regressor itself; the ensembles own the
// hyperparameter surface.
type regressionTree struct {
	MaxDepth       int     // 0 means unlimited
	MinSamplesLeaf int     // minimum rows in each child
	MinGain        float64 // minimal SSE reduction to accept a split
	MaxFeatures    int     // 0 means consider every feature
	Root           *treeNode
}

// fit grows the tree on the rows selected by idx. Split gains are
// accumulated per feature into importances when it is non-nil.
func (t *regressionTree) fit(x [][]float64, y []float64, idx []int, rng *rand.Rand, importances []float64) {
	t.Root = t.grow(x, y, idx, 0, rng, importances)
}

func (t *regressionTree) grow(x [][]float64, y []float64, idx []int, depth int, rng *rand.Rand, importances []float64) *treeNode {
	node := &treeNode{N: len(idx)}

	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	node.Value = sum / float64(len(idx))
	parentSSE := sumSq - sum*sum/float64(len(idx))

	if len(idx) < 2*t.MinSamplesLeaf || parentSSE <= 0 {
		node.Leaf = true
		return node
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		node.Leaf = true
		return node
	}

	p := len(x[0])
	feats := make([]int, p)
	for j := range feats {
		feats[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		rng.Shuffle(p, func(a, b int) { feats[a], feats[b] = feats[b], feats[a] })
		feats = feats[:t.MaxFeatures]
	}

	bestGain := t.MinGain
	bestFeat := -1
	bestThr := 0.0
	bestPos := 0
	sorted := make([]int, len(idx))

	order := make([]int, len(idx))
	for _, f := range feats {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		sumL, sumSqL := 0.0, 0.0
		for s := 1; s < len(order); s++ {
			v := y[order[s-1]]
			sumL += v
			sumSqL += v * v
			if x[order[s]][f] == x[order[s-1]][f] {
				continue
			}
			if s < t.MinSamplesLeaf || len(order)-s < t.MinSamplesLeaf {
				continue
			}
			sumR := sum - sumL
			sumSqR := sumSq - sumSqL
			sseL := sumSqL - sumL*sumL/float64(s)
			sseR := sumSqR - sumR*sumR/float64(len(order)-s)
			gain := parentSSE - sseL - sseR
			if gain > bestGain {
				bestGain = gain
				bestFeat = f
				bestThr = (x[order[s-1]][f] + x[order[s]][f]) / 2
				bestPos = s
				copy(sorted, order)
			}
		}
	}

	if bestFeat < 0 {
		node.Leaf = true
		return node
	}
	if importances != nil {
		importances[bestFeat] += bestGain
	}

	left := append([]int(nil), sorted[:bestPos]...)
	right := append([]int(nil), sorted[bestPos:]...)
	node.Feature = bestFeat
	node.Threshold = bestThr
	node.Left = t.grow(x, y, left, depth+1, rng, importances)
	node.Right = t.grow(x, y, right, depth+1, rng, importances)
	return node
}

func (t *regressionTree) predict(row []float64) float64 {
	node := t.Root
	for !node.Leaf {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}
