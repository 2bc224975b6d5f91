package ml

import (
	"math/rand"
	"sort"
)

// node is one decision tree node. Fields are exported for gob encoding; the
// type itself stays internal to the package.
type node struct {
	Left      *node
	Right     *node
	Dist      []float64 // leaf class distribution, indexed like RandomForest.Classes
	Threshold float64
	Feature   int
	Leaf      bool
}

type treeConfig struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
	nClasses        int
	nFeatures       int
}

// buildTree grows a CART-style classification tree on the bootstrap sample
// identified by idx. Sample weights implement balanced class weighting: both
// impurity and leaf distributions are weight-aware, while the minimum-samples
// constraints count raw rows.
func buildTree(x [][]float64, y []int, weights []float64, idx []int, cfg treeConfig, rng *rand.Rand, depth int) *node {
	if depth >= cfg.maxDepth || len(idx) < cfg.minSamplesSplit || isPure(y, idx) {
		return leafNode(y, weights, idx, cfg.nClasses)
	}

	feature, threshold, ok := bestSplit(x, y, weights, idx, cfg, rng)
	if !ok {
		return leafNode(y, weights, idx, cfg.nClasses)
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(x, y, weights, left, cfg, rng, depth+1),
		Right:     buildTree(x, y, weights, right, cfg, rng, depth+1),
	}
}

func leafNode(y []int, weights []float64, idx []int, nClasses int) *node {
	dist := make([]float64, nClasses)
	total := 0.0
	for _, i := range idx {
		dist[y[i]] += weights[i]
		total += weights[i]
	}
	if total > 0 {
		for c := range dist {
			dist[c] /= total
		}
	}
	return &node{Leaf: true, Dist: dist}
}

func isPure(y []int, idx []int) bool {
	if len(idx) == 0 {
		return true
	}
	first := y[idx[0]]
	for _, i := range idx[1:] {
		if y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit searches a random feature subset for the threshold minimizing the
// weighted Gini impurity of the two children.
func bestSplit(x [][]float64, y []int, weights []float64, idx []int, cfg treeConfig, rng *rand.Rand) (int, float64, bool) {
	bestScore := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	found := false

	order := make([]int, len(idx))

	for _, feature := range rng.Perm(cfg.nFeatures)[:cfg.maxFeatures] {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return x[order[a]][feature] < x[order[b]][feature]
		})

		totalDist := make([]float64, cfg.nClasses)
		totalWeight := 0.0
		for _, i := range order {
			totalDist[y[i]] += weights[i]
			totalWeight += weights[i]
		}

		leftDist := make([]float64, cfg.nClasses)
		leftWeight := 0.0

		for pos := 1; pos < len(order); pos++ {
			prev := order[pos-1]
			leftDist[y[prev]] += weights[prev]
			leftWeight += weights[prev]

			if x[order[pos]][feature] == x[prev][feature] {
				continue
			}
			if pos < cfg.minSamplesLeaf || len(order)-pos < cfg.minSamplesLeaf {
				continue
			}

			rightWeight := totalWeight - leftWeight
			score := leftWeight*giniFrom(leftDist, leftWeight) +
				rightWeight*giniRemainder(totalDist, leftDist, rightWeight)

			if !found || score < bestScore {
				found = true
				bestScore = score
				bestFeature = feature
				bestThreshold = (x[prev][feature] + x[order[pos]][feature]) / 2
			}
		}
	}

	return bestFeature, bestThreshold, found
}

func giniFrom(dist []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, w := range dist {
		p := w / total
		g -= p * p
	}
	return g
}

func giniRemainder(totalDist, leftDist []float64, rightWeight float64) float64 {
	if rightWeight == 0 {
		return 0
	}
	g := 1.0
	for c := range totalDist {
		p := (totalDist[c] - leftDist[c]) / rightWeight
		g -= p * p
	}
	return g
}

// predict walks the tree and returns the leaf class distribution.
func (n *node) predict(row []float64) []float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Dist
}
