package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// ForestConfig holds the hyperparameters of the ensemble classifier.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Balanced        bool
	Seed            int64
}

// RandomForest is an ensemble of decision trees fitted on bootstrap samples.
// Trees are built in parallel with per-tree seeds derived from Config.Seed,
// so a given dataset and seed always produce the same forest.
type RandomForest struct {
	Config  ForestConfig
	Classes []int // sorted class labels seen during fit
	Nodes   []*node
}

// FitForest trains a random forest on the feature matrix x and labels y.
func FitForest(x [][]float64, y []int, cfg ForestConfig) (*RandomForest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("forest: need matching non-empty features and labels, got %d/%d", len(x), len(y))
	}
	if cfg.Trees <= 0 {
		return nil, fmt.Errorf("forest: tree count must be positive, got %d", cfg.Trees)
	}

	classes := uniqueClasses(y)
	classIndex := make(map[int]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	labels := make([]int, len(y))
	for i, c := range y {
		labels[i] = classIndex[c]
	}

	weights := sampleWeights(labels, len(classes), cfg.Balanced)

	nFeatures := len(x[0])
	tc := treeConfig{
		maxDepth:        cfg.MaxDepth,
		minSamplesSplit: cfg.MinSamplesSplit,
		minSamplesLeaf:  cfg.MinSamplesLeaf,
		maxFeatures:     maxFeatures(nFeatures),
		nClasses:        len(classes),
		nFeatures:       nFeatures,
	}
	if tc.minSamplesSplit < 2 {
		tc.minSamplesSplit = 2
	}
	if tc.minSamplesLeaf < 1 {
		tc.minSamplesLeaf = 1
	}

	nodes := make([]*node, cfg.Trees)
	var wg sync.WaitGroup
	for t := 0; t < cfg.Trees; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			// Deterministic per-tree stream keeps parallel fitting reproducible.
			rng := rand.New(rand.NewSource(cfg.Seed + int64(t)*7919))
			sample := bootstrapSample(len(x), rng)
			nodes[t] = buildTree(x, labels, weights, sample, tc, rng, 0)
		}(t)
	}
	wg.Wait()

	return &RandomForest{Config: cfg, Classes: classes, Nodes: nodes}, nil
}

// PredictProba returns, for each input row, the class probability
// distribution averaged over all trees. Columns follow f.Classes order.
func (f *RandomForest) PredictProba(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		probs := make([]float64, len(f.Classes))
		for _, root := range f.Nodes {
			dist := root.predict(row)
			for c := range probs {
				probs[c] += dist[c]
			}
		}
		for c := range probs {
			probs[c] /= float64(len(f.Nodes))
		}
		out[i] = probs
	}
	return out
}

// Predict returns the majority-probability class label for each input row.
func (f *RandomForest) Predict(x [][]float64) []int {
	proba := f.PredictProba(x)
	out := make([]int, len(x))
	for i, probs := range proba {
		best := 0
		for c := 1; c < len(probs); c++ {
			if probs[c] > probs[best] {
				best = c
			}
		}
		out[i] = f.Classes[best]
	}
	return out
}

func uniqueClasses(y []int) []int {
	seen := make(map[int]struct{})
	classes := make([]int, 0, 2)
	for _, c := range y {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			classes = append(classes, c)
		}
	}
	sort.Ints(classes)
	return classes
}

// sampleWeights returns per-sample weights. Balanced weighting assigns each
// class weight n/(k*count) so a minority class contributes as much impurity
// mass as the majority class.
func sampleWeights(labels []int, nClasses int, balanced bool) []float64 {
	weights := make([]float64, len(labels))
	if !balanced {
		for i := range weights {
			weights[i] = 1
		}
		return weights
	}

	counts := make([]float64, nClasses)
	for _, c := range labels {
		counts[c]++
	}
	n := float64(len(labels))
	k := float64(nClasses)
	for i, c := range labels {
		weights[i] = n / (k * counts[c])
	}
	return weights
}

func maxFeatures(nFeatures int) int {
	m := int(math.Sqrt(float64(nFeatures)))
	if m < 1 {
		m = 1
	}
	return m
}

func bootstrapSample(n int, rng *rand.Rand) []int {
	sample := make([]int, n)
	for i := range sample {
		sample[i] = rng.Intn(n)
	}
	return sample
}
