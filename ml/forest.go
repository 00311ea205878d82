package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ForestConfig controls random forest fitting.
type ForestConfig struct {
	Trees           int
	MaxDepth        int // 0 grows trees until leaves are pure
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64
	Workers         int // 0 uses GOMAXPROCS
}

// DefaultForestConfig mirrors a 100-tree bootstrap ensemble seeded with 1.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            1,
	}
}

// Tree is a binary regression tree stored as parallel node arrays. Node 0 is
// the root. Leaves have Feature -1.
type Tree struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"left"`
	Right     []int     `json:"right"`
	Value     []float64 `json:"value"`
}

// Forest averages the predictions of its trees.
type Forest struct {
	NFeatures int    `json:"n_features"`
	Trees     []Tree `json:"trees"`
}

// FitForest grows cfg.Trees regression trees on bootstrap samples of (X, y).
// Per-tree seeds are drawn before any tree is fitted, so the result does not
// depend on how the work is scheduled.
func FitForest(ctx context.Context, X [][]float64, y []float64, cfg ForestConfig) (*Forest, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("invalid training data: %d rows, %d labels", len(X), len(y))
	}
	nFeatures := len(X[0])
	for i, row := range X {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), nFeatures)
		}
	}
	if cfg.Trees <= 0 {
		return nil, errors.New("forest needs at least one tree")
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	forest := &Forest{NFeatures: nFeatures, Trees: make([]Tree, cfg.Trees)}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range seeds {
		i := i // preserve Go 1.22 per-iteration semantics under go 1.21
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			sample := make([]int, len(X))
			for j := range sample {
				sample[j] = rng.Intn(len(X))
			}
			forest.Trees[i] = growTree(X, y, sample, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return forest, nil
}

// Predict averages the tree outputs for one feature vector.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.NFeatures {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrFeatureMismatch, len(x), f.NFeatures)
	}
	if len(f.Trees) == 0 {
		return 0, errors.New("forest has no trees")
	}
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// Validate checks the node arrays of every tree.
func (f *Forest) Validate() error {
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(f.NFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (t *Tree) predict(x []float64) float64 {
	node := 0
	for t.Feature[node] >= 0 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node]
}

func (t *Tree) validate(nFeatures int) error {
	n := len(t.Feature)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
		return errors.New("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if t.Feature[i] < 0 {
			continue
		}
		if t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d", i, t.Feature[i])
		}
		// Children are appended after their parent, which also rules out cycles.
		if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
			return fmt.Errorf("node %d has invalid children", i)
		}
	}
	return nil
}

type treeBuilder struct {
	X       [][]float64
	y       []float64
	cfg     ForestConfig
	tree    *Tree
	scratch []int
}

func growTree(X [][]float64, y []float64, sample []int, cfg ForestConfig) Tree {
	b := &treeBuilder{
		X:       X,
		y:       y,
		cfg:     cfg,
		tree:    &Tree{},
		scratch: make([]int, len(sample)),
	}
	b.build(sample, 0)
	return *b.tree
}

func (b *treeBuilder) addNode(value float64) int {
	t := b.tree
	t.Feature = append(t.Feature, -1)
	t.Threshold = append(t.Threshold, 0)
	t.Left = append(t.Left, -1)
	t.Right = append(t.Right, -1)
	t.Value = append(t.Value, value)
	return len(t.Feature) - 1
}

func (b *treeBuilder) build(idx []int, depth int) int {
	sum := 0.0
	for _, i := range idx {
		sum += b.y[i]
	}
	node := b.addNode(sum / float64(len(idx)))

	if len(idx) < b.cfg.MinSamplesSplit || (b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) || b.constant(idx) {
		return node
	}
	feature, threshold, ok := b.bestSplit(idx, sum)
	if !ok {
		return node
	}

	// Partition in place: values <= threshold to the front.
	k := 0
	for j := range idx {
		if b.X[idx[j]][feature] <= threshold {
			idx[k], idx[j] = idx[j], idx[k]
			k++
		}
	}

	b.tree.Feature[node] = feature
	b.tree.Threshold[node] = threshold
	left := b.build(idx[:k], depth+1)
	right := b.build(idx[k:], depth+1)
	b.tree.Left[node] = left
	b.tree.Right[node] = right
	return node
}

func (b *treeBuilder) constant(idx []int) bool {
	first := b.y[idx[0]]
	for _, i := range idx[1:] {
		if b.y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit finds the split that maximizes variance reduction, which is the
// same as maximizing sumL²/nL + sumR²/nR.
func (b *treeBuilder) bestSplit(idx []int, total float64) (int, float64, bool) {
	n := len(idx)
	parent := total * total / float64(n)
	bestScore := parent
	bestFeature, bestThreshold := -1, 0.0
	minLeaf := b.cfg.MinSamplesLeaf

	sorted := b.scratch[:n]
	for f := 0; f < len(b.X[idx[0]]); f++ {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			return b.X[sorted[a]][f] < b.X[sorted[c]][f]
		})

		sumLeft := 0.0
		for k := 0; k < n-1; k++ {
			sumLeft += b.y[sorted[k]]
			lo, hi := b.X[sorted[k]][f], b.X[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			nLeft := k + 1
			nRight := n - nLeft
			if nLeft < minLeaf || nRight < minLeaf {
				continue
			}
			sumRight := total - sumLeft
			score := sumLeft*sumLeft/float64(nLeft) + sumRight*sumRight/float64(nRight)
			if score > bestScore+1e-12*math.Max(1, math.Abs(bestScore)) {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
