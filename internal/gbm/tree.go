// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package gbm

// minSplitGain is the smallest structure-score improvement that justifies a split.
const minSplitGain = 1e-9

// Node is a tree node. Leaves have Feature < 0 and carry Value, which
// already includes the learning rate.
type Node struct {
	Feature   int
	Threshold float64
	Left      int32
	Right     int32
	Value     float64
}

// Tree is a regression tree stored as a flat node slice rooted at index 0.
type Tree struct {
	Nodes []Node
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = int(n.Left)
		} else {
			i = int(n.Right)
		}
	}
}

// treeBuilder grows one tree at a time over pre-binned features.
// The histogram buffers are reused across nodes and trees.
type treeBuilder struct {
	binned [][]uint16
	cuts   [][]float64
	params Params

	histSum []float64
	histCnt []int

	grad  []float64
	nodes []Node
}

func newTreeBuilder(b *binner, binned [][]uint16, p Params) *treeBuilder {
	size := b.maxBins()
	return &treeBuilder{
		binned:  binned,
		cuts:    b.cuts,
		params:  p,
		histSum: make([]float64, size),
		histCnt: make([]int, size),
	}
}

// build fits a tree to the residuals grad over rows.
func (b *treeBuilder) build(rows []int, grad []float64) Tree {
	b.grad = grad
	b.nodes = make([]Node, 0, 1<<uint(min(b.params.MaxDepth+1, 10)))
	b.grow(rows, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(rows []int, depth int) int32 {
	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Feature: -1})

	var sum float64
	for _, r := range rows {
		sum += b.grad[r]
	}
	n := len(rows)
	leaf := b.params.LearningRate * sum / (float64(n) + b.params.Lambda)

	if depth >= b.params.MaxDepth || n < 2*b.params.MinSamplesLeaf {
		b.nodes[idx].Value = leaf
		return idx
	}

	feat, bin, ok := b.bestSplit(rows, sum)
	if !ok {
		b.nodes[idx].Value = leaf
		return idx
	}

	col := b.binned[feat]
	left := make([]int, 0, n)
	right := make([]int, 0, n)
	for _, r := range rows {
		if int(col[r]) <= bin {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = Node{
		Feature:   feat,
		Threshold: b.cuts[feat][bin],
		Left:      l,
		Right:     r,
	}
	return idx
}

// bestSplit scans every feature histogram for the split with the highest
// gain. Ties keep the earliest feature and the lowest bin.
func (b *treeBuilder) bestSplit(rows []int, sum float64) (feature, bin int, ok bool) {
	n := len(rows)
	lambda := b.params.Lambda
	minLeaf := b.params.MinSamplesLeaf
	parent := sum * sum / (float64(n) + lambda)

	best := minSplitGain
	feature, bin = -1, -1

	for f, cuts := range b.cuts {
		k := len(cuts)
		if k == 0 {
			continue
		}
		hs := b.histSum[:k+1]
		hc := b.histCnt[:k+1]
		for i := range hs {
			hs[i] = 0
			hc[i] = 0
		}

		col := b.binned[f]
		for _, r := range rows {
			bi := col[r]
			hs[bi] += b.grad[r]
			hc[bi]++
		}

		var gl float64
		nl := 0
		for bi := 0; bi < k; bi++ {
			gl += hs[bi]
			nl += hc[bi]
			if hc[bi] == 0 || nl < minLeaf {
				continue
			}
			nr := n - nl
			if nr < minLeaf {
				break
			}
			gr := sum - gl
			gain := gl*gl/(float64(nl)+lambda) + gr*gr/(float64(nr)+lambda) - parent
			if gain > best {
				best = gain
				feature, bin = f, bi
			}
		}
	}
	return feature, bin, feature >= 0
}
