package boost

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Node is one tree node. Leaves carry Value, already scaled by the
// learning rate.
type Node struct {
	Leaf        bool
	Feature     int
	Threshold   float64
	Categorical bool
	Left        int
	Right       int
	Value       float64

	bin int // split bin, only meaningful while fitting
}

// Tree is a flat binary tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node
}

// Value walks the tree for one design row.
func (t *Tree) Value(row []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		x := row[n.Feature]
		if n.Categorical {
			if x == n.Threshold {
				i = n.Left
			} else {
				i = n.Right
			}
			continue
		}
		if x <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the longest root-to-leaf path length.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Leaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

func (t *Tree) valueBinned(b *binnedMatrix, row int) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		bin := int(b.bins[n.Feature][row])
		left := bin <= n.bin
		if n.Categorical {
			left = bin == n.bin
		}
		if left {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// binnedMatrix is the column-major binned form of a training matrix.
// Numeric column j has bin i for x when cuts[j][i] is the first cut >= x.
// Categorical bins are category index + 1, so bin 0 holds unknowns.
type binnedMatrix struct {
	bins  [][]uint16
	nBins []int
	cuts  [][]float64
}

func binFeatures(X [][]float64, categorical []bool, maxBins int) *binnedMatrix {
	n, p := len(X), len(categorical)
	m := &binnedMatrix{
		bins:  make([][]uint16, p),
		nBins: make([]int, p),
		cuts:  make([][]float64, p),
	}
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		m.bins[j] = make([]uint16, n)
		if categorical[j] {
			maxBin := 0
			for i := 0; i < n; i++ {
				b := int(X[i][j]) + 1
				if b < 0 || b > math.MaxUint16-1 {
					b = 0
				}
				m.bins[j][i] = uint16(b)
				maxBin = max(maxBin, b)
			}
			m.nBins[j] = maxBin + 1
			continue
		}

		for i := 0; i < n; i++ {
			col[i] = X[i][j]
		}
		cuts := numericCuts(col, maxBins)
		m.cuts[j] = cuts
		m.nBins[j] = len(cuts) + 1
		for i := 0; i < n; i++ {
			m.bins[j][i] = uint16(sort.SearchFloat64s(cuts, X[i][j]))
		}
	}
	return m
}

// numericCuts returns ascending split candidates. Columns with few distinct
// values cut at each value; others cut at empirical quantiles.
func numericCuts(col []float64, maxBins int) []float64 {
	sorted := append([]float64(nil), col...)
	sort.Float64s(sorted)

	uniq := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) <= maxBins {
		return uniq[:len(uniq)-1]
	}

	var cuts []float64
	for k := 1; k < maxBins; k++ {
		q := stat.Quantile(float64(k)/float64(maxBins), stat.Empirical, sorted, nil)
		if len(cuts) == 0 || q > cuts[len(cuts)-1] {
			cuts = append(cuts, q)
		}
	}
	if len(cuts) > 0 && cuts[len(cuts)-1] >= uniq[len(uniq)-1] {
		cuts = cuts[:len(cuts)-1]
	}
	return cuts
}

// grower builds one regression tree on gradient statistics.
type grower struct {
	params      Params
	binned      *binnedMatrix
	categorical []bool
	grad, hess  []float64
	features    []int

	nodes []Node
}

type split struct {
	ok      bool
	feature int
	bin     int
	gain    float64
}

func (g *grower) build(rows []int) Tree {
	g.nodes = nil
	g.grow(rows, 0)
	return Tree{Nodes: g.nodes}
}

func (g *grower) grow(rows []int, depth int) int {
	var sumG, sumH float64
	for _, r := range rows {
		sumG += g.grad[r]
		sumH += g.hess[r]
	}

	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{})

	if depth >= g.params.MaxDepth || len(rows) < 2 {
		g.nodes[idx] = g.leaf(sumG, sumH)
		return idx
	}
	best := g.bestSplit(rows, sumG, sumH)
	if !best.ok {
		g.nodes[idx] = g.leaf(sumG, sumH)
		return idx
	}

	cat := g.categorical[best.feature]
	var left, right []int
	for _, r := range rows {
		bin := int(g.binned.bins[best.feature][r])
		goLeft := bin <= best.bin
		if cat {
			goLeft = bin == best.bin
		}
		if goLeft {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	node := Node{Feature: best.feature, Categorical: cat, bin: best.bin}
	if cat {
		node.Threshold = float64(best.bin - 1)
	} else {
		node.Threshold = g.binned.cuts[best.feature][best.bin]
	}
	g.nodes[idx] = node

	l := g.grow(left, depth+1)
	r := g.grow(right, depth+1)
	g.nodes[idx].Left = l
	g.nodes[idx].Right = r
	return idx
}

func (g *grower) leaf(sumG, sumH float64) Node {
	return Node{Leaf: true, Value: -sumG / (sumH + g.params.Lambda) * g.params.LearningRate}
}

func (g *grower) score(sumG, sumH float64) float64 {
	return sumG * sumG / (sumH + g.params.Lambda)
}

func (g *grower) bestSplit(rows []int, sumG, sumH float64) split {
	var best split
	parent := g.score(sumG, sumH)
	minW := g.params.MinChildWeight

	for _, f := range g.features {
		nb := g.binned.nBins[f]
		if nb < 2 {
			continue
		}
		histG := make([]float64, nb)
		histH := make([]float64, nb)
		bins := g.binned.bins[f]
		for _, r := range rows {
			histG[bins[r]] += g.grad[r]
			histH[bins[r]] += g.hess[r]
		}

		consider := func(bin int, gl, hl float64) {
			gr, hr := sumG-gl, sumH-hl
			if hl < minW || hr < minW || hl <= 0 || hr <= 0 {
				return
			}
			gain := 0.5 * (g.score(gl, hl) + g.score(gr, hr) - parent)
			if gain > 1e-12 && (!best.ok || gain > best.gain) {
				best = split{ok: true, feature: f, bin: bin, gain: gain}
			}
		}

		if g.categorical[f] {
			for b := 1; b < nb; b++ {
				consider(b, histG[b], histH[b])
			}
			continue
		}
		var gl, hl float64
		for b := 0; b < nb-1; b++ {
			gl += histG[b]
			hl += histH[b]
			consider(b, gl, hl)
		}
	}
	return best
}
