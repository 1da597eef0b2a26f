package terrain

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tomius/LoD-sub000/internal/logger"
)

// ErrInvalidDimensions is returned when a heightfield cannot be tiled by base-dimension patches.
var ErrInvalidDimensions = errors.New("invalid heightfield dimensions")

// Options controls tree construction.
type Options struct {
	BaseDimension int       // leaf edge length in samples; power of two >= 4
	ParallelDepth int       // tree levels whose children are aggregated on separate goroutines
	Transform     Transform // heightfield to world mapping
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		BaseDimension: 32,
		ParallelDepth: 2,
		Transform:     DefaultTransform(),
	}
}

// Tree is an immutable CDLOD quadtree. Nodes live in a preorder arena; the root is node 0.
// A built Tree is safe for concurrent readers.
type Tree struct {
	nodes     []Node
	base      int
	depth     int
	width     int
	height    int
	transform Transform
}

// Build constructs the quadtree over the sampler's heightfield.
func Build(sampler HeightSampler, opts Options) (*Tree, error) {
	width, height := sampler.Dimensions()
	if err := validateDimensions(width, height, opts.BaseDimension); err != nil {
		return nil, err
	}

	start := time.Now()
	t := &Tree{
		base:      opts.BaseDimension,
		depth:     treeDepth(width, height, opts.BaseDimension),
		width:     width,
		height:    height,
		transform: opts.Transform,
	}

	rootSize := t.base << uint(t.depth)
	t.build(rootSize/2, rootSize/2, t.depth)
	t.aggregateHeights(sampler, 0, opts.ParallelDepth)

	logger.Info("terrain quadtree built",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("base", t.base),
		zap.Int("depth", t.depth),
		zap.Int("nodes", len(t.nodes)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return t, nil
}

func validateDimensions(width, height, base int) error {
	if base < 4 || base&(base-1) != 0 {
		return fmt.Errorf("%w: base dimension %d is not a power of two >= 4", ErrInvalidDimensions, base)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width%base != 0 || height%base != 0 {
		return fmt.Errorf("%w: %dx%d is not a multiple of %d", ErrInvalidDimensions, width, height, base)
	}
	return nil
}

// treeDepth returns ceil(log2(max(width, height) / base)).
func treeDepth(width, height, base int) int {
	extent := max(width, height)
	depth := 0
	for base<<uint(depth) < extent {
		depth++
	}
	return depth
}

// build appends the node at (x, z) and its subtree, skipping footprints outside the heightfield.
func (t *Tree) build(x, z, level int) NodeID {
	size := t.base << uint(level)
	if x-size/2 >= t.width || z-size/2 >= t.height {
		return NoNode
	}

	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		X:        x,
		Z:        z,
		Size:     size,
		Level:    level,
		Children: [4]NodeID{NoNode, NoNode, NoNode, NoNode},
	})
	if level == 0 {
		return id
	}

	quarter := size / 4
	for _, q := range Quadrants {
		dx, dz := q.direction()
		child := t.build(x+dx*quarter, z+dz*quarter, level-1)
		t.nodes[id].Children[q] = child
	}
	return id
}

// aggregateHeights fills min/max heights bottom-up. Children of nodes within spawnLevels of
// the root are processed concurrently; each goroutine only writes its own subtree.
func (t *Tree) aggregateHeights(sampler HeightSampler, id NodeID, spawnLevels int) {
	n := &t.nodes[id]
	if n.Level == 0 {
		x0, z0 := n.X-n.Size/2, n.Z-n.Size/2
		// A patch has Size+1 vertices per side; the last one is shared with the neighbour.
		w := min(n.Size+1, t.width-x0)
		h := min(n.Size+1, t.height-z0)
		n.MinHeight, n.MaxHeight = sampler.HeightRange(x0, z0, w, h)
		return
	}

	if spawnLevels > 0 {
		var wg sync.WaitGroup
		for _, c := range n.Children {
			if c == NoNode {
				continue
			}
			wg.Add(1)
			go func(c NodeID) {
				defer wg.Done()
				t.aggregateHeights(sampler, c, spawnLevels-1)
			}(c)
		}
		wg.Wait()
	} else {
		for _, c := range n.Children {
			if c != NoNode {
				t.aggregateHeights(sampler, c, 0)
			}
		}
	}

	first := true
	for _, c := range n.Children {
		if c == NoNode {
			continue
		}
		child := &t.nodes[c]
		if first {
			n.MinHeight, n.MaxHeight = child.MinHeight, child.MaxHeight
			first = false
			continue
		}
		n.MinHeight = min(n.MinHeight, child.MinHeight)
		n.MaxHeight = max(n.MaxHeight, child.MaxHeight)
	}
}

// Root returns the root node id.
func (t *Tree) Root() NodeID {
	return 0
}

// Node returns a copy of the node.
func (t *Tree) Node(id NodeID) Node {
	return t.nodes[id]
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Depth returns the level of the root.
func (t *Tree) Depth() int {
	return t.depth
}

// BaseDimension returns the leaf edge length in samples.
func (t *Tree) BaseDimension() int {
	return t.base
}

// Dimensions returns the heightfield size the tree was built over.
func (t *Tree) Dimensions() (width, height int) {
	return t.width, t.height
}

// Transform returns the heightfield to world mapping.
func (t *Tree) Transform() Transform {
	return t.transform
}

// Bounds returns the world-space box of a node.
func (t *Tree) Bounds(id NodeID) AABB {
	return t.transform.Box(&t.nodes[id])
}

// Walk visits nodes in preorder. Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(id NodeID, n Node) bool) {
	if len(t.nodes) > 0 {
		t.walk(0, fn)
	}
}

func (t *Tree) walk(id NodeID, fn func(NodeID, Node) bool) {
	n := t.nodes[id]
	if !fn(id, n) {
		return
	}
	for _, c := range n.Children {
		if c != NoNode {
			t.walk(c, fn)
		}
	}
}
