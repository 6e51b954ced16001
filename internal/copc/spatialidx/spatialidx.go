// Package spatialidx wraps rtreego to answer bounding-box queries over
// already-resolved COPC hierarchy nodes, the same way pkg/s57's
// spatialIndex wraps it for ENC feature bounds.
package spatialidx

import "github.com/dhconnelly/rtreego"

// epsilon is the minimum edge length given to a degenerate (single
// point, e.g. a depth-0 leaf with a tiny halfsize) query or node cube;
// rtreego requires strictly positive dimensions.
const epsilon = 0.0001

// Box is the minimal axis-aligned cube shape this package needs —
// duplicated from internal/copc's Vector3-based Box rather than
// imported, so spatialidx stays a leaf package with no dependency on
// the rest of internal/copc.
type Box struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Entry pairs an opaque payload with the cube it occupies in the index.
type Entry struct {
	Payload interface{}
	Box     Box
}

type indexedEntry struct {
	entry Entry
	rect  rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *indexedEntry) Bounds() rtreego.Rect { return e.rect }

// Index is an incrementally-built R-tree over node bounding cubes.
// Unlike pkg/s57's one-shot spatialIndex, entries are added as COPC
// hierarchy pages load lazily, so Index supports repeated Insert calls
// rather than a single bulk build.
type Index struct {
	tree *rtreego.Rtree
}

// New returns an empty 3-D index with the same branching factors
// pkg/s57 uses for its 2-D index (min 25, max 50 children per node).
func New() *Index {
	return &Index{tree: rtreego.NewTree(3, 25, 50)}
}

func rectFromBox(b Box) (rtreego.Rect, error) {
	lengths := []float64{
		widen(b.MaxX - b.MinX),
		widen(b.MaxY - b.MinY),
		widen(b.MaxZ - b.MinZ),
	}
	return rtreego.NewRect(rtreego.Point{b.MinX, b.MinY, b.MinZ}, lengths)
}

func widen(length float64) float64 {
	if length < epsilon {
		return epsilon
	}
	return length
}

// Insert adds one entry to the index.
func (idx *Index) Insert(e Entry) error {
	rect, err := rectFromBox(e.Box)
	if err != nil {
		return err
	}
	idx.tree.Insert(&indexedEntry{entry: e, rect: rect})
	return nil
}

// Intersecting returns every entry whose cube overlaps box.
func (idx *Index) Intersecting(box Box) ([]Entry, error) {
	rect, err := rectFromBox(box)
	if err != nil {
		return nil, err
	}
	hits := idx.tree.SearchIntersect(rect)
	out := make([]Entry, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*indexedEntry).entry)
	}
	return out, nil
}
