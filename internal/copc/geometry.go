package copc

import "fmt"

// Vector3 is a 3-D vector used for LAS scale, offset, and bounding-box
// fields. Equality is componentwise.
type Vector3 struct {
	X, Y, Z float64
}

// DefaultScale returns the scale factor copc-lib uses when none is given:
// 0.01 per integer step on each axis.
func DefaultScale() Vector3 { return Vector3{X: 0.01, Y: 0.01, Z: 0.01} }

// DefaultOffset returns the zero offset.
func DefaultOffset() Vector3 { return Vector3{} }

func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Add returns the componentwise sum.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns v scaled componentwise by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Box is an axis-aligned bounding cube (or rectangular box), used for a
// VoxelKey's spatial extent and for NodesIntersecting queries against
// the R-tree region index. LasHeader keeps its bounds as separate Min
// and Max Vector3 fields, not as a Box.
type Box struct {
	Min, Max Vector3
}

// Intersects reports whether the two boxes overlap on all three axes.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// VoxelKey identifies a cell in the COPC octree: depth d and integer
// cell coordinates (x, y, z) in [0, 2^d).
//
// d < 0 denotes the invalid key (VoxelKey.IsValid returns false).
//
// There is no constructor enforcing x, y, z < 2^d for d > 0: callers
// build VoxelKey values directly (struct literals, Child, Parent), and
// an out-of-range coordinate only ever surfaces indirectly, through
// Contains/AddEntry rejecting the resulting key as not contained by
// its intended page. Whether that should instead be caught eagerly
// here is open.
type VoxelKey struct {
	D, X, Y, Z int32
}

// RootKey is the key of the hierarchy's root page and root node: (0,0,0,0).
func RootKey() VoxelKey { return VoxelKey{} }

// InvalidKey is the distinguished invalid key, d = -1.
func InvalidKey() VoxelKey { return VoxelKey{D: -1} }

// IsValid reports whether the key's depth is non-negative.
//
// S-57's spatialKey has no analogous validity bit because RCNM/RCID are
// always well-formed once parsed; VoxelKey needs one because callers can
// construct keys directly (octree coordinates, not parsed from a file).
func (k VoxelKey) IsValid() bool { return k.D >= 0 }

func (k VoxelKey) String() string {
	if !k.IsValid() {
		return "VoxelKey(invalid)"
	}
	return fmt.Sprintf("%d-%d-%d-%d", k.D, k.X, k.Y, k.Z)
}

// Equal reports componentwise equality.
func (k VoxelKey) Equal(o VoxelKey) bool {
	return k.D == o.D && k.X == o.X && k.Y == o.Y && k.Z == o.Z
}

// Parent returns the key one octree level up. The parent of the root key
// is the invalid key.
func (k VoxelKey) Parent() VoxelKey {
	if !k.IsValid() || k.D == 0 {
		return InvalidKey()
	}
	return VoxelKey{D: k.D - 1, X: k.X >> 1, Y: k.Y >> 1, Z: k.Z >> 1}
}

// ChildIndex returns which of the 8 octants k occupies within its
// parent cell (bit 0 of x, bit 1 of y, bit 2 of z).
func (k VoxelKey) ChildIndex() int {
	idx := 0
	if k.X&1 != 0 {
		idx |= 1
	}
	if k.Y&1 != 0 {
		idx |= 2
	}
	if k.Z&1 != 0 {
		idx |= 4
	}
	return idx
}

// Child returns the key of the given child octant (0-7) one level below k.
func (k VoxelKey) Child(idx int) VoxelKey {
	return VoxelKey{
		D: k.D + 1,
		X: k.X<<1 | int32(idx&1),
		Y: k.Y<<1 | int32((idx>>1)&1),
		Z: k.Z<<1 | int32((idx>>2)&1),
	}
}

// IsAncestorOf reports whether k is a strict ancestor of other: other is
// reachable from k by one or more Child calls.
func (k VoxelKey) IsAncestorOf(other VoxelKey) bool {
	if !k.IsValid() || !other.IsValid() || other.D <= k.D {
		return false
	}
	shift := uint(other.D - k.D)
	return other.X>>shift == k.X && other.Y>>shift == k.Y && other.Z>>shift == k.Z
}

// Contains reports whether other is k itself or a descendant of k.
// This is the "K1 contains K2" relation from the hierarchy model: a
// page rooted at k may only hold entries for keys it contains.
func (k VoxelKey) Contains(other VoxelKey) bool {
	return k.Equal(other) || k.IsAncestorOf(other)
}

// Bounds computes the axis-aligned cube covered by k given the COPC
// center and halfsize (the half-width of the root cell at depth 0).
// Each additional depth level halves the cell width.
func (k VoxelKey) Bounds(center Vector3, halfsize float64) Box {
	if !k.IsValid() {
		return Box{}
	}
	cellWidth := halfsize * 2 / float64(uint64(1)<<uint(k.D))
	minX := center.X - halfsize + float64(k.X)*cellWidth
	minY := center.Y - halfsize + float64(k.Y)*cellWidth
	minZ := center.Z - halfsize + float64(k.Z)*cellWidth
	return Box{
		Min: Vector3{X: minX, Y: minY, Z: minZ},
		Max: Vector3{X: minX + cellWidth, Y: minY + cellWidth, Z: minZ + cellWidth},
	}
}
