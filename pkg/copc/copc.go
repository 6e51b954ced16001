package copc

import (
	"io"

	internal "github.com/beetlebugorg/copc/internal/copc"
)

// Vector3 is a 3-D vector used for scale, offset, and bounding-box fields.
type Vector3 = internal.Vector3

// Box is an axis-aligned bounding cube.
type Box = internal.Box

// VoxelKey identifies a cell in the COPC octree: depth d and integer
// cell coordinates (x, y, z) in [0, 2^d).
type VoxelKey = internal.VoxelKey

// RootKey is the key of the hierarchy's root page and root node.
func RootKey() VoxelKey { return internal.RootKey() }

// InvalidKey is the distinguished invalid key.
func InvalidKey() VoxelKey { return internal.InvalidKey() }

// Node is a resolved hierarchy entry: one compressed point chunk at a
// given VoxelKey.
type Node = internal.Node

// Codec is the injected compression capability a Writer/Reader uses
// to turn raw point bytes into compressed chunks and back.
type Codec = internal.Codec

// PointSchema describes the point layout a Codec compresses against.
type PointSchema = internal.PointSchema

// ChunkTableEntry is the per-chunk bookkeeping record a Codec reports.
type ChunkTableEntry = internal.ChunkTableEntry

// PassthroughCodec is a byte-identity Codec that stores point chunks
// uncompressed: every chunk must be exactly pointCount * point record
// length bytes, so it cannot read back chunks compressed by another codec.
type PassthroughCodec = internal.PassthroughCodec

// EbField describes one extra-bytes field descriptor.
type EbField = internal.EbField

// LasConfig is the value-owned, read-side view of a file's LAS header
// and extra-bytes schema.
type LasConfig = internal.LasConfig

// CopcConfig extends LasConfig with the COPC-info payload.
type CopcConfig = internal.CopcConfig

// CopcConfigWriter is the mutable, shared-handle counterpart of
// CopcConfig used to configure a Writer before any node is added.
type CopcConfigWriter = internal.CopcConfigWriter

// NewCopcConfigWriter builds a writer-side COPC config: pointFormatID
// must be one of the COPC-legal LAS point formats (6-10); center and
// halfsize define the root octree cell; spacing is the root-level
// point spacing.
func NewCopcConfigWriter(pointFormatID int8, scale, offset Vector3, center Vector3, halfsize, spacing float64) (*CopcConfigWriter, error) {
	return internal.NewCopcConfigWriter(pointFormatID, scale, offset, center, halfsize, spacing)
}

// DefaultScale returns the scale factor used when none is specified.
func DefaultScale() Vector3 { return internal.DefaultScale() }

// DefaultOffset returns the zero offset.
func DefaultOffset() Vector3 { return internal.DefaultOffset() }

// WriterOptions configures NewWriter.
type WriterOptions = internal.WriterOptions

// DefaultWriterOptions returns WriterOptions with PassthroughCodec.
func DefaultWriterOptions() WriterOptions { return internal.DefaultWriterOptions() }

// WriterStats reports running writer totals: chunk count, bytes
// written, node count, and whether bounds may be incomplete because
// AddNodeCompressed was used.
type WriterStats = internal.WriterStats

// Writer writes a COPC file.
//
// Configure a CopcConfigWriter, open a Writer over a seekable sink,
// call AddNode/AddNodeCompressed zero or more times in the order
// chunks should appear in the file, then call Close.
//
// Example:
//
//	cfg, _ := copc.NewCopcConfigWriter(7, copc.DefaultScale(), copc.DefaultOffset(), copc.Vector3{}, 100, 1)
//	w, _ := copc.NewWriter(sink, cfg, copc.DefaultWriterOptions())
//	_ = w.AddNode(copc.RootKey(), points)
//	_, _ = w.Close()
type Writer struct {
	internal *internal.Writer
}

// NewWriter opens a writer over sink using the given COPC config and options.
func NewWriter(sink io.WriteSeeker, config *CopcConfigWriter, opts WriterOptions) (*Writer, error) {
	w, err := internal.NewWriter(sink, config, opts)
	if err != nil {
		return nil, err
	}
	return &Writer{internal: w}, nil
}

// AddNode compresses points and appends them under the root page.
// points must be a non-empty, exact multiple of the configured point
// record length.
func (w *Writer) AddNode(key VoxelKey, points []byte) error {
	return w.internal.AddNode(key, points)
}

// AddNodeToPage is AddNode, recording the entry under the sub-page
// rooted at pageKey (created on first use). pageKey must contain key.
func (w *Writer) AddNodeToPage(key VoxelKey, points []byte, pageKey VoxelKey) error {
	return w.internal.AddNodeToPage(key, points, pageKey)
}

// AddNodeCompressed records a pre-compressed chunk verbatim; bytes and
// pointCount are taken on faith and do not update the header's
// bounding box or points-by-return histogram (see WriterStats).
func (w *Writer) AddNodeCompressed(key VoxelKey, compressed []byte, pointCount int) error {
	return w.internal.AddNodeCompressed(key, compressed, pointCount)
}

// AddNodeCompressedToPage is AddNodeCompressed under an explicit sub-page.
func (w *Writer) AddNodeCompressedToPage(key VoxelKey, compressed []byte, pointCount int, pageKey VoxelKey) error {
	return w.internal.AddNodeCompressedToPage(key, compressed, pointCount, pageKey)
}

// Stats returns a snapshot of running writer totals.
func (w *Writer) Stats() WriterStats { return w.internal.Stats() }

// Close finalizes the chunk table and hierarchy, patches the header
// and COPC-info with their final offsets, and returns the resulting
// config. Close is idempotent: a second call returns a state error.
func (w *Writer) Close() (CopcConfig, error) {
	return w.internal.Close()
}

// ReaderOptions configures Open.
type ReaderOptions = internal.ReaderOptions

// DefaultReaderOptions returns ReaderOptions with PassthroughCodec.
func DefaultReaderOptions() ReaderOptions { return internal.DefaultReaderOptions() }

// Reader reads a COPC file.
//
// Example:
//
//	r, _ := copc.Open(source, copc.DefaultReaderOptions())
//	node, _ := r.FindNode(copc.RootKey())
//	if node.IsValid() {
//	    points, _ := r.GetPointData(node)
//	}
type Reader struct {
	internal *internal.Reader
}

// Open parses the LAS header and COPC-info VLR, then loads the root
// hierarchy page.
func Open(source io.ReadSeeker, opts ReaderOptions) (*Reader, error) {
	r, err := internal.Open(source, opts)
	if err != nil {
		return nil, err
	}
	return &Reader{internal: r}, nil
}

// Config returns a value-owned snapshot of the file's LAS/COPC config.
func (r *Reader) Config() CopcConfig { return r.internal.Config() }

// FindNode descends the page tree looking for key, loading and
// caching sub-pages on demand. Check Node.IsValid() — an absent key
// returns the invalid sentinel, not an error.
func (r *Reader) FindNode(key VoxelKey) (Node, error) {
	return r.internal.FindNode(key)
}

// GetPointData seeks to node's chunk, reads it, and decompresses it.
func (r *Reader) GetPointData(node Node) ([]byte, error) {
	return r.internal.GetPointData(node)
}

// NodesIntersecting returns every already-resolved leaf node whose
// octree cube overlaps box. It only searches pages already loaded by
// FindNode or Walk — it does not force sub-pages to load.
func (r *Reader) NodesIntersecting(box Box) ([]Node, error) {
	return r.internal.NodesIntersecting(box)
}

// Page is a contiguous block of hierarchy entries rooted at a VoxelKey.
type Page = internal.Page

// Entry is one row of a hierarchy page: a leaf node or a child-page pointer.
type Entry = internal.Entry

// Walk forces full hierarchy materialization, depth-first, invoking fn
// on every page. Useful for diagnostics or for guaranteeing
// NodesIntersecting sees the whole tree.
func (r *Reader) Walk(fn func(pageKey VoxelKey, p *Page) error) error {
	return r.internal.Walk(fn)
}

// Close releases the underlying source if it is also an io.Closer.
func (r *Reader) Close() error { return r.internal.Close() }
