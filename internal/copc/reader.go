package copc

import (
	"container/list"
	"fmt"
	"io"
	"sync"

	"github.com/beetlebugorg/copc/internal/copc/spatialidx"
)

// ReaderOptions configures Open.
type ReaderOptions struct {
	// Codec decompresses point chunks on GetPointData. Defaults to
	// PassthroughCodec when left nil.
	Codec Codec
}

// DefaultReaderOptions returns ReaderOptions with PassthroughCodec.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{Codec: PassthroughCodec{}}
}

// Node is a resolved hierarchy entry: a leaf node's key plus its
// location in the byte source.
type Node struct {
	Key        VoxelKey
	ByteOffset uint64
	ByteSize   int32
	PointCount int32
}

// IsValid reports whether this is a real node, not the InvalidNode sentinel.
func (n Node) IsValid() bool { return n.Key.IsValid() }

// InvalidNode is the sentinel FindNode returns for an absent key
// (spec.md §4.G: "not an error").
func InvalidNode() Node { return Node{Key: InvalidKey()} }

type pageCacheEntry struct {
	key  VoxelKey
	page *Page
}

// pageCache is a concurrency-safe page store. Adapted from the
// teacher's container/list + sync.RWMutex chart-cache shape, but with
// no eviction: COPC hierarchy pages are small and retained for the
// reader's whole lifetime (spec.md §4.G caching policy), so only the
// map+list bookkeeping is reused, not the LRU eviction logic.
type pageCache struct {
	mu      sync.RWMutex
	entries map[VoxelKey]*list.Element
	order   *list.List
}

func newPageCache() *pageCache {
	return &pageCache{entries: make(map[VoxelKey]*list.Element), order: list.New()}
}

func (c *pageCache) get(key VoxelKey) (*Page, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*pageCacheEntry).page, true
}

func (c *pageCache) put(p *Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[p.Key]; ok {
		el.Value.(*pageCacheEntry).page = p
		return
	}
	c.entries[p.Key] = c.order.PushBack(&pageCacheEntry{key: p.Key, page: p})
}

func (c *pageCache) all() []*Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pages := make([]*Page, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		pages = append(pages, el.Value.(*pageCacheEntry).page)
	}
	return pages
}

// Reader implements lazy hierarchy navigation, node lookup, and point
// chunk decompression (spec.md §4.G). A Reader is immutable after
// Open and must not be shared across goroutines.
type Reader struct {
	source io.ReadSeeker
	codec  Codec
	config CopcConfig
	cache  *pageCache

	spatialMu    sync.Mutex
	spatialIndex *spatialidx.Index
	spatialSeen  map[VoxelKey]bool
}

// Open parses the LAS header and COPC-info VLR, then loads the root
// hierarchy page (spec.md §4.G "Open").
func Open(source io.ReadSeeker, opts ReaderOptions) (*Reader, error) {
	if opts.Codec == nil {
		opts.Codec = PassthroughCodec{}
	}

	headerBytes := make([]byte, lasHeaderSize)
	if _, err := io.ReadFull(source, headerBytes); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header, err := LasHeaderFromBytes(headerBytes)
	if err != nil {
		return nil, err
	}
	if !IsCopcLegalPointFormat(header.PointFormatID) {
		return nil, &ErrFormat{Reason: fmt.Sprintf("point format %d is not COPC-legal", header.PointFormatID)}
	}
	header = header.WithCopc()

	info, wkt, ebvlr, err := readPreludeVlrs(source, header)
	if err != nil {
		return nil, err
	}
	if info.RootHierSize == 0 {
		return nil, &ErrFormat{Reason: "root hierarchy page is empty"}
	}

	r := &Reader{
		source: source,
		codec:  opts.Codec,
		config: CopcConfig{
			LasConfig: LasConfig{Header: header, ExtraBytes: ebvlr, Wkt: wkt},
			Info:      info,
		},
		cache:       newPageCache(),
		spatialSeen: make(map[VoxelKey]bool),
	}

	rootPage, err := r.loadPageAt(RootKey(), info.RootHierOffset, int32(info.RootHierSize))
	if err != nil {
		return nil, err
	}
	r.cache.put(rootPage)
	return r, nil
}

func readPreludeVlrs(source io.ReadSeeker, header LasHeader) (CopcInfoVlr, WktVlr, EbVlr, error) {
	var info CopcInfoVlr
	var wkt WktVlr
	var ebvlr EbVlr
	sawInfo := false

	for i := uint32(0); i < header.NumberOfVlrs; i++ {
		hdrBytes := make([]byte, VlrHeaderSize)
		if _, err := io.ReadFull(source, hdrBytes); err != nil {
			return info, wkt, ebvlr, fmt.Errorf("read vlr header %d: %w", i, err)
		}
		vh, err := VlrHeaderFromBytes(hdrBytes, false)
		if err != nil {
			return info, wkt, ebvlr, err
		}
		payload := make([]byte, vh.DataLength)
		if _, err := io.ReadFull(source, payload); err != nil {
			return info, wkt, ebvlr, fmt.Errorf("read vlr payload %d: %w", i, err)
		}

		switch {
		case vh.UserID == copcUserID && vh.RecordID == CopcInfoRecordID:
			if info, err = CopcInfoVlrFromBytes(payload); err != nil {
				return info, wkt, ebvlr, err
			}
			sawInfo = true
		case vh.UserID == "LASF_Projection" && vh.RecordID == 2112:
			wkt = WktVlr{Wkt: string(payload)}
		case vh.UserID == "LASF_Spec" && vh.RecordID == 4:
			if ebvlr, err = EbVlrFromBytes(payload); err != nil {
				return info, wkt, ebvlr, err
			}
		}
	}

	if !sawInfo {
		return info, wkt, ebvlr, &ErrFormat{Reason: "missing copc-info VLR"}
	}
	return info, wkt, ebvlr, nil
}

func (r *Reader) loadPageAt(key VoxelKey, offset uint64, size int32) (*Page, error) {
	if _, err := r.source.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to page %s: %w", key, err)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r.source, buf); err != nil {
		return nil, fmt.Errorf("read page %s: %w", key, err)
	}
	return PageFromBytes(key, buf, offset, size)
}

// Config returns a value-owned snapshot of the file's LAS/COPC config.
func (r *Reader) Config() CopcConfig { return r.config }

// FindNode descends the page tree looking for key, loading and
// caching sub-pages on demand (spec.md §4.G: O(depth) page loads per
// lookup). Returns InvalidNode (not an error) when key is absent.
func (r *Reader) FindNode(key VoxelKey) (Node, error) {
	if !key.IsValid() {
		return InvalidNode(), &ErrInvalidKey{Key: key}
	}

	page, ok := r.cache.get(RootKey())
	if !ok {
		return InvalidNode(), &ErrState{Reason: "reader not opened"}
	}

	for {
		if e, ok := page.FindEntry(key); ok && !e.IsPagePointer() {
			return Node{Key: e.Key, ByteOffset: e.ByteOffset, ByteSize: e.ByteSize, PointCount: e.PointCount}, nil
		}
		ptr, ok := page.FindContainingPagePointer(key)
		if !ok {
			return InvalidNode(), nil
		}
		child, ok := r.cache.get(ptr.Key)
		if !ok {
			loaded, err := r.loadPageAt(ptr.Key, ptr.ByteOffset, ptr.ByteSize)
			if err != nil {
				return InvalidNode(), err
			}
			r.cache.put(loaded)
			child = loaded
		}
		page = child
	}
}

// GetPointData seeks to node's chunk, reads it, and decompresses it
// (spec.md §4.G: result length equals point_count * point_record_len).
func (r *Reader) GetPointData(node Node) ([]byte, error) {
	if !node.IsValid() {
		return nil, &ErrNotFound{What: fmt.Sprintf("node %s", node.Key)}
	}
	if _, err := r.source.Seek(int64(node.ByteOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to node %s: %w", node.Key, err)
	}
	compressed := make([]byte, node.ByteSize)
	if _, err := io.ReadFull(r.source, compressed); err != nil {
		return nil, fmt.Errorf("read node %s: %w", node.Key, err)
	}
	schema := PointSchema{
		PointFormatID:     r.config.Header.PointFormatID,
		PointRecordLength: r.config.PointRecordLength(),
		ExtraBytes:        r.config.ExtraBytes,
	}
	return r.codec.Decompress(compressed, int(node.PointCount), schema)
}

// Walk forces full hierarchy materialization, depth-first, invoking fn
// on every page (cached or freshly loaded). Bounded by the "no
// eviction" caching policy: it only ever loads pages, never discards
// them, so repeated Walk calls are cheap after the first.
func (r *Reader) Walk(fn func(pageKey VoxelKey, p *Page) error) error {
	root, ok := r.cache.get(RootKey())
	if !ok {
		return &ErrState{Reason: "reader not opened"}
	}
	return r.walkPage(root, fn)
}

func (r *Reader) walkPage(p *Page, fn func(VoxelKey, *Page) error) error {
	if err := fn(p.Key, p); err != nil {
		return err
	}
	for _, e := range p.Entries {
		if !e.IsPagePointer() {
			continue
		}
		child, ok := r.cache.get(e.Key)
		if !ok {
			loaded, err := r.loadPageAt(e.Key, e.ByteOffset, e.ByteSize)
			if err != nil {
				return err
			}
			r.cache.put(loaded)
			child = loaded
		}
		if err := r.walkPage(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// NodesIntersecting returns every already-resolved leaf node whose
// octree cube overlaps box, using an R-tree built incrementally from
// cached pages (spec.md §2/§9 DOMAIN STACK supplement). It does not
// force any sub-page to load: call Walk first to materialize the full
// hierarchy if a complete answer is required.
func (r *Reader) NodesIntersecting(box Box) ([]Node, error) {
	r.spatialMu.Lock()
	defer r.spatialMu.Unlock()

	if r.spatialIndex == nil {
		r.spatialIndex = spatialidx.New()
	}

	for _, p := range r.cache.all() {
		for _, e := range p.Entries {
			if e.IsPagePointer() || r.spatialSeen[e.Key] {
				continue
			}
			cube := e.Key.Bounds(r.config.Info.Center, r.config.Info.Halfsize)
			node := Node{Key: e.Key, ByteOffset: e.ByteOffset, ByteSize: e.ByteSize, PointCount: e.PointCount}
			err := r.spatialIndex.Insert(spatialidx.Entry{
				Payload: node,
				Box: spatialidx.Box{
					MinX: cube.Min.X, MinY: cube.Min.Y, MinZ: cube.Min.Z,
					MaxX: cube.Max.X, MaxY: cube.Max.Y, MaxZ: cube.Max.Z,
				},
			})
			if err != nil {
				return nil, fmt.Errorf("index node %s: %w", e.Key, err)
			}
			r.spatialSeen[e.Key] = true
		}
	}

	hits, err := r.spatialIndex.Intersecting(spatialidx.Box{
		MinX: box.Min.X, MinY: box.Min.Y, MinZ: box.Min.Z,
		MaxX: box.Max.X, MaxY: box.Max.Y, MaxZ: box.Max.Z,
	})
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(hits))
	for _, h := range hits {
		nodes = append(nodes, h.Payload.(Node))
	}
	return nodes, nil
}

// Close releases the underlying source if it is also an io.Closer.
func (r *Reader) Close() error {
	if c, ok := r.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
