package copc

// EntrySize is the fixed serialized size of one hierarchy entry.
const EntrySize = 32

// Entry is one row of a hierarchy page: either a leaf node (PointCount
// >= 0) describing a compressed point chunk, or a child-page pointer
// (PointCount < 0) whose ByteOffset/ByteSize locate the sub-page.
type Entry struct {
	Key         VoxelKey
	ByteOffset  uint64
	ByteSize    int32
	PointCount  int32
}

// IsPagePointer reports whether e points at a child page rather than
// holding point data directly.
func (e Entry) IsPagePointer() bool { return e.PointCount < 0 }

// ToBytes serializes the entry to its fixed 32-byte wire form:
// 4×i32 key, u64 offset, i32 size, i32 point_count.
func (e Entry) ToBytes() []byte {
	buf := make([]byte, EntrySize)
	putInt32(buf[0:], e.Key.D)
	putInt32(buf[4:], e.Key.X)
	putInt32(buf[8:], e.Key.Y)
	putInt32(buf[12:], e.Key.Z)
	putUint64(buf[16:], e.ByteOffset)
	putInt32(buf[24:], e.ByteSize)
	putInt32(buf[28:], e.PointCount)
	return buf
}

// EntryFromBytes parses one 32-byte entry.
func EntryFromBytes(data []byte) (Entry, error) {
	if len(data) < EntrySize {
		return Entry{}, &ErrFormat{Reason: "hierarchy entry shorter than 32 bytes"}
	}
	return Entry{
		Key: VoxelKey{
			D: getInt32(data[0:]),
			X: getInt32(data[4:]),
			Y: getInt32(data[8:]),
			Z: getInt32(data[12:]),
		},
		ByteOffset: getUint64(data[16:]),
		ByteSize:   getInt32(data[24:]),
		PointCount: getInt32(data[28:]),
	}, nil
}

func putInt32(dst []byte, v int32) {
	u := uint32(v)
	dst[0] = byte(u)
	dst[1] = byte(u >> 8)
	dst[2] = byte(u >> 16)
	dst[3] = byte(u >> 24)
}

func getInt32(src []byte) int32 {
	u := uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16 | uint32(src[3])<<24
	return int32(u)
}

// Page is a contiguous block of hierarchy entries rooted at Key. Sub-
// pages are loaded lazily by the reader; the root page is always
// resident after Open.
type Page struct {
	Key        VoxelKey
	Entries    []Entry
	ByteOffset uint64
	ByteSize   int32
	Loaded     bool
}

// FindEntry returns the entry for key if present directly in this
// page (ok == false if absent — the caller must then search
// page-pointer entries for an ancestor).
func (p *Page) FindEntry(key VoxelKey) (Entry, bool) {
	for _, e := range p.Entries {
		if e.Key.Equal(key) {
			return e, true
		}
	}
	return Entry{}, false
}

// FindContainingPagePointer returns the page-pointer entry whose key
// is an ancestor of (or equal to) the given key, if any.
func (p *Page) FindContainingPagePointer(key VoxelKey) (Entry, bool) {
	for _, e := range p.Entries {
		if e.IsPagePointer() && e.Key.Contains(key) {
			return e, true
		}
	}
	return Entry{}, false
}

// AddEntry appends an entry after verifying containment and duplicate
// rules the hierarchy invariants require (spec §4.E, §8 invariant 2).
func (p *Page) AddEntry(e Entry) error {
	if !p.Key.Contains(e.Key) {
		return &ErrKeyNotContained{PageKey: p.Key, NodeKey: e.Key}
	}
	if _, dup := p.FindEntry(e.Key); dup {
		return &ErrDuplicateKey{Key: e.Key}
	}
	p.Entries = append(p.Entries, e)
	return nil
}

// ToBytes serializes every entry in page order, N*32 bytes total.
func (p *Page) ToBytes() []byte {
	buf := make([]byte, 0, len(p.Entries)*EntrySize)
	for _, e := range p.Entries {
		buf = append(buf, e.ToBytes()...)
	}
	return buf
}

// PageFromBytes parses a page's raw entry bytes (length must be a
// multiple of EntrySize, spec.md §7 FormatError condition).
func PageFromBytes(key VoxelKey, data []byte, byteOffset uint64, byteSize int32) (*Page, error) {
	if len(data)%EntrySize != 0 {
		return nil, &ErrFormat{Reason: "hierarchy page bytes not a multiple of 32"}
	}
	n := len(data) / EntrySize
	p := &Page{Key: key, ByteOffset: byteOffset, ByteSize: byteSize, Loaded: true, Entries: make([]Entry, 0, n)}
	for i := 0; i < n; i++ {
		e, err := EntryFromBytes(data[i*EntrySize:])
		if err != nil {
			return nil, err
		}
		if err := p.AddEntry(e); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Hierarchy is the tree of pages rooted at RootKey, indexed by each
// page's root VoxelKey — the natural idiom for tree-shaped data keyed
// by a small comparable struct, rather than an arena of integer
// indices.
type Hierarchy struct {
	pages []VoxelKey // insertion order, for deterministic Walk
	byKey map[VoxelKey]*Page
}

// NewHierarchy returns an empty hierarchy with just the root page.
func NewHierarchy() *Hierarchy {
	root := &Page{Key: RootKey(), Loaded: true}
	h := &Hierarchy{byKey: make(map[VoxelKey]*Page)}
	h.put(root)
	return h
}

func (h *Hierarchy) put(p *Page) {
	if _, exists := h.byKey[p.Key]; !exists {
		h.pages = append(h.pages, p.Key)
	}
	h.byKey[p.Key] = p
}

// Root returns the always-resident root page.
func (h *Hierarchy) Root() *Page { return h.byKey[RootKey()] }

// Page returns the page rooted at key, if already known to the
// hierarchy (loaded or declared).
func (h *Hierarchy) Page(key VoxelKey) (*Page, bool) {
	p, ok := h.byKey[key]
	return p, ok
}

// EnsurePage returns the page rooted at key, creating an empty
// (not-yet-loaded) one if it doesn't exist yet.
func (h *Hierarchy) EnsurePage(key VoxelKey) *Page {
	if p, ok := h.byKey[key]; ok {
		return p
	}
	p := &Page{Key: key}
	h.put(p)
	return p
}

// PutLoadedPage registers an already-parsed page, keeping it for the
// hierarchy's lifetime. Reader does not call it: it keeps loaded pages
// in its own page cache.
func (h *Hierarchy) PutLoadedPage(p *Page) { h.put(p) }

// nearestAncestorPage returns the already-known page whose root is
// the closest (deepest) strict ancestor of key, defaulting to the
// root page if no deeper page qualifies. This is how a newly declared
// sub-page finds which existing page must record its page-pointer
// entry (spec.md §4.E sub-page creation rule).
func (h *Hierarchy) nearestAncestorPage(key VoxelKey) *Page {
	var best *Page
	for _, k := range h.pages {
		if k.Equal(key) {
			continue
		}
		if k.Contains(key) {
			if best == nil || k.D > best.Key.D {
				best = h.byKey[k]
			}
		}
	}
	if best == nil {
		return h.Root()
	}
	return best
}

// Walk visits every known page in the order pages were first added to
// the hierarchy (root first), stopping at the first error fn returns.
// This is insertion order, not a depth-first traversal.
func (h *Hierarchy) Walk(fn func(pageKey VoxelKey, p *Page) error) error {
	for _, key := range h.pages {
		if err := fn(key, h.byKey[key]); err != nil {
			return err
		}
	}
	return nil
}
