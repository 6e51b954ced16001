package copc

// LasConfig is the value-owned, read-side view of a file's LAS header
// and extra-bytes schema. Readers hand out LasConfig by value: callers
// can inspect it freely without affecting the Reader's own state.
type LasConfig struct {
	Header   LasHeader
	ExtraBytes EbVlr
	Wkt      WktVlr
}

// PointFormatID is a convenience accessor mirroring the original
// CopcConfig::LasHeader()->PointFormatId() call chain.
func (c LasConfig) PointFormatID() int8 { return c.Header.PointFormatID }

// PointRecordLength returns the header's configured point record length.
func (c LasConfig) PointRecordLength() int { return int(c.Header.PointRecordLength) }

// CopcConfig extends LasConfig with the COPC-info payload; it is the
// value-owned view a Reader returns from Reader.Config().
type CopcConfig struct {
	LasConfig
	Info CopcInfoVlr
}

// LasConfigWriter is the shared-mutable-handle counterpart of LasConfig:
// callers adjust the header and extra-bytes schema in place, then pass
// the enclosing *CopcConfigWriter to NewWriter, which keeps that pointer
// and serializes from (and updates) the same fields.
//
// Copying a LasConfigWriter by value copies Header and Wkt but shares
// the ExtraBytes.Items backing array with the original. Use Clone to
// get a fully isolated snapshot (spec.md §8 property 9 / scenario S6).
type LasConfigWriter struct {
	Header     LasHeader
	ExtraBytes EbVlr
	Wkt        WktVlr
}

// NewLasConfigWriter builds a writer-side config for the given point
// format, forcing the header's COPC marker per spec.md §4.B.
func NewLasConfigWriter(pointFormatID int8, scale, offset Vector3) (*LasConfigWriter, error) {
	baseSize, err := PointBaseByteSize(pointFormatID)
	if err != nil {
		return nil, err
	}
	h, err := NewLasHeader(pointFormatID, baseSize, scale, offset, true)
	if err != nil {
		return nil, err
	}
	return &LasConfigWriter{Header: h}, nil
}

// NewLasConfigWriterFromConfig builds a writer-side config from an
// existing read-side LasConfig, deep-cloning every field by value so
// the new writer shares no state with cfg or whatever produced it
// (spec.md §4.D copy contract; mirrors the original's
// `LasConfigWriter(const LasConfig&)` copy constructor).
func NewLasConfigWriterFromConfig(cfg LasConfig) *LasConfigWriter {
	w := &LasConfigWriter{
		Header: cfg.Header,
		Wkt:    cfg.Wkt,
	}
	w.ExtraBytes.Items = append([]EbField(nil), cfg.ExtraBytes.Items...)
	return w
}

// AddExtraByteField appends a field descriptor and grows the header's
// point record length to match.
func (w *LasConfigWriter) AddExtraByteField(f EbField) error {
	base, err := PointBaseByteSize(w.Header.PointFormatID)
	if err != nil {
		return err
	}
	w.ExtraBytes.AddField(f)
	ebSize, err := w.ExtraBytes.Size()
	if err != nil {
		return err
	}
	w.Header.PointRecordLength = uint16(base + ebSize)
	return nil
}

// Clone returns a deep, independent copy: mutating the clone's Header,
// ExtraBytes, or Wkt never affects w, and vice versa. This is the Go
// analogue of the original CopcConfigWriter copy constructor, which
// deep-copies the underlying shared_ptr targets instead of aliasing them.
func (w *LasConfigWriter) Clone() *LasConfigWriter {
	clone := &LasConfigWriter{
		Header: w.Header,
		Wkt:    w.Wkt,
	}
	clone.ExtraBytes.Items = append([]EbField(nil), w.ExtraBytes.Items...)
	return clone
}

// View returns a value-owned LasConfig snapshot of the writer's current
// state, safe to hand to callers that must not observe later mutation.
func (w *LasConfigWriter) View() LasConfig {
	return LasConfig{
		Header:     w.Header,
		ExtraBytes: w.Clone().ExtraBytes,
		Wkt:        w.Wkt,
	}
}

// CopcConfigWriter extends LasConfigWriter with the mutable COPC-info
// payload a Writer uses to build the header it will eventually flush.
type CopcConfigWriter struct {
	LasConfigWriter
	Info CopcInfoVlr
}

// NewCopcConfigWriter builds a writer-side COPC config: center/halfsize
// define the root octree cell, spacing is the root-level point spacing.
func NewCopcConfigWriter(pointFormatID int8, scale, offset Vector3, center Vector3, halfsize, spacing float64) (*CopcConfigWriter, error) {
	lw, err := NewLasConfigWriter(pointFormatID, scale, offset)
	if err != nil {
		return nil, err
	}
	return &CopcConfigWriter{
		LasConfigWriter: *lw,
		Info: CopcInfoVlr{
			Center:   center,
			Halfsize: halfsize,
			Spacing:  spacing,
		},
	}, nil
}

// NewCopcConfigWriterFromConfig builds a writer-side config from an
// existing read-side CopcConfig, deep-cloning the LAS portion via
// NewLasConfigWriterFromConfig and copying Info by value (CopcInfoVlr
// holds no slices/pointers, so a value copy is already independent).
// This is the constructor spec.md §8 invariant 9 / scenario S6
// exercises directly: build a CopcConfig, derive a writer from it,
// mutate the writer, and confirm the original CopcConfig is untouched.
func NewCopcConfigWriterFromConfig(cfg CopcConfig) *CopcConfigWriter {
	lw := NewLasConfigWriterFromConfig(cfg.LasConfig)
	lw.Header = lw.Header.WithCopc()
	return &CopcConfigWriter{
		LasConfigWriter: *lw,
		Info:            cfg.Info,
	}
}

// Clone returns a deep, independent copy of both the LAS and COPC
// portions of the config (spec.md §8 scenario S6).
func (w *CopcConfigWriter) Clone() *CopcConfigWriter {
	return &CopcConfigWriter{
		LasConfigWriter: *w.LasConfigWriter.Clone(),
		Info:            w.Info,
	}
}

// View returns a value-owned CopcConfig snapshot.
func (w *CopcConfigWriter) View() CopcConfig {
	return CopcConfig{
		LasConfig: w.LasConfigWriter.View(),
		Info:      w.Info,
	}
}
