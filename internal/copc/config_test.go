package copc

import "testing"

func TestCopcConfigWriterCloneIsolation(t *testing.T) {
	original, err := NewCopcConfigWriter(7, DefaultScale(), DefaultOffset(), Vector3{}, 100, 1)
	if err != nil {
		t.Fatalf("NewCopcConfigWriter: %v", err)
	}
	original.Header.Min = Vector3{X: 10, Y: 10, Z: 10}
	original.Info.Spacing = 2

	cloned := original.Clone()
	cloned.Header.Min = Vector3{X: 0, Y: 0, Z: 0}
	cloned.Info.Spacing = 1

	if original.Header.Min != (Vector3{X: 10, Y: 10, Z: 10}) {
		t.Errorf("mutating clone affected original header.min: got %v", original.Header.Min)
	}
	if original.Info.Spacing != 2 {
		t.Errorf("mutating clone affected original copc_info.spacing: got %v", original.Info.Spacing)
	}

	// And the reverse direction.
	original.Header.Min = Vector3{X: 99, Y: 99, Z: 99}
	if cloned.Header.Min == original.Header.Min {
		t.Errorf("mutating original affected clone header.min")
	}
}

func TestLasConfigWriterCloneIsolatesExtraBytes(t *testing.T) {
	w, err := NewLasConfigWriter(7, DefaultScale(), DefaultOffset())
	if err != nil {
		t.Fatalf("NewLasConfigWriter: %v", err)
	}
	if err := w.AddExtraByteField(EbField{Name: "a", DataType: 1}); err != nil {
		t.Fatalf("AddExtraByteField: %v", err)
	}

	clone := w.Clone()
	if err := clone.AddExtraByteField(EbField{Name: "b", DataType: 1}); err != nil {
		t.Fatalf("AddExtraByteField on clone: %v", err)
	}

	if len(w.ExtraBytes.Items) != 1 {
		t.Errorf("original gained fields from clone mutation: has %d, want 1", len(w.ExtraBytes.Items))
	}
	if len(clone.ExtraBytes.Items) != 2 {
		t.Errorf("clone should have 2 fields, has %d", len(clone.ExtraBytes.Items))
	}
}

// TestNewCopcConfigWriterFromConfigIsolatesOriginal mirrors
// original_source/test/copc_config_test.cpp's "Copy constructor from
// CopcConfig" section: build a read-side CopcConfig, derive a writer
// from it, mutate the writer, and confirm the original CopcConfig (and
// the writer it came from) are untouched.
func TestNewCopcConfigWriterFromConfigIsolatesOriginal(t *testing.T) {
	original, err := NewCopcConfigWriter(7, DefaultScale(), DefaultOffset(), Vector3{}, 100, 1)
	if err != nil {
		t.Fatalf("NewCopcConfigWriter: %v", err)
	}
	original.Header.Min = Vector3{X: 10, Y: 10, Z: 10}
	original.Info.Spacing = 2
	if err := original.AddExtraByteField(EbField{Name: "a", DataType: 1}); err != nil {
		t.Fatalf("AddExtraByteField: %v", err)
	}

	cfg := original.View()

	derived := NewCopcConfigWriterFromConfig(cfg)
	derived.Header.Min = Vector3{X: 0, Y: 0, Z: 0}
	derived.Info.Spacing = 99
	if err := derived.AddExtraByteField(EbField{Name: "b", DataType: 1}); err != nil {
		t.Fatalf("AddExtraByteField on derived: %v", err)
	}

	if cfg.Header.Min != (Vector3{X: 10, Y: 10, Z: 10}) {
		t.Errorf("mutating derived writer affected the source CopcConfig's header.min: got %v", cfg.Header.Min)
	}
	if cfg.Info.Spacing != 2 {
		t.Errorf("mutating derived writer affected the source CopcConfig's copc_info.spacing: got %v", cfg.Info.Spacing)
	}
	if len(cfg.ExtraBytes.Items) != 1 {
		t.Errorf("mutating derived writer affected the source CopcConfig's extra bytes: has %d, want 1", len(cfg.ExtraBytes.Items))
	}
	if original.Header.Min != (Vector3{X: 10, Y: 10, Z: 10}) {
		t.Errorf("mutating derived writer affected the original writer's header.min: got %v", original.Header.Min)
	}
	if len(original.ExtraBytes.Items) != 1 {
		t.Errorf("mutating derived writer affected the original writer's extra bytes: has %d, want 1", len(original.ExtraBytes.Items))
	}
}

func TestNewLasConfigWriterForcesCopcMarker(t *testing.T) {
	w, err := NewLasConfigWriter(7, DefaultScale(), DefaultOffset())
	if err != nil {
		t.Fatalf("NewLasConfigWriter: %v", err)
	}
	if !w.Header.IsCopc() {
		t.Errorf("header built for a config writer should be marked COPC")
	}
}
