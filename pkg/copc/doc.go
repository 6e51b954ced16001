// Package copc provides a clean public API for reading and writing
// Cloud-Optimized Point Cloud (COPC) files: LAS/LAZ point clouds
// wrapped with an octree-indexed hierarchy of compressed point chunks
// for spatial range queries.
//
// # Basic Usage
//
//	r, err := copc.Open(file, copc.DefaultReaderOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	cfg := r.Config()
//	fmt.Printf("point format %d, %d points\n", cfg.PointFormatID(), cfg.Header.PointCount)
//
// # Spatial Queries
//
// A Reader builds its R-tree lazily from whichever hierarchy pages it
// has already loaded, so the first query after Open only sees the root
// page's nodes:
//
//	nodes, err := r.NodesIntersecting(copc.Box{
//	    Min: copc.Vector3{X: -10, Y: -10, Z: -10},
//	    Max: copc.Vector3{X: 10, Y: 10, Z: 10},
//	})
//
// Call r.Walk to force every sub-page to load first if a query needs
// to see the whole tree rather than just what has been touched so far.
//
// # Reading Point Data
//
//	node, err := r.FindNode(copc.RootKey())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if node.IsValid() {
//	    points, err := r.GetPointData(node)
//	    // points is node.PointCount records of cfg.PointRecordLength() bytes each
//	}
//
// # Writing
//
//	cfgw, err := copc.NewCopcConfigWriter(7, copc.DefaultScale(), copc.DefaultOffset(),
//	    copc.Vector3{}, 100, 1)
//	w, err := copc.NewWriter(sink, cfgw, copc.DefaultWriterOptions())
//	err = w.AddNode(copc.RootKey(), points)
//	finalCfg, err := w.Close()
//
// # Compression
//
// Both Writer and Reader take a Codec in their options; DefaultWriterOptions
// and DefaultReaderOptions use PassthroughCodec, which stores point chunks
// uncompressed. Callers needing LAZ compression supply their own Codec
// implementation — this package does not vendor a LAZ entropy coder.
package copc
