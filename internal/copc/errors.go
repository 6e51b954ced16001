package copc

import "fmt"

// ErrInvalidKey indicates an operation was given an invalid VoxelKey.
type ErrInvalidKey struct {
	Key VoxelKey
}

func (e *ErrInvalidKey) Error() string {
	return fmt.Sprintf("invalid voxel key: %s", e.Key)
}

// ErrKeyNotContained indicates a node key was declared under a page
// whose root does not contain it.
type ErrKeyNotContained struct {
	PageKey VoxelKey
	NodeKey VoxelKey
}

func (e *ErrKeyNotContained) Error() string {
	return fmt.Sprintf("page %s does not contain node key %s", e.PageKey, e.NodeKey)
}

// ErrDuplicateKey indicates add_node was called twice with the same key.
type ErrDuplicateKey struct {
	Key VoxelKey
}

func (e *ErrDuplicateKey) Error() string {
	return fmt.Sprintf("node %s already added", e.Key)
}

// ErrEmptyPointBuffer indicates a point buffer of zero length, or one
// whose length is not a multiple of the point record length.
type ErrEmptyPointBuffer struct {
	Len           int
	PointRecordLen int
}

func (e *ErrEmptyPointBuffer) Error() string {
	if e.Len == 0 {
		return "point buffer is empty"
	}
	return fmt.Sprintf("point buffer length %d is not a multiple of point record length %d", e.Len, e.PointRecordLen)
}

// ErrNotFound indicates a lookup (e.g. an extra-bytes field by name)
// found nothing. find_node uses an invalid Node sentinel instead of
// this error, per spec.
type ErrNotFound struct {
	What string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("not found: %s", e.What)
}

// ErrFormat indicates the byte stream does not conform to LAS 1.4 /
// COPC 1.0 structural expectations.
type ErrFormat struct {
	Reason string
}

func (e *ErrFormat) Error() string {
	return fmt.Sprintf("format error: %s", e.Reason)
}

// ErrCompression indicates the codec bridge rejected input, or its
// output length did not match point_count * point_record_len.
type ErrCompression struct {
	Reason string
}

func (e *ErrCompression) Error() string {
	return fmt.Sprintf("compression error: %s", e.Reason)
}

// ErrState indicates an operation was attempted against a Writer that
// has already been closed, or a Reader used before Open completed.
type ErrState struct {
	Reason string
}

func (e *ErrState) Error() string {
	return fmt.Sprintf("state error: %s", e.Reason)
}
