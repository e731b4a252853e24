package geometry

import (
	"errors"
	"fmt"
)

// ErrRefinement is wrapped by every failure to compute exact geometry. The
// record keeps its placeholder footprint and processing continues.
var ErrRefinement = errors.New("geometry refinement failed")

// ErrEmptyLayer is returned when a vector layer holds no coordinates.
var ErrEmptyLayer = fmt.Errorf("%w: layer has no coordinates", ErrRefinement)

// CorruptArchiveError is returned when a downloaded package cannot be read as
// a zip archive, fails its checksums, or holds no files.
type CorruptArchiveError struct {
	Path string
	Err  error
}

func (e *CorruptArchiveError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("corrupt archive %s", e.Path)
	}
	return fmt.Sprintf("corrupt archive %s: %v", e.Path, e.Err)
}

func (e *CorruptArchiveError) Is(target error) bool { return target == ErrRefinement }

func (e *CorruptArchiveError) Unwrap() error { return e.Err }

// NoLayerFoundError is returned when an archive has no shapefile layer.
type NoLayerFoundError struct {
	Path string
}

func (e *NoLayerFoundError) Error() string {
	return fmt.Sprintf("no vector layer in %s", e.Path)
}

func (e *NoLayerFoundError) Unwrap() error { return ErrRefinement }

// UnsupportedProjectionError is returned for coordinate systems this package
// cannot transform.
type UnsupportedProjectionError struct {
	Name string
}

func (e *UnsupportedProjectionError) Error() string {
	return fmt.Sprintf("unsupported projection %q", e.Name)
}

func (e *UnsupportedProjectionError) Unwrap() error { return ErrRefinement }
