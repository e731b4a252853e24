package geometry

import (
	"archive/zip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// Layer is the first vector layer found in a package.
type Layer struct {
	Name   string
	Points []orb.Point
	// WKT is the content of the layer's .prj sidecar, empty when absent.
	WKT string
}

// ReadLayer verifies a zip package and reads every coordinate of its first
// shapefile layer.
func ReadLayer(archivePath string) (Layer, error) {
	z, err := zip.OpenReader(archivePath)
	if err != nil {
		return Layer{}, &CorruptArchiveError{Path: archivePath, Err: err}
	}
	defer z.Close()

	if err := verify(&z.Reader); err != nil {
		return Layer{}, &CorruptArchiveError{Path: archivePath, Err: err}
	}

	name := firstLayer(&z.Reader)
	if name == "" {
		return Layer{}, &NoLayerFoundError{Path: archivePath}
	}

	stem := strings.TrimSuffix(name, path.Ext(name))
	// The shapefile reader looks the attribute table up by this exact name
	// and cannot read a layer without one.
	dbf := name[:len(name)-len("shp")] + "dbf"
	if !hasMember(&z.Reader, dbf) {
		return Layer{}, &CorruptArchiveError{Path: archivePath, Err: fmt.Errorf("layer %s has no .dbf", name)}
	}
	if err := checkDBFHeader(&z.Reader, dbf); err != nil {
		return Layer{}, &CorruptArchiveError{Path: archivePath, Err: err}
	}

	layer := Layer{Name: name}
	if layer.WKT, err = readSidecar(&z.Reader, stem+".prj"); err != nil {
		return Layer{}, &CorruptArchiveError{Path: archivePath, Err: err}
	}

	if layer.Points, err = readShapes(archivePath, name); err != nil {
		return Layer{}, &CorruptArchiveError{Path: archivePath, Err: err}
	}
	return layer, nil
}

// readShapes collects the points of every shape in the layer. The shapefile
// reader panics on some malformed files; a panic is reported as an error.
func readShapes(archivePath, name string) (points []orb.Point, err error) {
	defer func() {
		if r := recover(); r != nil {
			points, err = nil, fmt.Errorf("read layer %s: %v", name, r)
		}
	}()

	r, err := shp.OpenShapeFromZip(archivePath, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for r.Next() {
		_, shape := r.Shape()
		points = appendShapePoints(points, shape)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// dBASE header: record count at 4, header length at 8, record length at 10.
const dbfHeaderMin = 33

// checkDBFHeader rejects attribute tables the shapefile reader cannot size.
func checkDBFHeader(r *zip.Reader, name string) error {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		hdr := make([]byte, 12)
		if _, err := io.ReadFull(rc, hdr); err != nil {
			return fmt.Errorf("%s: short header: %w", name, err)
		}
		headerLen := binary.LittleEndian.Uint16(hdr[8:10])
		recordLen := binary.LittleEndian.Uint16(hdr[10:12])
		switch {
		case f.UncompressedSize64 < dbfHeaderMin:
			return fmt.Errorf("%s: %d bytes is shorter than a header", name, f.UncompressedSize64)
		case headerLen < dbfHeaderMin:
			return fmt.Errorf("%s: header length %d", name, headerLen)
		case recordLen < 1:
			return fmt.Errorf("%s: record length %d", name, recordLen)
		}
		return nil
	}
	return fmt.Errorf("%s: not found", name)
}

// verify reads every member so their checksums are validated.
func verify(r *zip.Reader) error {
	if len(r.File) == 0 {
		return errors.New("archive is empty")
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", f.Name, err)
		}
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	return nil
}

func firstLayer(r *zip.Reader) string {
	for _, f := range r.File {
		if strings.EqualFold(path.Ext(f.Name), ".shp") {
			return f.Name
		}
	}
	return ""
}

func hasMember(r *zip.Reader, name string) bool {
	for _, f := range r.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

func readSidecar(r *zip.Reader, name string) (string, error) {
	for _, f := range r.File {
		if !strings.EqualFold(f.Name, name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", nil
}

func appendShapePoints(dst []orb.Point, shape shp.Shape) []orb.Point {
	add := func(pts []shp.Point) {
		for _, p := range pts {
			dst = append(dst, orb.Point{p.X, p.Y})
		}
	}
	switch s := shape.(type) {
	case *shp.Polygon:
		add(s.Points)
	case *shp.PolygonZ:
		add(s.Points)
	case *shp.PolygonM:
		add(s.Points)
	case *shp.PolyLine:
		add(s.Points)
	case *shp.MultiPoint:
		add(s.Points)
	case *shp.Point:
		add([]shp.Point{*s})
	}
	return dst
}
