package geometry

import (
	"archive/zip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeShapefileZip writes one polygon layer to a zip package and returns its
// path. An empty prj omits the sidecar.
func writeShapefileZip(t *testing.T, ring []orb.Point, prj string) string {
	t.Helper()
	members := shapefileMembers(t, ring)
	if prj != "" {
		members["chart.prj"] = []byte(prj)
	}
	return writeZip(t, members)
}

// shapefileMembers returns the .shp, .shx and .dbf files of a one-polygon
// layer named chart.
func shapefileMembers(t *testing.T, ring []orb.Point) map[string][]byte {
	t.Helper()
	dir := t.TempDir()

	w, err := shp.Create(filepath.Join(dir, "chart.shp"), shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("N", 4)}))
	pts := make([]shp.Point, len(ring))
	for i, p := range ring {
		pts[i] = shp.Point{X: p[0], Y: p[1]}
	}
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{pts}))
	n := w.Write(&poly)
	require.NoError(t, w.WriteAttribute(int(n), 0, "a"))
	w.Close()

	members := map[string][]byte{}
	// The writer names the attribute file without a dot before the extension.
	for member, file := range map[string]string{
		"chart.shp": "chart.shp",
		"chart.shx": "chart.shx",
		"chart.dbf": "chartdbf",
	} {
		b, err := os.ReadFile(filepath.Join(dir, file))
		require.NoError(t, err)
		members[member] = b
	}
	return members
}

func writeZip(t *testing.T, members map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "package.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, b := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(b)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestReadLayer(t *testing.T) {
	ring := []orb.Point{{0, 0}, {1000, 0}, {1000, 500}, {0, 500}, {0, 0}}
	path := writeShapefileZip(t, ring, lambertWKT)

	layer, err := ReadLayer(path)
	require.NoError(t, err)

	assert.Equal(t, "chart.shp", layer.Name)
	assert.Equal(t, lambertWKT, layer.WKT)
	assert.ElementsMatch(t, ring, layer.Points)
}

func TestReadLayer_NoSidecar(t *testing.T) {
	path := writeShapefileZip(t, []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, "")

	layer, err := ReadLayer(path)
	require.NoError(t, err)
	assert.Empty(t, layer.WKT)
}

func TestReadLayer_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.zip")
	require.NoError(t, os.WriteFile(path, []byte("<html>not found</html>"), 0o600))

	_, err := ReadLayer(path)

	var target *CorruptArchiveError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, path, target.Path)
	assert.ErrorIs(t, err, ErrRefinement)
}

func TestReadLayer_Empty(t *testing.T) {
	path := writeZip(t, map[string][]byte{})

	_, err := ReadLayer(path)

	var target *CorruptArchiveError
	assert.ErrorAs(t, err, &target)
}

func TestReadLayer_MissingDBF(t *testing.T) {
	members := shapefileMembers(t, []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 0}})
	delete(members, "chart.dbf")
	path := writeZip(t, members)

	_, err := ReadLayer(path)

	var target *CorruptArchiveError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, path, target.Path)
	assert.ErrorIs(t, err, ErrRefinement)
}

func TestReadLayer_DBFCaseMismatch(t *testing.T) {
	members := shapefileMembers(t, []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 0}})
	members["CHART.SHP"] = members["chart.shp"]
	members["CHART.DBF"] = members["chart.dbf"]
	delete(members, "chart.shp")
	delete(members, "chart.dbf")
	path := writeZip(t, members)

	_, err := ReadLayer(path)

	var target *CorruptArchiveError
	assert.ErrorAs(t, err, &target)
}

func TestReadLayer_MalformedDBF(t *testing.T) {
	ring := []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
	zeroRecordLen := func(b []byte) []byte {
		out := append([]byte(nil), b...)
		binary.LittleEndian.PutUint16(out[10:12], 0)
		return out
	}
	tests := []struct {
		name string
		dbf  func([]byte) []byte
	}{
		{"zero bytes", func([]byte) []byte { return nil }},
		{"truncated header", func(b []byte) []byte { return b[:20] }},
		{"record length zero", zeroRecordLen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := shapefileMembers(t, ring)
			members["chart.dbf"] = tt.dbf(members["chart.dbf"])
			path := writeZip(t, members)

			var err error
			require.NotPanics(t, func() { _, err = ReadLayer(path) })

			var target *CorruptArchiveError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, path, target.Path)
		})
	}
}

func TestReadShapes_MissingArchive(t *testing.T) {
	_, err := readShapes(filepath.Join(t.TempDir(), "absent.zip"), "chart.shp")
	assert.Error(t, err)
}

func TestReadLayer_NoLayer(t *testing.T) {
	path := writeZip(t, map[string][]byte{"readme.txt": []byte("charts moved")})

	_, err := ReadLayer(path)

	var target *NoLayerFoundError
	require.ErrorAs(t, err, &target)
	assert.ErrorIs(t, err, ErrRefinement)
}
