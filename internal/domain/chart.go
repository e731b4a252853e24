package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the ice service that published a chart.
type Source int

const (
	SourceNIC Source = iota + 1
	SourceCIS
)

// Sources lists every known source in catalog order.
var Sources = []Source{SourceNIC, SourceCIS}

func (s Source) String() string {
	switch s {
	case SourceNIC:
		return "NIC"
	case SourceCIS:
		return "CIS"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// ParseSource maps a stored source label back to a Source.
func ParseSource(label string) (Source, error) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "NIC":
		return SourceNIC, nil
	case "CIS":
		return SourceCIS, nil
	default:
		return 0, fmt.Errorf("unknown source %q", label)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	if s != SourceNIC && s != SourceCIS {
		return nil, fmt.Errorf("unknown source %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(b []byte) error {
	v, err := ParseSource(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Format is the file format of a chart, derived from its extension.
type Format int

const (
	FormatUnknown Format = iota
	FormatE00
	FormatShapefile
)

func (f Format) String() string {
	switch f {
	case FormatE00:
		return "ESRI E00"
	case FormatShapefile:
		return "ESRI SHAPEFILE"
	default:
		return "UNKNOWN"
	}
}

// MediaType is the asset media type advertised for files of this format.
func (f Format) MediaType() string {
	switch f {
	case FormatE00:
		return "application/x-ogc-avce00"
	case FormatShapefile:
		return "x-gis/x-shapefile"
	default:
		return "text/plain"
	}
}

// ParseFormat maps a stored format label back to a Format. Unrecognized
// labels map to FormatUnknown.
func ParseFormat(label string) Format {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "ESRI E00":
		return FormatE00
	case "ESRI SHAPEFILE":
		return FormatShapefile
	default:
		return FormatUnknown
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	*f = ParseFormat(string(b))
	return nil
}

// Region labels. NIC uses the two hemispheric labels; CIS uses the AOI labels
// from cisRegions plus RegionArctic for combined charts.
const (
	RegionArctic    = "arctic"
	RegionAntarctic = "antarctic"
)

type cisRegion struct {
	code  string
	label string
}

// cisRegions returns the CIS AOI code table in ascending code order. It is
// built on each call so callers cannot alter it.
func cisRegions() [5]cisRegion {
	return [5]cisRegion{
		{code: "a09", label: "Hudson Bay"},
		{code: "a10", label: "Western Arctic"},
		{code: "a11", label: "Eastern Arctic"},
		{code: "a12", label: "Eastern Coast"},
		{code: "a13", label: "Great Lakes"},
	}
}

// CISRegion resolves a CIS AOI code such as "a09" to its region label.
func CISRegion(code string) (string, bool) {
	code = strings.ToLower(code)
	for _, r := range cisRegions() {
		if r.code == code {
			return r.label, true
		}
	}
	return "", false
}

// CISRegionCodes returns the AOI codes in ascending order.
func CISRegionCodes() []string {
	table := cisRegions()
	codes := make([]string, len(table))
	for i, r := range table {
		codes[i] = r.code
	}
	return codes
}

// EpochLayout is the storage and display layout for chart epochs.
const EpochLayout = "2006-01-02"

// ChartRecord is one ice chart observation published by one source.
type ChartRecord struct {
	Name          string    `json:"name"`
	Href          string    `json:"href"`
	Source        Source    `json:"source"`
	Region        string    `json:"region"`
	Epoch         time.Time `json:"epoch"`
	Format        Format    `json:"format"`
	ExactGeometry bool      `json:"exact_geometry"`

	// Document is the serialized catalog item for this chart. The store keeps
	// it opaque; see package stac.
	Document []byte `json:"-"`
}

// Key returns the identity of the record: source, region and epoch.
func (r ChartRecord) Key() string {
	return r.Source.String() + "/" + r.Region + "/" + r.Epoch.Format(EpochLayout)
}

// IsPrototype reports whether the chart uses one of the early experimental
// naming variants that exact geometry does not support.
func (r ChartRecord) IsPrototype() bool {
	name := strings.ToLower(r.Name)
	return strings.Contains(name, "_pl_a") || strings.Contains(name, "_ll_a")
}

// Midnight truncates t to a UTC calendar date.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FileLink is one chart file offered by a source archive.
type FileLink struct {
	Name string
	Href string
}
