// Package stac serializes chart records as SpatioTemporal Asset Catalog (STAC)
// documents. Items are stored opaquely alongside each record; catalogs and
// collections are produced on export.
package stac

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
)

const (
	Version = "1.0.0"

	// ProjectionExtension is the schema URI of the projection extension.
	ProjectionExtension = "https://stac-extensions.github.io/projection/v1.1.0/schema.json"

	// DataAsset is the key of the asset pointing at the original chart file.
	DataAsset = "data"
)

// ErrInvalidItem is returned when a stored document is not a usable item.
var ErrInvalidItem = errors.New("invalid stac item")

// Item is a STAC Feature describing one chart.
type Item struct {
	Type           string            `json:"type"`
	StacVersion    string            `json:"stac_version"`
	StacExtensions []string          `json:"stac_extensions,omitempty"`
	ID             string            `json:"id"`
	Geometry       *geojson.Geometry `json:"geometry"`
	BBox           []float64         `json:"bbox"`
	Properties     Properties        `json:"properties"`
	Links          []Link            `json:"links"`
	Assets         map[string]Asset  `json:"assets"`
	Collection     string            `json:"collection,omitempty"`
}

// Properties holds the item properties this catalog uses.
type Properties struct {
	Datetime     time.Time         `json:"datetime"`
	Region       string            `json:"region"`
	Source       string            `json:"icechart:source"`
	Format       string            `json:"icechart:format"`
	ProjWKT2     string            `json:"proj:wkt2,omitempty"`
	ProjBBox     []float64         `json:"proj:bbox,omitempty"`
	ProjGeometry *geojson.Geometry `json:"proj:geometry,omitempty"`
}

// Asset references a file described by an item.
type Asset struct {
	Href  string   `json:"href"`
	Type  string   `json:"type,omitempty"`
	Title string   `json:"title,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Link is a STAC relation link.
type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// CollectionID is the default collection label for a source's items.
func CollectionID(source domain.Source) string {
	return source.String() + "_Ice_Charts"
}

// NewItem builds the catalog item for a parsed chart, using the placeholder
// footprint for its source and region.
func NewItem(rec domain.ChartRecord) Item {
	tpl := templateFor(rec.Source, rec.Region)
	return Item{
		Type:           "Feature",
		StacVersion:    Version,
		StacExtensions: []string{ProjectionExtension},
		ID:             rec.Name,
		Geometry:       geojson.NewGeometry(tpl.outline),
		BBox:           boundToBBox(tpl.bound),
		Properties: Properties{
			Datetime: rec.Epoch.UTC(),
			Region:   rec.Region,
			Source:   rec.Source.String(),
			Format:   rec.Format.String(),
			ProjWKT2: tpl.wkt,
		},
		Links: []Link{},
		Assets: map[string]Asset{
			DataAsset: {
				Href:  rec.Href,
				Type:  rec.Format.MediaType(),
				Title: rec.Name,
				Roles: []string{"data"},
			},
		},
		Collection: CollectionID(rec.Source),
	}
}

// Encode serializes an item for storage.
func Encode(item Item) ([]byte, error) {
	b, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode stac item %s: %w", item.ID, err)
	}
	return b, nil
}

// Decode parses a stored item document.
func Decode(b []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(b, &item); err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	if item.ID == "" || len(item.BBox) != 4 {
		return Item{}, fmt.Errorf("%w: missing id or bbox", ErrInvalidItem)
	}
	return item, nil
}

// Attach builds the item for rec and stores its encoding in rec.Document.
func Attach(rec *domain.ChartRecord) error {
	doc, err := Encode(NewItem(*rec))
	if err != nil {
		return err
	}
	rec.Document = doc
	return nil
}

// ApplyGeometry replaces an item's footprint with an exactly computed one.
// native is the outline in the dataset's own coordinates described by wkt;
// geographic is the same outline in longitude/latitude.
func ApplyGeometry(item *Item, wkt string, native, geographic orb.Polygon) {
	item.Geometry = geojson.NewGeometry(geographic)
	item.BBox = boundToBBox(geographic.Bound())
	item.Properties.ProjWKT2 = wkt
	item.Properties.ProjBBox = boundToBBox(native.Bound())
	item.Properties.ProjGeometry = geojson.NewGeometry(native)
}

// Bound returns the item's bbox as an orb.Bound.
func (i Item) Bound() orb.Bound {
	if len(i.BBox) != 4 {
		return orb.Bound{}
	}
	return orb.Bound{Min: orb.Point{i.BBox[0], i.BBox[1]}, Max: orb.Point{i.BBox[2], i.BBox[3]}}
}

func boundToBBox(b orb.Bound) []float64 {
	return []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}
