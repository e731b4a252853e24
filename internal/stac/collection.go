package stac

import (
	"time"

	"github.com/paulmach/orb"
)

// Collection is a STAC Collection document. Every non-leaf node of the
// exported catalog is written as one so it can carry an extent and license.
type Collection struct {
	Type           string     `json:"type"`
	StacVersion    string     `json:"stac_version"`
	StacExtensions []string   `json:"stac_extensions,omitempty"`
	ID             string     `json:"id"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description"`
	License        string     `json:"license"`
	Providers      []Provider `json:"providers,omitempty"`
	Extent         Extent     `json:"extent"`
	Links          []Link     `json:"links"`
}

// Provider names an organization that produced the data.
type Provider struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles,omitempty"`
	URL   string   `json:"url,omitempty"`
}

// Extent is the spatial and temporal extent of a collection.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// SpatialExtent holds bounding boxes as [west, south, east, north].
type SpatialExtent struct {
	BBox [][]float64 `json:"bbox"`
}

// TemporalExtent holds [start, end] intervals.
type TemporalExtent struct {
	Interval [][]*time.Time `json:"interval"`
}

// NewExtent builds a single-interval extent.
func NewExtent(b orb.Bound, start, end time.Time) Extent {
	s, e := start.UTC(), end.UTC()
	return Extent{
		Spatial:  SpatialExtent{BBox: [][]float64{boundToBBox(b)}},
		Temporal: TemporalExtent{Interval: [][]*time.Time{{&s, &e}}},
	}
}
