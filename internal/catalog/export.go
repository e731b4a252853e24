package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
	"github.com/couchcryptid/seaice-catalog/internal/stac"
)

// Layout controls how links between exported documents are written.
type Layout int

const (
	// SelfContained writes relative links and no self links.
	SelfContained Layout = iota
	// RelativePublished writes relative links plus an absolute self link on
	// the root.
	RelativePublished
	// AbsolutePublished writes absolute links everywhere.
	AbsolutePublished
)

var layoutNames = map[Layout]string{
	SelfContained:     "SELF_CONTAINED",
	RelativePublished: "RELATIVE_PUBLISHED",
	AbsolutePublished: "ABSOLUTE_PUBLISHED",
}

func (l Layout) String() string { return layoutNames[l] }

// ParseLayout parses a layout name such as "SELF_CONTAINED".
func ParseLayout(s string) (Layout, error) {
	for l, name := range layoutNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown catalog layout %q", s)
}

// ErrBaseURLRequired is returned when a published layout has no base URL.
var ErrBaseURLRequired = errors.New("published layouts need a base URL")

const (
	// RootFile is the root document's path within an export.
	RootFile = "catalog.json"
	// License is advertised on every collection.
	License = "proprietary"

	jsonType    = "application/json"
	geojsonType = "application/geo+json"
)

var providers = map[domain.Source]stac.Provider{
	domain.SourceNIC: {
		Name:  "U.S. National Ice Center",
		Roles: []string{"producer", "licensor"},
		URL:   "https://usicecenter.gov",
	},
	domain.SourceCIS: {
		Name:  "Canadian Ice Service",
		Roles: []string{"producer", "licensor"},
		URL:   "https://www.canada.ca/en/environment-climate-change/services/ice-forecasts-observations.html",
	},
}

// Sink stores exported documents by slash-separated path.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) error
}

// ExportConfig configures an Exporter.
type ExportConfig struct {
	Layout Layout
	// BaseURL is the absolute location of the export root. Required for the
	// published layouts.
	BaseURL     string
	Concurrency int
}

// ExportStats counts written documents.
type ExportStats struct {
	Collections int
	Items       int
}

// Exporter writes a catalog tree to a Sink.
type Exporter struct {
	sink   Sink
	cfg    ExportConfig
	logger *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(sink Sink, cfg ExportConfig, logger *slog.Logger) *Exporter {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Exporter{sink: sink, cfg: cfg, logger: logger}
}

type document struct {
	path string
	body any
}

// Export writes root and everything under it. Documents are written
// concurrently; the first failure cancels the rest.
func (e *Exporter) Export(ctx context.Context, root *Node) (ExportStats, error) {
	if root == nil || root.ItemCount() == 0 {
		return ExportStats{}, ErrNothingToExport
	}
	if e.cfg.Layout != SelfContained && e.cfg.BaseURL == "" {
		return ExportStats{}, ErrBaseURLRequired
	}

	var docs []document
	e.collect(root, "", RootFile, &docs)

	var stats ExportStats
	for _, d := range docs {
		if _, ok := d.body.(stac.Item); ok {
			stats.Items++
		} else {
			stats.Collections++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for _, d := range docs {
		g.Go(func() error {
			b, err := json.MarshalIndent(d.body, "", "  ")
			if err != nil {
				return fmt.Errorf("encode %s: %w", d.path, err)
			}
			if err := e.sink.Write(gctx, d.path, b); err != nil {
				return fmt.Errorf("write %s: %w", d.path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ExportStats{}, err
	}

	e.logger.Info("catalog exported",
		"layout", e.cfg.Layout.String(),
		"collections", stats.Collections,
		"items", stats.Items,
	)
	return stats, nil
}

// collect appends the documents for n, written at p, and its descendants.
func (e *Exporter) collect(n *Node, parent, p string, docs *[]document) {
	dir := path.Dir(p)

	links := e.commonLinks(p, parent, n.Level == LevelRoot, jsonType)
	for _, child := range n.Children {
		childPath := path.Join(dir, child.ID, "collection.json")
		links = append(links, e.link("child", p, childPath, jsonType, child.Title))
		e.collect(child, p, childPath, docs)
	}
	for _, item := range n.Items {
		itemPath := path.Join(dir, item.ID, item.ID+".json")
		links = append(links, e.link("item", p, itemPath, geojsonType, ""))
		*docs = append(*docs, document{path: itemPath, body: e.itemDocument(item, n, p, itemPath)})
	}

	coll := stac.Collection{
		Type:           "Collection",
		StacVersion:    stac.Version,
		StacExtensions: []string{stac.ProjectionExtension},
		ID:             n.ID,
		Title:          n.Title,
		Description:    n.Description,
		License:        License,
		Extent:         stac.NewExtent(n.Extent.Bound, n.Extent.Start, n.Extent.End),
		Links:          links,
	}
	if prov, ok := providers[n.Source]; ok {
		coll.Providers = []stac.Provider{prov}
	} else {
		for _, c := range n.Children {
			if prov, ok := providers[c.Source]; ok {
				coll.Providers = append(coll.Providers, prov)
			}
		}
	}
	*docs = append(*docs, document{path: p, body: coll})
}

func (e *Exporter) itemDocument(item stac.Item, parent *Node, parentPath, p string) stac.Item {
	item.Collection = parent.ID
	item.Links = append(e.commonLinks(p, parentPath, false, geojsonType),
		e.link("collection", p, parentPath, jsonType, parent.Title))
	return item
}

// commonLinks returns the root, parent and self links for the document at p.
func (e *Exporter) commonLinks(p, parent string, isRoot bool, mediaType string) []stac.Link {
	links := []stac.Link{e.link("root", p, RootFile, jsonType, "")}
	if parent != "" {
		links = append(links, e.link("parent", p, parent, jsonType, ""))
	}
	if e.cfg.Layout == AbsolutePublished || e.cfg.Layout == RelativePublished && isRoot {
		links = append(links, stac.Link{Rel: "self", Href: e.absolute(p), Type: mediaType})
	}
	return links
}

func (e *Exporter) link(rel, from, to, mediaType, title string) stac.Link {
	href := relativeHref(from, to)
	if e.cfg.Layout == AbsolutePublished {
		href = e.absolute(to)
	}
	return stac.Link{Rel: rel, Href: href, Type: mediaType, Title: title}
}

func (e *Exporter) absolute(p string) string {
	return e.cfg.BaseURL + "/" + p
}

// relativeHref is the href of to as seen from the document at from.
func relativeHref(from, to string) string {
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(from)), filepath.FromSlash(to))
	if err != nil {
		return to
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}
