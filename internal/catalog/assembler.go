// Package catalog assembles stored chart records into a source, region and
// year hierarchy with aggregated extents, and exports it as STAC documents.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
	"github.com/couchcryptid/seaice-catalog/internal/stac"
	"github.com/couchcryptid/seaice-catalog/internal/store"
)

// ErrNothingToExport is returned when the store holds no records.
var ErrNothingToExport = errors.New("nothing to export")

const (
	DefaultRootID          = "icecharts"
	DefaultRootDescription = "Weekly Ice Charts from NIC and CIS"
)

// Reader is the part of the record store the assembler needs.
type Reader interface {
	Summary(ctx context.Context) (store.Summary, error)
	Query(ctx context.Context, f store.Filter) ([]domain.ChartRecord, error)
}

// Assembler builds catalog trees from a record store.
type Assembler struct {
	records Reader
	logger  *slog.Logger
}

// NewAssembler creates an Assembler.
func NewAssembler(records Reader, logger *slog.Logger) *Assembler {
	return &Assembler{records: records, logger: logger}
}

// Assemble builds the tree rooted at rootID. The summary drives which
// source, region and year combinations are queried; combinations without
// records produce no node.
func (a *Assembler) Assemble(ctx context.Context, rootID, description string) (*Node, error) {
	sum, err := a.records.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	if sum.Total == 0 {
		return nil, ErrNothingToExport
	}

	root := &Node{ID: rootID, Title: rootID, Description: description, Level: LevelRoot}
	for _, src := range sum.Sources {
		srcNode := &Node{
			ID:          src.Source.String() + "-icecharts",
			Title:       src.Source.String() + " Ice Charts",
			Description: "Weekly ice charts from " + src.Source.String(),
			Level:       LevelSource,
			Source:      src.Source,
		}
		for _, region := range src.Regions {
			regNode, err := a.assembleRegion(ctx, src.Source, region)
			if err != nil {
				return nil, err
			}
			srcNode.attach(regNode)
		}
		root.attach(srcNode)
	}

	if root.ItemCount() == 0 {
		return nil, ErrNothingToExport
	}
	a.logger.Info("catalog assembled",
		"root", rootID,
		"sources", len(root.Children),
		"items", root.ItemCount(),
	)
	return root, nil
}

func (a *Assembler) assembleRegion(ctx context.Context, source domain.Source, region store.RegionSummary) (*Node, error) {
	id := nodeID(source.String(), region.Region)
	regNode := &Node{
		ID:          id,
		Title:       source.String() + " " + region.Region,
		Description: fmt.Sprintf("Weekly Ice Charts From %s over the %s region", source, region.Region),
		Level:       LevelRegion,
		Source:      source,
	}

	for _, year := range region.Years() {
		recs, err := a.records.Query(ctx, store.Filter{Source: source, Region: region.Region}.InYear(year))
		if err != nil {
			return nil, fmt.Errorf("query %s %s %d: %w", source, region.Region, year, err)
		}
		if len(recs) == 0 {
			continue
		}

		yearNode := &Node{
			ID:    id + strconv.Itoa(year),
			Title: fmt.Sprintf("%s %s %d", source, region.Region, year),
			Description: fmt.Sprintf("Weekly Ice Charts From %s for the year %d over the %s region",
				source, year, region.Region),
			Level:  LevelYear,
			Source: source,
		}
		// Records arrive newest first.
		for i := len(recs) - 1; i >= 0; i-- {
			yearNode.addItem(a.item(recs[i]))
		}
		regNode.attach(yearNode)
	}
	return regNode, nil
}

// item decodes a record's document, rebuilding the placeholder item when the
// document is missing or unreadable.
func (a *Assembler) item(rec domain.ChartRecord) stac.Item {
	if len(rec.Document) > 0 {
		item, err := stac.Decode(rec.Document)
		if err == nil {
			return item
		}
		a.logger.Warn("stored item unreadable, using placeholder", "name", rec.Name, "error", err)
	}
	return stac.NewItem(rec)
}

// nodeID joins parts and removes spaces.
func nodeID(parts ...string) string {
	return strings.ReplaceAll(strings.Join(parts, ""), " ", "")
}
