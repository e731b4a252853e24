package store

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
)

// Summary aggregates the committed records per source and region.
type Summary struct {
	Total   int             `json:"total_items"`
	Sources []SourceSummary `json:"sources"`
}

// SourceSummary covers one source.
type SourceSummary struct {
	Source  domain.Source   `json:"source"`
	Count   int             `json:"count"`
	First   time.Time       `json:"first_epoch"`
	Last    time.Time       `json:"last_epoch"`
	Regions []RegionSummary `json:"regions"`
}

// RegionSummary covers one region of a source.
type RegionSummary struct {
	Region string    `json:"region"`
	Count  int       `json:"count"`
	First  time.Time `json:"first_epoch"`
	Last   time.Time `json:"last_epoch"`
}

// Years lists every calendar year from the first to the last epoch.
func (r RegionSummary) Years() []int {
	return yearRange(r.First, r.Last)
}

// Years lists every calendar year from the first to the last epoch.
func (s SourceSummary) Years() []int {
	return yearRange(s.First, s.Last)
}

// RegionNames returns the region labels in order.
func (s SourceSummary) RegionNames() []string {
	out := make([]string, len(s.Regions))
	for i, r := range s.Regions {
		out[i] = r.Region
	}
	return out
}

func yearRange(first, last time.Time) []int {
	if first.IsZero() || last.Before(first) {
		return nil
	}
	years := make([]int, 0, last.Year()-first.Year()+1)
	for y := first.Year(); y <= last.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// Summary reports counts and date ranges without reading the documents.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, region, COUNT(*), MIN(epoch), MAX(epoch)
		FROM items GROUP BY source, region ORDER BY source, region`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize items: %w", err)
	}
	defer rows.Close()

	var sum Summary
	for rows.Next() {
		var (
			label, first, last string
			region             RegionSummary
		)
		if err := rows.Scan(&label, &region.Region, &region.Count, &first, &last); err != nil {
			return Summary{}, fmt.Errorf("scan summary: %w", err)
		}
		source, err := domain.ParseSource(label)
		if err != nil {
			return Summary{}, err
		}
		if region.First, err = parseEpoch(first); err != nil {
			return Summary{}, err
		}
		if region.Last, err = parseEpoch(last); err != nil {
			return Summary{}, err
		}

		n := len(sum.Sources)
		if n == 0 || sum.Sources[n-1].Source != source {
			sum.Sources = append(sum.Sources, SourceSummary{Source: source, First: region.First, Last: region.Last})
			n++
		}
		src := &sum.Sources[n-1]
		src.Count += region.Count
		src.Regions = append(src.Regions, region)
		if region.First.Before(src.First) {
			src.First = region.First
		}
		if region.Last.After(src.Last) {
			src.Last = region.Last
		}
		sum.Total += region.Count
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("read summary: %w", err)
	}
	return sum, nil
}
