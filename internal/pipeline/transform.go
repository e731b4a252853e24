package pipeline

import (
	"fmt"
	"path"
	"strings"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
	"github.com/couchcryptid/seaice-catalog/internal/stac"
)

// ChartTransformer turns located files into chart records carrying their
// template catalog document.
type ChartTransformer struct{}

// Transform parses link and attaches the record's document. Parse failures
// wrap domain.ErrUnparseable.
func (ChartTransformer) Transform(link domain.FileLink) (domain.ChartRecord, error) {
	rec, err := domain.ParseFilename(link.Name, link.Href)
	if err != nil {
		return domain.ChartRecord{}, err
	}
	if rec.Name == "" {
		rec.Name = stem(link.Href)
	}
	if err := stac.Attach(&rec); err != nil {
		return domain.ChartRecord{}, fmt.Errorf("attach document for %s: %w", rec.Name, err)
	}
	return rec, nil
}

func stem(href string) string {
	base := path.Base(href)
	return strings.TrimSuffix(base, path.Ext(base))
}
