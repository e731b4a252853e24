package locator

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
)

// File lists charts from a local CSV of name,href rows. A row with only an
// href takes its name from the href's basename. A leading "name,href" header
// and lines starting with '#' are ignored.
type File struct {
	Path string
}

// Locate returns every row in the file. The list carries no dates of its own,
// so since is ignored.
func (f File) Locate(_ context.Context, _ time.Time) ([]domain.FileLink, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return ReadLinks(fh)
}

// ReadLinks parses a name,href list.
func ReadLinks(r io.Reader) ([]domain.FileLink, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var links []domain.FileLink
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return links, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read link list: %w", err)
		}

		switch {
		case line == 1 && strings.EqualFold(row[0], "name"):
			continue
		case len(row) == 1 && row[0] != "":
			base := path.Base(row[0])
			links = append(links, domain.FileLink{Name: strings.TrimSuffix(base, path.Ext(base)), Href: row[0]})
		case len(row) >= 2 && row[1] != "":
			links = append(links, domain.FileLink{Name: row[0], Href: row[1]})
		default:
			return nil, fmt.Errorf("read link list: line %d: missing href", line)
		}
	}
}
