// Package locator lists the chart files each issuing service has published
// since a given date.
package locator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
)

// DefaultNICSearchURL is the National Ice Center product search endpoint.
const DefaultNICSearchURL = "https://usicecenter.gov/Products/DisplaySearchResults"

const nicDateLayout = "01/02/2006"

type nicProduct struct {
	searchText string
	product    string
}

var nicProducts = []nicProduct{
	{searchText: "WeeklyArctic", product: "Arctic Weekly Shapefile"},
	{searchText: "WeeklyAntarctic", product: "Antarctic Weekly Shapefile"},
}

// NIC locates National Ice Center weekly shapefiles through the product
// search form.
type NIC struct {
	searchURL  string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewNIC creates a NIC locator.
func NewNIC(searchURL string, timeout time.Duration, clock clockwork.Clock, logger *slog.Logger) *NIC {
	return &NIC{
		searchURL: searchURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:  clock,
		logger: logger,
	}
}

func (n *NIC) Source() domain.Source { return domain.SourceNIC }

// Locate searches the arctic and antarctic weekly products from since
// through today.
func (n *NIC) Locate(ctx context.Context, since time.Time) ([]domain.FileLink, error) {
	end := n.clock.Now()

	var links []domain.FileLink
	for _, p := range nicProducts {
		found, err := n.search(ctx, p, since, end)
		if err != nil {
			return nil, err
		}
		n.logger.Debug("nic search complete", "product", p.searchText, "files", len(found))
		links = append(links, found...)
	}
	return links, nil
}

func (n *NIC) search(ctx context.Context, p nicProduct, since, end time.Time) ([]domain.FileLink, error) {
	form := url.Values{
		"searchText":    {p.searchText},
		"searchProduct": {p.product},
		"startDate":     {since.Format(nicDateLayout)},
		"endDate":       {end.Format(nicDateLayout)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.searchURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nic search %s: %w", p.searchText, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nic search %s: status %d: %s", p.searchText, resp.StatusCode, body)
	}

	base, err := url.Parse(n.searchURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	return extractLinks(resp.Body, base, "zip")
}

// extractLinks returns the anchors in an HTML page whose text contains marker.
// Names are the lower-cased link text without its extension; hrefs are
// resolved against base.
func extractLinks(r io.Reader, base *url.URL, marker string) ([]domain.FileLink, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	var links []domain.FileLink
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.DataAtom == atom.A {
			if link, ok := anchorLink(node, base, marker); ok {
				links = append(links, link)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func anchorLink(a *html.Node, base *url.URL, marker string) (domain.FileLink, bool) {
	text := strings.ToLower(strings.TrimSpace(textContent(a)))
	if !strings.Contains(text, marker) {
		return domain.FileLink{}, false
	}
	var href string
	for _, attr := range a.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
		}
	}
	if href == "" {
		return domain.FileLink{}, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return domain.FileLink{}, false
	}
	return domain.FileLink{
		Name: strings.TrimSuffix(text, path.Ext(text)),
		Href: base.ResolveReference(ref).String(),
	}, true
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
