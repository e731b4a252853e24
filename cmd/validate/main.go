// Command validate checks the integrity of an exported catalog tree: every
// link resolves to a readable document, no collection is empty, parent
// extents contain their children, and every item still agrees with the chart
// filename it was built from.
//
// Usage:
//
//	go run ./cmd/validate -dir out/catalog [-base https://example.org/icecharts] [-asof 2024-01-01]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/seaice-catalog/internal/catalog"
	"github.com/couchcryptid/seaice-catalog/internal/domain"
	"github.com/couchcryptid/seaice-catalog/internal/stac"
)

// extentTolerance absorbs float noise from re-projected bounds.
const extentTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// node is one loaded document. Exactly one of coll and item is set.
type node struct {
	path     string
	coll     *stac.Collection
	item     *stac.Item
	children []*node
}

func (n *node) id() string {
	if n.item != nil {
		return n.item.ID
	}
	return n.coll.ID
}

func main() {
	dir := flag.String("dir", "", "directory holding an exported catalog")
	base := flag.String("base", "", "base URL the catalog was published under, for absolute links")
	asOf := flag.String("asof", "", "reference date (YYYY-MM-DD) for two-digit years; defaults to today")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir, strings.TrimSuffix(*base, "/"), *asOf); code != 0 {
		os.Exit(code)
	}
}

func run(dir, base, asOf string) int {
	if asOf != "" {
		t, err := time.Parse(domain.EpochLayout, asOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: invalid -asof %q\n", asOf)
			return 1
		}
		// Pin the two-digit year pivot so results do not drift with the calendar.
		domain.SetClock(clockwork.NewFakeClockAt(t))
		defer domain.SetClock(nil)
	}

	fmt.Println("=== Ice Chart Catalog Validation ===")
	fmt.Println()

	structure := &phase{name: "Phase 1: Documents and links"}
	l := &loader{dir: dir, base: base, phase: structure, seen: map[string]bool{}}
	root := l.load(catalog.RootFile)
	if root == nil {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", strings.Join(structure.errors, "; "))
		return 1
	}

	phases := []*phase{
		structure,
		validateNonEmpty(root),
		validateExtents(root),
		validateFilenames(root),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Documents: %d collections, %d items\n", l.collections, l.items)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Documents and links ──

type loader struct {
	dir   string
	base  string
	phase *phase
	seen  map[string]bool

	collections int
	items       int
}

// load reads the document at rel (slash-separated, relative to the export
// root) and everything reachable from it through child and item links.
func (l *loader) load(rel string) *node {
	if l.seen[rel] {
		l.phase.errorf("%s: linked more than once", rel)
		return nil
	}
	l.seen[rel] = true

	b, err := os.ReadFile(filepath.Join(l.dir, filepath.FromSlash(rel)))
	if err != nil {
		l.phase.errorf("%s: %v", rel, err)
		return nil
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		l.phase.errorf("%s: %v", rel, err)
		return nil
	}

	n := &node{path: rel}
	var links []stac.Link
	switch head.Type {
	case "Feature":
		item, err := stac.Decode(b)
		if err != nil {
			l.phase.errorf("%s: %v", rel, err)
			return nil
		}
		n.item = &item
		links = item.Links
		l.items++
	case "Collection", "Catalog":
		var c stac.Collection
		if err := json.Unmarshal(b, &c); err != nil {
			l.phase.errorf("%s: %v", rel, err)
			return nil
		}
		n.coll = &c
		links = c.Links
		l.collections++
	default:
		l.phase.errorf("%s: unexpected document type %q", rel, head.Type)
		return nil
	}

	hasSelf := false
	for _, link := range links {
		switch link.Rel {
		case "self":
			hasSelf = true
		case "child", "item":
			if n.item != nil {
				l.phase.errorf("%s: item carries a %s link", rel, link.Rel)
				continue
			}
			target, err := l.resolve(rel, link.Href)
			if err != nil {
				l.phase.errorf("%s: %v", rel, err)
				continue
			}
			if child := l.load(target); child != nil {
				n.children = append(n.children, child)
			}
		case "root", "parent", "collection":
			if _, err := l.resolve(rel, link.Href); err != nil {
				l.phase.errorf("%s: %s link: %v", rel, link.Rel, err)
			}
		}
	}
	if rel == catalog.RootFile && n.coll == nil {
		l.phase.errorf("%s: root is not a collection", rel)
		return nil
	}
	if rel == catalog.RootFile && l.base != "" && !hasSelf {
		l.phase.errorf("%s: published root lacks a self link", rel)
	}
	return n
}

// resolve maps href, found in the document at from, to a path relative to the
// export root.
func (l *loader) resolve(from, href string) (string, error) {
	if strings.Contains(href, "://") {
		if l.base == "" || !strings.HasPrefix(href, l.base+"/") {
			return "", fmt.Errorf("absolute link %s outside the published base", href)
		}
		return strings.TrimPrefix(href, l.base+"/"), nil
	}
	target := path.Clean(path.Join(path.Dir(from), href))
	if target == ".." || strings.HasPrefix(target, "../") {
		return "", fmt.Errorf("link %s escapes the export", href)
	}
	return target, nil
}

// ── Phase 2: No empty collections ──

func validateNonEmpty(root *node) *phase {
	p := &phase{name: "Phase 2: No empty collections"}
	var count func(n *node) int
	count = func(n *node) int {
		if n.item != nil {
			return 1
		}
		total := 0
		for _, c := range n.children {
			total += count(c)
		}
		if total == 0 {
			p.errorf("%s (%s): no items", n.id(), n.path)
		}
		return total
	}
	count(root)
	return p
}

// ── Phase 3: Extents ──

type extent struct {
	bbox       []float64
	start, end time.Time
}

func extentOf(n *node) (extent, error) {
	if n.item != nil {
		t := n.item.Properties.Datetime
		return extent{bbox: n.item.BBox, start: t, end: t}, nil
	}
	e := n.coll.Extent
	if len(e.Spatial.BBox) == 0 || len(e.Spatial.BBox[0]) != 4 {
		return extent{}, fmt.Errorf("missing spatial extent")
	}
	if len(e.Temporal.Interval) == 0 || len(e.Temporal.Interval[0]) != 2 ||
		e.Temporal.Interval[0][0] == nil || e.Temporal.Interval[0][1] == nil {
		return extent{}, fmt.Errorf("missing temporal extent")
	}
	return extent{
		bbox:  e.Spatial.BBox[0],
		start: *e.Temporal.Interval[0][0],
		end:   *e.Temporal.Interval[0][1],
	}, nil
}

func (e extent) contains(o extent) bool {
	return e.bbox[0] <= o.bbox[0]+extentTolerance &&
		e.bbox[1] <= o.bbox[1]+extentTolerance &&
		e.bbox[2] >= o.bbox[2]-extentTolerance &&
		e.bbox[3] >= o.bbox[3]-extentTolerance
}

func validateExtents(root *node) *phase {
	p := &phase{name: "Phase 3: Parent extents contain children"}
	var walk func(n *node)
	walk = func(n *node) {
		if n.item != nil {
			return
		}
		outer, err := extentOf(n)
		if err != nil {
			p.errorf("%s: %v", n.path, err)
			return
		}
		for _, c := range n.children {
			inner, err := extentOf(c)
			if err != nil {
				p.errorf("%s: %v", c.path, err)
				continue
			}
			if !outer.contains(inner) {
				p.errorf("%s: bbox %v not within parent %s bbox %v", c.path, inner.bbox, n.id(), outer.bbox)
			}
			if inner.start.Before(outer.start) || inner.end.After(outer.end) {
				p.errorf("%s: interval %s..%s not within parent %s interval %s..%s",
					c.path,
					inner.start.Format(domain.EpochLayout), inner.end.Format(domain.EpochLayout),
					n.id(),
					outer.start.Format(domain.EpochLayout), outer.end.Format(domain.EpochLayout))
			}
			walk(c)
		}
	}
	walk(root)
	return p
}

// ── Phase 4: Items agree with their filenames ──

func validateFilenames(root *node) *phase {
	p := &phase{name: "Phase 4: Items match their chart filenames"}
	var walk func(n *node)
	walk = func(n *node) {
		for _, c := range n.children {
			walk(c)
		}
		if n.item == nil {
			return
		}
		item := n.item
		asset, ok := item.Assets[stac.DataAsset]
		if !ok {
			p.errorf("%s: no %s asset", item.ID, stac.DataAsset)
			return
		}
		rec, err := domain.ParseFilename(item.ID, asset.Href)
		if err != nil {
			p.errorf("%s: %v", item.ID, err)
			return
		}
		if got := item.Properties.Datetime.UTC().Format(domain.EpochLayout); got != rec.Epoch.Format(domain.EpochLayout) {
			p.errorf("%s: datetime %s, filename says %s", item.ID, got, rec.Epoch.Format(domain.EpochLayout))
		}
		if item.Properties.Region != rec.Region {
			p.errorf("%s: region %q, filename says %q", item.ID, item.Properties.Region, rec.Region)
		}
		if item.Properties.Source != rec.Source.String() {
			p.errorf("%s: source %q, filename says %q", item.ID, item.Properties.Source, rec.Source.String())
		}
	}
	walk(root)
	return p
}
