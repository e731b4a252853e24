package catalog

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/seaice-catalog/internal/domain"
	"github.com/couchcryptid/seaice-catalog/internal/stac"
)

// Level is the depth of a node in the catalog tree.
type Level int

const (
	LevelRoot Level = iota
	LevelSource
	LevelRegion
	LevelYear
)

// Node is a catalog container. Year nodes hold items; every other level holds
// children. Nodes are built fresh for each export.
type Node struct {
	ID          string
	Title       string
	Description string
	Level       Level
	Source      domain.Source // unset on the root
	Extent      Extent
	Children    []*Node
	Items       []stac.Item
}

// ItemCount returns the number of items under n.
func (n *Node) ItemCount() int {
	count := len(n.Items)
	for _, c := range n.Children {
		count += c.ItemCount()
	}
	return count
}

// attach adds child to n and folds its extent into n's. Empty children are
// dropped.
func (n *Node) attach(child *Node) bool {
	if child.ItemCount() == 0 {
		return false
	}
	n.Children = append(n.Children, child)
	n.Extent.Merge(child.Extent)
	return true
}

func (n *Node) addItem(item stac.Item) {
	n.Items = append(n.Items, item)
	n.Extent.Add(item.Bound(), item.Properties.Datetime)
}

// Child returns the direct child with id, or nil.
func (n *Node) Child(id string) *Node {
	for _, c := range n.Children {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Extent is the spatial and temporal coverage of a node. The zero value is
// empty.
type Extent struct {
	Bound      orb.Bound
	Start, End time.Time
	set        bool
}

// Empty reports whether nothing has been added.
func (e Extent) Empty() bool { return !e.set }

// Add grows e to cover bbox b at time t. Boxes are combined component-wise.
func (e *Extent) Add(b orb.Bound, t time.Time) {
	if !e.set {
		*e = Extent{Bound: b, Start: t, End: t, set: true}
		return
	}
	e.Bound = e.Bound.Union(b)
	if t.Before(e.Start) {
		e.Start = t
	}
	if t.After(e.End) {
		e.End = t
	}
}

// Merge grows e to cover o.
func (e *Extent) Merge(o Extent) {
	if !o.set {
		return
	}
	e.Add(o.Bound, o.Start)
	e.Add(o.Bound, o.End)
}

// Contains reports whether o lies within e.
func (e Extent) Contains(o Extent) bool {
	if !o.set {
		return true
	}
	if !e.set {
		return false
	}
	return e.Bound.Contains(o.Bound.Min) && e.Bound.Contains(o.Bound.Max) &&
		!o.Start.Before(e.Start) && !o.End.After(e.End)
}
