package services

import (
	"slices"

	"github.com/camden-git/familytree/models"
)

// Relation classifies how one person relates to another
type Relation string

const (
	RelationParent   Relation = "parent"
	RelationChild    Relation = "child"
	RelationPartner  Relation = "partner"
	RelationSibling  Relation = "sibling"
	RelationRelative Relation = "relative"
	RelationNone     Relation = "none"
)

// walk is a depth-first search from start following next. The result lists each
// identifier once, in first-discovery order, without start itself. With maxDepth > 0
// an identifier is included only if some path reaches it within maxDepth hops, so a
// node first reached on a long path may be expanded a second time when a shorter path
// turns up. Without a limit every node is expanded exactly once.
func walk(start string, maxDepth int, next func(string) []string) []string {
	depthOf := make(map[string]int)
	var order []string

	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		if maxDepth > 0 && depth > maxDepth {
			return
		}
		if seen, ok := depthOf[id]; ok {
			if maxDepth <= 0 || depth >= seen {
				return
			}
		} else if id != start {
			order = append(order, id)
		}
		depthOf[id] = depth
		for _, n := range next(id) {
			visit(n, depth+1)
		}
	}
	visit(start, 0)
	return order
}

func (g *RelationshipGraph) ancestorIDs(id string, maxGenerations int) []string {
	if g.Kind(id) != NodePerson {
		return nil
	}
	return walk(id, maxGenerations, g.Parents)
}

func (g *RelationshipGraph) descendantIDs(id string, maxGenerations int) []string {
	if g.Kind(id) != NodePerson {
		return nil
	}
	return walk(id, maxGenerations, g.Children)
}

func (g *RelationshipGraph) siblingIDs(id string) []string {
	var out []string
	for _, parentID := range g.Parents(id) {
		for _, childID := range g.Children(parentID) {
			if childID != id && !slices.Contains(out, childID) {
				out = append(out, childID)
			}
		}
	}
	return out
}

// Ancestors walks up through parents, depth first with parents in graph order.
// maxGenerations <= 0 means no limit.
func (t *FamilyTree) Ancestors(id string, maxGenerations int) []*models.Person {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolve(t.Graph().ancestorIDs(id, maxGenerations))
}

// Descendants walks down through children; same contract as Ancestors
func (t *FamilyTree) Descendants(id string, maxGenerations int) []*models.Person {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolve(t.Graph().descendantIDs(id, maxGenerations))
}

// Siblings returns everyone sharing at least one parent with id, half-siblings included
func (t *FamilyTree) Siblings(id string) []*models.Person {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolve(t.Graph().siblingIDs(id))
}

// generationDepths maps every node reachable from a root to its distance from the
// nearest root
func (g *RelationshipGraph) generationDepths() map[string]int {
	return g.distancesFrom(g.Roots())
}

// GenerationDepth is the shortest distance from any parentless person to id. People
// no root can reach report 0, the same as a root; see GenerationDepthKnown.
func (t *FamilyTree) GenerationDepth(id string) int {
	depth, _ := t.GenerationDepthKnown(id)
	return depth
}

// GenerationDepthKnown is GenerationDepth with ok reporting whether a root reaches id
func (t *FamilyTree) GenerationDepthKnown(id string) (depth int, ok bool) {
	g := t.Graph()
	if g.Kind(id) != NodePerson {
		return 0, false
	}
	depth, ok = g.generationDepths()[id]
	return depth, ok
}

// PersonsByGeneration buckets everyone by generation depth, store order within a bucket
func (t *FamilyTree) PersonsByGeneration() map[int][]*models.Person {
	t.mu.RLock()
	defer t.mu.RUnlock()
	depths := t.Graph().generationDepths()
	groups := make(map[int][]*models.Person)
	for _, p := range t.data.Persons() {
		d := depths[p.ID]
		groups[d] = append(groups[d], p.Clone())
	}
	return groups
}

// ClassifyRelation says what b is to a. Rules are tried in order: parent, child,
// partner, sibling, shared ancestor; the first match wins.
func (t *FamilyTree) ClassifyRelation(a, b string) Relation {
	t.mu.RLock()
	defer t.mu.RUnlock()

	personA, okA := t.data.Person(a)
	personB, okB := t.data.Person(b)
	if !okA || !okB || a == b {
		return RelationNone
	}
	g := t.Graph()

	switch {
	case g.HasEdge(b, a, EdgeParentChild):
		return RelationParent
	case g.HasEdge(a, b, EdgeParentChild):
		return RelationChild
	case t.arePartners(g, personA, personB):
		return RelationPartner
	case slices.Contains(g.siblingIDs(a), b):
		return RelationSibling
	case len(commonIDs(g.ancestorIDs(a, 0), g.ancestorIDs(b, 0))) > 0:
		return RelationRelative
	default:
		return RelationNone
	}
}

// arePartners accepts either side's partner list or a shared marriage node
func (t *FamilyTree) arePartners(g *RelationshipGraph, a, b *models.Person) bool {
	if slices.Contains(a.Partners, b.ID) || slices.Contains(b.Partners, a.ID) {
		return true
	}
	for _, marriageID := range g.Marriages(a.ID) {
		if g.HasEdge(b.ID, marriageID, EdgePartner) {
			return true
		}
	}
	return false
}

// CommonAncestors lists the ancestors a and b share, in a's ancestor order
func (t *FamilyTree) CommonAncestors(a, b string) []*models.Person {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g := t.Graph()
	return t.resolve(commonIDs(g.ancestorIDs(a, 0), g.ancestorIDs(b, 0)))
}

func commonIDs(left, right []string) []string {
	set := make(map[string]struct{}, len(right))
	for _, id := range right {
		set[id] = struct{}{}
	}
	var out []string
	for _, id := range left {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
