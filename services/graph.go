package services

import (
	"github.com/camden-git/familytree/models"
)

// NodeKind tags a graph node as a person or a marriage
type NodeKind string

const (
	NodePerson   NodeKind = "person"
	NodeMarriage NodeKind = "marriage"
)

// EdgeLabel is the relation an edge encodes
type EdgeLabel string

const (
	EdgeParentChild EdgeLabel = "parent-child"
	EdgePartner     EdgeLabel = "partner"
)

// Edge is a directed, labelled connection between two nodes
type Edge struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Label EdgeLabel `json:"label"`
}

type edgeKey struct {
	from, to string
}

// RelationshipGraph is derived from a FamilyData snapshot and never edited after
// BuildGraph returns. Adjacency lists keep insertion order.
type RelationshipGraph struct {
	kinds map[string]NodeKind
	nodes []string
	out   map[string][]Edge
	in    map[string][]Edge
	edges map[edgeKey]EdgeLabel
}

func newRelationshipGraph(capacity int) *RelationshipGraph {
	return &RelationshipGraph{
		kinds: make(map[string]NodeKind, capacity),
		nodes: make([]string, 0, capacity),
		out:   make(map[string][]Edge, capacity),
		in:    make(map[string][]Edge, capacity),
		edges: make(map[edgeKey]EdgeLabel),
	}
}

// BuildGraph derives the relationship graph from the store. References to unknown
// identifiers are dropped. The same store content always yields the same graph.
func BuildGraph(data *models.FamilyData) *RelationshipGraph {
	persons := data.Persons()
	marriages := data.Marriages()
	g := newRelationshipGraph(len(persons) + len(marriages))

	for _, p := range persons {
		g.addNode(p.ID, NodePerson)
	}

	for _, m := range marriages {
		if !g.addNode(m.ID, NodeMarriage) {
			continue
		}
		for _, partnerID := range []string{m.Partner1ID, m.Partner2ID} {
			if g.kinds[partnerID] != NodePerson {
				continue
			}
			g.addEdge(partnerID, m.ID, EdgePartner)
			g.addEdge(m.ID, partnerID, EdgePartner)
		}
	}

	for _, p := range persons {
		for _, parentID := range p.Parents {
			if g.kinds[parentID] == NodePerson {
				g.addEdge(parentID, p.ID, EdgeParentChild)
			}
		}
		for _, childID := range p.Children {
			if g.kinds[childID] == NodePerson {
				g.addEdge(p.ID, childID, EdgeParentChild)
			}
		}
	}

	return g
}

// addNode returns false when the identifier is already taken
func (g *RelationshipGraph) addNode(id string, kind NodeKind) bool {
	if _, exists := g.kinds[id]; exists {
		return false
	}
	g.kinds[id] = kind
	g.nodes = append(g.nodes, id)
	return true
}

func (g *RelationshipGraph) addEdge(from, to string, label EdgeLabel) {
	key := edgeKey{from, to}
	if _, exists := g.edges[key]; exists {
		return
	}
	g.edges[key] = label
	e := Edge{From: from, To: to, Label: label}
	g.out[from] = append(g.out[from], e)
	g.in[to] = append(g.in[to], e)
}

func (g *RelationshipGraph) NodeCount() int { return len(g.nodes) }

func (g *RelationshipGraph) EdgeCount() int { return len(g.edges) }

func (g *RelationshipGraph) HasNode(id string) bool {
	_, ok := g.kinds[id]
	return ok
}

// Kind returns the node tag, or "" for an unknown identifier
func (g *RelationshipGraph) Kind(id string) NodeKind {
	return g.kinds[id]
}

// Nodes returns every node identifier in build order
func (g *RelationshipGraph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns every edge grouped by source node in build order
func (g *RelationshipGraph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, id := range g.nodes {
		out = append(out, g.out[id]...)
	}
	return out
}

func (g *RelationshipGraph) HasEdge(from, to string, label EdgeLabel) bool {
	l, ok := g.edges[edgeKey{from, to}]
	return ok && l == label
}

// Parents returns the sources of parent-child edges into id
func (g *RelationshipGraph) Parents(id string) []string {
	return collect(g.in[id], EdgeParentChild, func(e Edge) string { return e.From })
}

// Children returns the targets of parent-child edges out of id
func (g *RelationshipGraph) Children(id string) []string {
	return collect(g.out[id], EdgeParentChild, func(e Edge) string { return e.To })
}

// Marriages returns the marriage nodes a person is attached to
func (g *RelationshipGraph) Marriages(personID string) []string {
	return collect(g.out[personID], EdgePartner, func(e Edge) string { return e.To })
}

func collect(edges []Edge, label EdgeLabel, pick func(Edge) string) []string {
	var out []string
	for _, e := range edges {
		if e.Label == label {
			out = append(out, pick(e))
		}
	}
	return out
}

// IsRoot reports whether id is a person without parents in the graph
func (g *RelationshipGraph) IsRoot(id string) bool {
	return g.kinds[id] == NodePerson && len(g.Parents(id)) == 0
}

// Roots returns all parentless people in build order
func (g *RelationshipGraph) Roots() []string {
	var roots []string
	for _, id := range g.nodes {
		if g.IsRoot(id) {
			roots = append(roots, id)
		}
	}
	return roots
}

// distancesFrom runs a breadth-first search over every edge (both labels) from all
// sources at once, so each reached node gets its shortest distance to the nearest source.
func (g *RelationshipGraph) distancesFrom(sources []string) map[string]int {
	dist := make(map[string]int, len(g.nodes))
	queue := make([]string, 0, len(g.nodes))
	for _, id := range sources {
		if _, seen := dist[id]; seen || !g.HasNode(id) {
			continue
		}
		dist[id] = 0
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range g.out[current] {
			if _, seen := dist[e.To]; seen {
				continue
			}
			dist[e.To] = dist[current] + 1
			queue = append(queue, e.To)
		}
	}
	return dist
}

// ShortestPathLength is the hop count of the shortest directed path from one node to another
func (g *RelationshipGraph) ShortestPathLength(from, to string) (int, bool) {
	d, ok := g.distancesFrom([]string{from})[to]
	return d, ok
}
