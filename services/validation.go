package services

import (
	"fmt"

	"github.com/camden-git/familytree/models"
)

// Cycle is one strongly connected group of nodes, or a single node with an edge to itself
type Cycle struct {
	Nodes []string `json:"nodes"`
}

// ChronologyViolation is a parent whose birth date is not before the child's
type ChronologyViolation struct {
	ParentID    string      `json:"parent_id"`
	ParentName  string      `json:"parent_name"`
	ParentBirth models.Date `json:"parent_birth"`
	ChildID     string      `json:"child_id"`
	ChildName   string      `json:"child_name"`
	ChildBirth  models.Date `json:"child_birth"`
}

func (v ChronologyViolation) String() string {
	return fmt.Sprintf("parent %s (born %s) is not older than child %s (born %s)",
		v.ParentName, v.ParentBirth, v.ChildName, v.ChildBirth)
}

// ValidationReport collects the structural warnings of a tree. Nothing in it blocks
// a mutation.
type ValidationReport struct {
	HasCycles            bool                  `json:"has_cycles"`
	Cycles               []Cycle               `json:"cycles"`
	AncestryCycles       []Cycle               `json:"ancestry_cycles"`
	ChronologyViolations []ChronologyViolation `json:"chronology_violations"`
	Problems             []string              `json:"problems"`
}

// Valid reports whether no ancestry cycle or chronology problem was found
func (r ValidationReport) Valid() bool {
	return len(r.Problems) == 0
}

// FindCycles returns the cycles of the whole graph, partner edges included. Partner
// edges run both ways, so every marriage with a known partner shows up here.
func (t *FamilyTree) FindCycles() []Cycle {
	return t.Graph().cycles(nil)
}

func (t *FamilyTree) HasCycles() bool {
	return len(t.FindCycles()) > 0
}

// AncestryCycles returns cycles through parent-child edges only, i.e. people who are
// their own ancestors
func (t *FamilyTree) AncestryCycles() []Cycle {
	parentChild := EdgeParentChild
	return t.Graph().cycles(&parentChild)
}

// cycles finds strongly connected components with Tarjan's algorithm, keeping those
// with more than one node or a self loop. A non-nil only restricts the edges followed.
func (g *RelationshipGraph) cycles(only *EdgeLabel) []Cycle {
	index := 0
	indexOf := make(map[string]int, len(g.nodes))
	lowLink := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool)
	var stack []string
	var result []Cycle

	follow := func(e Edge) bool {
		return only == nil || e.Label == *only
	}

	var strongConnect func(id string)
	strongConnect = func(id string) {
		indexOf[id] = index
		lowLink[id] = index
		index++
		stack = append(stack, id)
		onStack[id] = true

		selfLoop := false
		for _, e := range g.out[id] {
			if !follow(e) {
				continue
			}
			if e.To == id {
				selfLoop = true
				continue
			}
			if _, visited := indexOf[e.To]; !visited {
				strongConnect(e.To)
				lowLink[id] = min(lowLink[id], lowLink[e.To])
			} else if onStack[e.To] {
				lowLink[id] = min(lowLink[id], indexOf[e.To])
			}
		}

		if lowLink[id] != indexOf[id] {
			return
		}
		var component []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			component = append(component, w)
			if w == id {
				break
			}
		}
		if len(component) > 1 || selfLoop {
			result = append(result, Cycle{Nodes: component})
		}
	}

	for _, id := range g.nodes {
		if _, visited := indexOf[id]; !visited {
			strongConnect(id)
		}
	}
	return result
}

// CheckChronology flags every parent, as resolved through the graph, whose birth date
// is not strictly before the child's. People without a birth date are skipped.
func (t *FamilyTree) CheckChronology() []ChronologyViolation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g := t.Graph()

	var violations []ChronologyViolation
	for _, child := range t.data.Persons() {
		if child.BirthDate == nil {
			continue
		}
		for _, parentID := range g.Parents(child.ID) {
			parent, ok := t.data.Person(parentID)
			if !ok || parent.BirthDate == nil {
				continue
			}
			if parent.BirthDate.Before(*child.BirthDate) {
				continue
			}
			violations = append(violations, ChronologyViolation{
				ParentID:    parent.ID,
				ParentName:  parent.FullName(),
				ParentBirth: *parent.BirthDate,
				ChildID:     child.ID,
				ChildName:   child.FullName(),
				ChildBirth:  *child.BirthDate,
			})
		}
	}
	return violations
}

// Validate runs every check and summarises the findings as readable problems
func (t *FamilyTree) Validate() ValidationReport {
	report := ValidationReport{
		Cycles:               t.FindCycles(),
		AncestryCycles:       t.AncestryCycles(),
		ChronologyViolations: t.CheckChronology(),
		Problems:             []string{},
	}
	report.HasCycles = len(report.Cycles) > 0

	if len(report.AncestryCycles) > 0 {
		report.Problems = append(report.Problems, "circular relationships found")
	}
	for _, v := range report.ChronologyViolations {
		report.Problems = append(report.Problems, v.String())
	}
	return report
}
