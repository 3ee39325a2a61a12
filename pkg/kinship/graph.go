package kinship

import (
	"github.com/Ramsey-B/sequoia/pkg/models"
)

// Graph is an in-memory snapshot of the kinship graph, built once per request
// from flat person and relationship records. Traversals walk the adjacency
// maps instead of issuing per-hop queries.
type Graph struct {
	persons     map[string]*models.Person
	parentsOf   map[string][]string
	childrenOf  map[string][]string
	spousesOf   map[string][]string
	spouseEdges map[string][]models.Relationship
}

// NewGraph builds a snapshot from flat records. Relationships referencing
// unknown persons are kept in the adjacency; traversal drops them when the
// person lookup misses.
func NewGraph(persons []models.Person, relationships []models.Relationship) *Graph {
	g := &Graph{
		persons:     make(map[string]*models.Person, len(persons)),
		parentsOf:   make(map[string][]string),
		childrenOf:  make(map[string][]string),
		spousesOf:   make(map[string][]string),
		spouseEdges: make(map[string][]models.Relationship),
	}

	for i := range persons {
		p := persons[i]
		g.persons[p.ID] = &p
	}

	for _, rel := range relationships {
		switch {
		case rel.RelationshipType.IsParental():
			parentID := deref(rel.ParentID)
			childID := deref(rel.ChildID)
			if parentID == "" || childID == "" {
				continue
			}
			g.parentsOf[childID] = append(g.parentsOf[childID], parentID)
			g.childrenOf[parentID] = append(g.childrenOf[parentID], childID)
		case rel.RelationshipType.IsSpousal():
			s1 := deref(rel.Spouse1ID)
			s2 := deref(rel.Spouse2ID)
			if s1 == "" || s2 == "" {
				continue
			}
			g.spousesOf[s1] = append(g.spousesOf[s1], s2)
			g.spousesOf[s2] = append(g.spousesOf[s2], s1)
			g.spouseEdges[s1] = append(g.spouseEdges[s1], rel)
			g.spouseEdges[s2] = append(g.spouseEdges[s2], rel)
		}
	}

	return g
}

// Person looks up a person by id
func (g *Graph) Person(id string) (*models.Person, bool) {
	p, ok := g.persons[id]
	return p, ok
}

// Has reports whether the person exists in the snapshot
func (g *Graph) Has(id string) bool {
	_, ok := g.persons[id]
	return ok
}

// Parents returns the parent ids of a person in record order
func (g *Graph) Parents(id string) []string {
	return g.parentsOf[id]
}

// Children returns the child ids of a person in record order
func (g *Graph) Children(id string) []string {
	return g.childrenOf[id]
}

// Spouses returns the spouse ids of a person in record order
func (g *Graph) Spouses(id string) []string {
	return g.spousesOf[id]
}

// SpouseEdges returns the spousal relationship records a person participates in
func (g *Graph) SpouseEdges(id string) []models.Relationship {
	return g.spouseEdges[id]
}

// Size returns the number of persons in the snapshot
func (g *Graph) Size() int {
	return len(g.persons)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
