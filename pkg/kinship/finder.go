package kinship

import (
	"github.com/Ramsey-B/sequoia/pkg/models"
)

// Finder performs bounded breadth-first traversals over a kinship graph
// snapshot.
type Finder struct {
	graph *Graph
}

// NewFinder creates a finder over the given snapshot
func NewFinder(graph *Graph) *Finder {
	return &Finder{graph: graph}
}

type queueEntry struct {
	personID string
	distance int
	path     []models.KinStep
}

// FindRelatives walks the undirected kinship graph out to maxDistance hops
// from startID and returns every reachable person keyed by id, with the
// shortest-hop distance and the step path that reached them. The start person
// is included at distance 0.
//
// Visited state is recorded on dequeue, not on enqueue, so the first dequeue
// of a person always carries the shortest distance. The distance bound keeps
// the walk terminating on cyclic data.
func (f *Finder) FindRelatives(startID string, maxDistance int) map[string]models.Relative {
	result := make(map[string]models.Relative)
	if !f.graph.Has(startID) {
		return result
	}

	queue := []queueEntry{{personID: startID, distance: 0, path: nil}}
	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		if _, seen := result[entry.personID]; seen {
			continue
		}
		result[entry.personID] = models.Relative{
			PersonID: entry.personID,
			Distance: entry.distance,
			Path:     entry.path,
		}

		if entry.distance >= maxDistance {
			continue
		}

		for _, parentID := range f.graph.Parents(entry.personID) {
			queue = append(queue, queueEntry{
				personID: parentID,
				distance: entry.distance + 1,
				path:     appendStep(entry.path, models.KinStepParent),
			})
		}
		for _, childID := range f.graph.Children(entry.personID) {
			queue = append(queue, queueEntry{
				personID: childID,
				distance: entry.distance + 1,
				path:     appendStep(entry.path, models.KinStepChild),
			})
		}
		for _, spouseID := range f.graph.Spouses(entry.personID) {
			queue = append(queue, queueEntry{
				personID: spouseID,
				distance: entry.distance + 1,
				path:     appendStep(entry.path, models.KinStepSpouse),
			})
		}
	}

	return result
}

// appendStep copies before appending so sibling queue entries never share a
// backing array.
func appendStep(path []models.KinStep, step models.KinStep) []models.KinStep {
	next := make([]models.KinStep, len(path), len(path)+1)
	copy(next, path)
	return append(next, step)
}
