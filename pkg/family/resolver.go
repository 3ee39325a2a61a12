package family

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/kinship"
	"github.com/Ramsey-B/sequoia/pkg/tracing"
)

// RegisteredRoots loads the set of explicitly registered family root ids
type RegisteredRoots interface {
	RootIDs(ctx context.Context) (map[string]struct{}, error)
}

// Resolver finds the registered family a person belongs to. Explicit family
// registration is the source of truth for which named tree a branch belongs
// to; pure ancestry can span further back than any tree a user curated.
type Resolver struct {
	persons       kinship.PersonLister
	relationships kinship.RelationshipLister
	families      RegisteredRoots
	logger        ectologger.Logger
}

// NewResolver creates a family root resolver
func NewResolver(persons kinship.PersonLister, relationships kinship.RelationshipLister, families RegisteredRoots, logger ectologger.Logger) *Resolver {
	return &Resolver{
		persons:       persons,
		relationships: relationships,
		families:      families,
		logger:        logger,
	}
}

// FindFamilyRoot returns the root person id of the nearest registered family
// above personID, or empty string when no registered root is reachable. No
// reachable root is distinct from the person being unrelated to anyone.
func (r *Resolver) FindFamilyRoot(ctx context.Context, personID string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "family.Resolver.FindFamilyRoot")
	defer span.End()

	graph, err := kinship.LoadGraph(ctx, r.persons, r.relationships)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load kinship graph")
		return "", err
	}

	roots, err := r.families.RootIDs(ctx)
	if err != nil {
		return "", err
	}

	return ResolveRoot(graph, roots, personID), nil
}

// ResolveRoot walks upward from personID along child-to-parent edges,
// returning the first visited person registered as a family root. The
// breadth-first order makes the nearest registered root win over more distant
// ancestors. Returns empty string when the walk exhausts without a hit.
func ResolveRoot(graph *kinship.Graph, registeredRoots map[string]struct{}, personID string) string {
	if !graph.Has(personID) {
		return ""
	}

	// Fast path: a person with no edges at all is a root only if explicitly
	// registered as one.
	if len(graph.Parents(personID)) == 0 && len(graph.Children(personID)) == 0 && len(graph.Spouses(personID)) == 0 {
		if _, ok := registeredRoots[personID]; ok {
			return personID
		}
		return ""
	}

	visited := make(map[string]struct{})
	queue := []string{personID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		if _, ok := registeredRoots[current]; ok {
			return current
		}

		queue = append(queue, graph.Parents(current)...)
	}

	return ""
}
