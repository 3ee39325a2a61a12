package family

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/kinship"
	"github.com/Ramsey-B/sequoia/pkg/tracing"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

// Aggregator computes membership and generation statistics over graph
// snapshots.
type Aggregator struct {
	persons       kinship.PersonLister
	relationships kinship.RelationshipLister
	logger        ectologger.Logger
	maxDepth      int
}

// NewAggregator creates a stats aggregator. maxDepth bounds the per-tree
// walks the same way tree building is bounded.
func NewAggregator(persons kinship.PersonLister, relationships kinship.RelationshipLister, logger ectologger.Logger, maxDepth int) *Aggregator {
	if maxDepth < 1 {
		maxDepth = models.DefaultTreeMaxDepth
	}
	return &Aggregator{
		persons:       persons,
		relationships: relationships,
		logger:        logger,
		maxDepth:      maxDepth,
	}
}

// TreeStats returns member and generation counts for the tree rooted at
// rootID.
func (a *Aggregator) TreeStats(ctx context.Context, rootID string) (*models.FamilyTreeStats, error) {
	ctx, span := tracing.StartSpan(ctx, "family.Aggregator.TreeStats")
	defer span.End()

	graph, err := kinship.LoadGraph(ctx, a.persons, a.relationships)
	if err != nil {
		a.logger.WithContext(ctx).WithError(err).Error("Failed to load kinship graph")
		return nil, err
	}

	return &models.FamilyTreeStats{
		RootPersonID: rootID,
		MemberCount:  CountMembers(graph, rootID, a.maxDepth),
		Generations:  CountGenerations(graph, rootID, a.maxDepth),
	}, nil
}

// ComputeStats returns store-wide aggregate counts, independent of any root
func (a *Aggregator) ComputeStats(ctx context.Context) (*models.FamilyStats, error) {
	ctx, span := tracing.StartSpan(ctx, "family.Aggregator.ComputeStats")
	defer span.End()

	persons, err := a.persons.ListAll(ctx)
	if err != nil {
		a.logger.WithContext(ctx).WithError(err).Error("Failed to load persons")
		return nil, err
	}

	relationships, err := a.relationships.ListAll(ctx)
	if err != nil {
		a.logger.WithContext(ctx).WithError(err).Error("Failed to load relationships")
		return nil, err
	}

	stats := &models.FamilyStats{TotalMembers: len(persons)}
	for i := range persons {
		p := &persons[i]
		if p.IsLiving {
			stats.LivingCount++
		} else {
			stats.DeceasedCount++
		}
		if p.Gender != nil {
			switch *p.Gender {
			case models.GenderMale:
				stats.MaleCount++
			case models.GenderFemale:
				stats.FemaleCount++
			}
		}
		if p.BirthDate != nil {
			if stats.OldestMember == nil || p.BirthDate.Before(*stats.OldestMember.BirthDate) {
				stats.OldestMember = p
			}
			if p.IsLiving && (stats.YoungestLiving == nil || p.BirthDate.After(*stats.YoungestLiving.BirthDate)) {
				stats.YoungestLiving = p
			}
		}
	}

	for _, rel := range relationships {
		if rel.RelationshipType.IsSpousal() {
			stats.MarriageCount++
		}
	}

	return stats, nil
}

// CountMembers walks the tree rooted at rootID along child edges, counting
// each visited person plus any spouse not already counted. A single visited
// set spans the whole walk so a person reachable through multiple paths, such
// as a remarriage chain, is counted once.
func CountMembers(graph *kinship.Graph, rootID string, maxDepth int) int {
	if !graph.Has(rootID) {
		return 0
	}
	visited := make(map[string]struct{})
	return countMembers(graph, rootID, 0, maxDepth, visited)
}

func countMembers(graph *kinship.Graph, personID string, depth, maxDepth int, visited map[string]struct{}) int {
	if _, seen := visited[personID]; seen {
		return 0
	}
	visited[personID] = struct{}{}

	count := 1
	for _, spouseID := range graph.Spouses(personID) {
		if _, seen := visited[spouseID]; seen {
			continue
		}
		visited[spouseID] = struct{}{}
		count++
	}

	if depth >= maxDepth {
		return count
	}

	for _, childID := range graph.Children(personID) {
		count += countMembers(graph, childID, depth+1, maxDepth, visited)
	}

	return count
}

// CountGenerations returns the depth of the deepest descendant line below
// rootID, counting the root's generation as 1. The maximum is accumulated
// through return values so the function stays composable.
func CountGenerations(graph *kinship.Graph, rootID string, maxDepth int) int {
	if !graph.Has(rootID) {
		return 0
	}
	visited := make(map[string]struct{})
	return countGenerations(graph, rootID, 0, maxDepth, visited)
}

func countGenerations(graph *kinship.Graph, personID string, depth, maxDepth int, visited map[string]struct{}) int {
	if _, seen := visited[personID]; seen {
		return 0
	}
	visited[personID] = struct{}{}

	deepest := depth + 1
	if depth >= maxDepth {
		return deepest
	}

	for _, childID := range graph.Children(personID) {
		if below := countGenerations(graph, childID, depth+1, maxDepth, visited); below > deepest {
			deepest = below
		}
	}

	return deepest
}
