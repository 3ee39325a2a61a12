package tree

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/kinship"
	"github.com/Ramsey-B/sequoia/pkg/tracing"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

// AncestryCounter answers ancestor counts from the projected graph
type AncestryCounter interface {
	CountAncestors(ctx context.Context, personID string, maxDepth int) (int64, error)
}

// Service builds rooted family trees over fresh graph snapshots
type Service struct {
	persons       kinship.PersonLister
	relationships kinship.RelationshipLister
	ancestry      AncestryCounter
	logger        ectologger.Logger
	maxDepth      int
}

// NewService creates a tree service. maxDepth caps expansion regardless of
// what a request asks for; ancestry may be nil when graph projection is
// disabled.
func NewService(persons kinship.PersonLister, relationships kinship.RelationshipLister, ancestry AncestryCounter, logger ectologger.Logger, maxDepth int) *Service {
	if maxDepth < 1 {
		maxDepth = models.DefaultTreeMaxDepth
	}
	return &Service{
		persons:       persons,
		relationships: relationships,
		ancestry:      ancestry,
		logger:        logger,
		maxDepth:      maxDepth,
	}
}

// BuildTree builds the tree rooted at rootID. An unknown root yields a nil
// tree, not an error.
func (s *Service) BuildTree(ctx context.Context, rootID string, direction models.TreeDirection, maxDepth int) (*models.TreeNode, error) {
	ctx, span := tracing.StartSpan(ctx, "tree.Service.BuildTree")
	defer span.End()

	if !direction.IsValid() {
		direction = models.TreeDirectionDescendants
	}
	if maxDepth < 1 || maxDepth > s.maxDepth {
		maxDepth = s.maxDepth
	}

	graph, err := kinship.LoadGraph(ctx, s.persons, s.relationships)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to load kinship graph")
		return nil, err
	}

	builder := NewBuilder(graph, maxDepth)
	return builder.Build(rootID, direction), nil
}

// AncestorCount returns how many distinct ancestors a person has within
// maxDepth generations. The projected graph answers when projection is
// enabled; otherwise the count is walked over a fresh snapshot.
func (s *Service) AncestorCount(ctx context.Context, personID string, maxDepth int) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "tree.Service.AncestorCount")
	defer span.End()

	if maxDepth < 1 || maxDepth > s.maxDepth {
		maxDepth = s.maxDepth
	}

	if s.ancestry != nil {
		return s.ancestry.CountAncestors(ctx, personID, maxDepth)
	}

	graph, err := kinship.LoadGraph(ctx, s.persons, s.relationships)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to load kinship graph")
		return 0, err
	}

	return countAncestors(graph, personID, maxDepth), nil
}

// countAncestors walks parent edges breadth-first, bounded by maxDepth. A
// visited set keeps cyclic data from inflating the count.
func countAncestors(graph *kinship.Graph, personID string, maxDepth int) int64 {
	if !graph.Has(personID) {
		return 0
	}

	type hop struct {
		id    string
		depth int
	}
	visited := map[string]struct{}{personID: {}}
	queue := []hop{{id: personID}}

	var count int64
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth == maxDepth {
			continue
		}
		for _, parentID := range graph.Parents(cur.id) {
			if _, seen := visited[parentID]; seen {
				continue
			}
			visited[parentID] = struct{}{}
			count++
			queue = append(queue, hop{id: parentID, depth: cur.depth + 1})
		}
	}

	return count
}
