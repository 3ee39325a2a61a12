package kinship

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/tracing"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

// Service answers relative discovery requests over fresh graph snapshots
type Service struct {
	persons       PersonLister
	relationships RelationshipLister
	logger        ectologger.Logger
	maxDistance   int
	defaultLimit  int
}

// NewService creates a kinship service. maxDistance caps how far any search
// may walk; defaultLimit applies when a request gives no limit.
func NewService(persons PersonLister, relationships RelationshipLister, logger ectologger.Logger, maxDistance, defaultLimit int) *Service {
	if maxDistance < 1 {
		maxDistance = 6
	}
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	return &Service{
		persons:       persons,
		relationships: relationships,
		logger:        logger,
		maxDistance:   maxDistance,
		defaultLimit:  defaultLimit,
	}
}

// FindRelatives returns ranked relative suggestions for a person. Persons
// whose linked account appears in contactedUserIDs are excluded.
func (s *Service) FindRelatives(ctx context.Context, personID string, minDistance, maxDistance, limit int, contactedUserIDs []string) ([]models.RelativeSuggestion, error) {
	ctx, span := tracing.StartSpan(ctx, "kinship.Service.FindRelatives")
	defer span.End()

	if maxDistance < 1 || maxDistance > s.maxDistance {
		maxDistance = s.maxDistance
	}
	if minDistance < 0 {
		minDistance = 0
	}
	if limit < 1 {
		limit = s.defaultLimit
	}

	graph, err := LoadGraph(ctx, s.persons, s.relationships)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to load kinship graph")
		return nil, err
	}

	if !graph.Has(personID) {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "person not found")
	}

	finder := NewFinder(graph)
	relatives := finder.FindRelatives(personID, maxDistance)
	delete(relatives, personID)

	var contacted map[string]struct{}
	if len(contactedUserIDs) > 0 {
		contacted = make(map[string]struct{}, len(contactedUserIDs))
		for _, userID := range contactedUserIDs {
			contacted[userID] = struct{}{}
		}
	}

	suggestions := Suggest(graph, relatives, SuggestOptions{
		MinDistance:      minDistance,
		MaxDistance:      maxDistance,
		Limit:            limit,
		ContactedUserIDs: contacted,
	})

	return suggestions, nil
}
