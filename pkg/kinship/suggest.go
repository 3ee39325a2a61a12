package kinship

import (
	"sort"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

// SuggestOptions controls relative suggestion filtering and ranking
type SuggestOptions struct {
	MinDistance int
	MaxDistance int
	Limit       int
	// ContactedUserIDs are linked accounts the caller has already reached
	// out to; their persons are dropped from the suggestions.
	ContactedUserIDs map[string]struct{}
}

// Suggest turns a relative set into a ranked list of suggestions. Candidates
// outside the [MinDistance, MaxDistance] window are dropped, as are persons
// whose linked account was already contacted. The remainder sorts by
// has-linked-account first, then by distance, then by id for a stable order.
func Suggest(graph *Graph, relatives map[string]models.Relative, opts SuggestOptions) []models.RelativeSuggestion {
	suggestions := make([]models.RelativeSuggestion, 0, len(relatives))
	for id, rel := range relatives {
		if rel.Distance < opts.MinDistance || rel.Distance > opts.MaxDistance {
			continue
		}

		person, ok := graph.Person(id)
		if !ok {
			continue
		}

		if person.HasAccount() {
			if _, contacted := opts.ContactedUserIDs[*person.UserID]; contacted {
				continue
			}
		}

		suggestions = append(suggestions, models.RelativeSuggestion{
			Person:     *person,
			Label:      LabelFor(rel.Distance, rel.Path),
			Distance:   rel.Distance,
			HasAccount: person.HasAccount(),
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].HasAccount != suggestions[j].HasAccount {
			return suggestions[i].HasAccount
		}
		if suggestions[i].Distance != suggestions[j].Distance {
			return suggestions[i].Distance < suggestions[j].Distance
		}
		return suggestions[i].Person.ID < suggestions[j].Person.ID
	})

	if opts.Limit > 0 && len(suggestions) > opts.Limit {
		suggestions = suggestions[:opts.Limit]
	}

	return suggestions
}
