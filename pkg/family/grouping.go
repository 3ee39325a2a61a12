package family

import (
	"sort"
	"strings"

	"github.com/Ramsey-B/sequoia/pkg/kinship"
	"github.com/Ramsey-B/sequoia/pkg/models"
)

// GroupFounders approximates family units when no explicit Family record
// exists. Persons with no recorded parent are founders; founders sharing a
// surname form a group, and the earliest-born founder (nulls last) is the
// group's representative ancestor. Spouse surnames outside the group's own
// feed a composite display name such as "Sithole/Moyo".
func GroupFounders(graph *kinship.Graph, persons []models.Person, maxDepth int) []models.FamilyGroup {
	groups := make(map[string][]*models.Person)
	for i := range persons {
		p := &persons[i]
		if len(graph.Parents(p.ID)) > 0 {
			continue
		}
		surname := strings.TrimSpace(p.LastName)
		if surname == "" {
			continue
		}
		groups[surname] = append(groups[surname], p)
	}

	result := make([]models.FamilyGroup, 0, len(groups))
	for surname, founders := range groups {
		ancestor := representativeAncestor(founders)

		group := models.FamilyGroup{
			Surname:    surname,
			AncestorID: ancestor.ID,
		}
		for _, f := range founders {
			group.FounderIDs = append(group.FounderIDs, f.ID)
		}
		sort.Strings(group.FounderIDs)

		group.DisplayName = displayName(graph, surname, founders)
		group.MemberCount = CountMembers(graph, ancestor.ID, maxDepth)
		group.Generations = CountGenerations(graph, ancestor.ID, maxDepth)

		result = append(result, group)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Surname < result[j].Surname
	})

	return result
}

// representativeAncestor picks the founder with the earliest birth date;
// founders without a birth date sort last. Ties break on id for determinism.
func representativeAncestor(founders []*models.Person) *models.Person {
	best := founders[0]
	for _, f := range founders[1:] {
		switch {
		case f.BirthDate == nil:
			continue
		case best.BirthDate == nil:
			best = f
		case f.BirthDate.Before(*best.BirthDate):
			best = f
		case f.BirthDate.Equal(*best.BirthDate) && f.ID < best.ID:
			best = f
		}
	}
	return best
}

// displayName joins the group surname with its founders' spouse surnames
func displayName(graph *kinship.Graph, surname string, founders []*models.Person) string {
	seen := map[string]struct{}{surname: {}}
	parts := []string{surname}
	for _, f := range founders {
		for _, spouseID := range graph.Spouses(f.ID) {
			spouse, ok := graph.Person(spouseID)
			if !ok {
				continue
			}
			s := strings.TrimSpace(spouse.LastName)
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}
