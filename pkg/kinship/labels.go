package kinship

import (
	"fmt"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

// LabelFor derives a human-readable kinship label from a shortest-path
// distance and the step tags along that path. It classifies by the counts of
// parent and child steps within fixed distance buckets; blended-family paths
// that match no pattern fall through to a generic bucket rather than erroring.
func LabelFor(distance int, path []models.KinStep) string {
	var parents, children int
	for _, step := range path {
		switch step {
		case models.KinStepParent:
			parents++
		case models.KinStepChild:
			children++
		}
	}

	switch distance {
	case 0:
		return "Self"
	case 1:
		if len(path) > 0 {
			switch path[0] {
			case models.KinStepParent:
				return "Parent"
			case models.KinStepChild:
				return "Child"
			case models.KinStepSpouse:
				return "Spouse"
			}
		}
		return "Close Family"
	case 2:
		switch {
		case parents == 2:
			return "Grandparent"
		case children == 2:
			return "Grandchild"
		case parents == 1 && children == 1:
			return "Sibling"
		default:
			return "Close Family"
		}
	case 3:
		switch {
		case parents == 3:
			return "Great-Grandparent"
		case children == 3:
			return "Great-Grandchild"
		case parents == 2 && children == 1:
			return "Aunt/Uncle"
		case parents == 1 && children == 2:
			return "Niece/Nephew"
		default:
			return "Extended Family"
		}
	case 4:
		switch {
		case parents == 2 && children == 2:
			return "1st Cousin"
		case parents == 3 && children == 1:
			return "Great-Aunt/Uncle"
		case parents == 1 && children == 3:
			return "Grand-Niece/Nephew"
		default:
			return "Extended Family"
		}
	case 5:
		return "1st Cousin Once Removed"
	case 6:
		return "2nd Cousin"
	default:
		return fmt.Sprintf("%s Cousin", ordinal(distance/2))
	}
}

// ordinal renders n with its English ordinal suffix
func ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
