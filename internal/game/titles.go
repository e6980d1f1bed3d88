package game

import "presidents-game/internal/shared"

// titleForPosition returns the title decided at finish time. Bottom titles
// are left empty until the round ends.
func titleForPosition(position int) shared.Title {
	switch position {
	case 1:
		return shared.President
	case 2:
		return shared.VicePresident
	default:
		return ""
	}
}

// assignFinalTitles gives the last two untitled finishers Vice Scum and Scum,
// and every other untitled finisher Neutral.
func assignFinalTitles(standings []shared.Standing) {
	untitled := make([]int, 0, len(standings))
	for i, s := range standings {
		if s.Title == "" {
			untitled = append(untitled, i)
		}
	}

	for n, i := range untitled {
		switch n {
		case len(untitled) - 1:
			standings[i].Title = shared.Scum
		case len(untitled) - 2:
			standings[i].Title = shared.ViceScum
		default:
			standings[i].Title = shared.Neutral
		}
	}
}
