package main

import (
	"fmt"
	"strings"

	"presidents-game/internal/game"
	"presidents-game/internal/shared"

	"github.com/pterm/pterm"
)

// printAction prints one line per applied action and its side effects.
func printAction(actor *shared.Player, played []shared.Card, outcome shared.Outcome) {
	if len(played) == 0 {
		pterm.Println(pterm.Gray(fmt.Sprintf("%s passes", actor.Name)))
	} else {
		pterm.Printfln("%s plays %s", pterm.LightCyan(actor.Name), pterm.BgGreen.Sprint(" "+cardList(played)+" "))
	}
	if outcome.Skipped != nil {
		pterm.Printfln("  %s", pterm.LightYellow(outcome.Skipped.Name+" is skipped"))
	}
	if outcome.Standing != nil {
		pterm.Printfln("  %s", pterm.LightGreen(fmt.Sprintf("%s finished in position %d", outcome.Finished.Name, outcome.Standing.Position)))
	}
}

// printStandings renders the final titles of one round.
func printStandings(round int, standings []shared.Standing) {
	data := pterm.TableData{{"Position", "Player", "Title"}}
	for _, s := range standings {
		data = append(data, []string{fmt.Sprint(s.Position), s.Name, string(s.Title)})
	}
	pterm.DefaultSection.Printfln("Round %d results", round)
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Println(err)
	}
}

// printLeaderboard renders every player's title history.
func printLeaderboard(entries []game.LeaderboardEntry) {
	data := pterm.TableData{{"Player", "Presidencies", "Titles"}}
	for _, e := range entries {
		titles := make([]string, len(e.Titles))
		presidencies := 0
		for i, t := range e.Titles {
			titles[i] = string(t)
			if t == shared.President {
				presidencies++
			}
		}
		data = append(data, []string{e.Name, fmt.Sprint(presidencies), strings.Join(titles, ", ")})
	}
	pterm.DefaultSection.Println("Leaderboard")
	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render(); err != nil {
		pterm.Error.Println(err)
	}
}

func cardList(cards []shared.Card) string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.String()
	}
	return strings.Join(names, " ")
}
