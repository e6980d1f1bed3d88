package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"presidents-game/internal/game"
	"presidents-game/internal/shared"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
)

func main() {
	playersFlag := flag.Int("players", 4, "number of bots at the table")
	roundsFlag := flag.Int("rounds", 3, "rounds to play")
	seedFlag := flag.Uint64("seed", 1, "shuffle seed")
	rulesFlag := flag.String("rules", "standard", "rule set (standard or lenient)")
	quietFlag := flag.Bool("quiet", false, "only print round results")
	logLevelFlag := flag.String("log-level", "warn", "session log level")
	flag.Parse()

	if *playersFlag < 2 || *playersFlag > shared.DeckSize {
		fmt.Fprintf(os.Stderr, "players must be between 2 and %d\n", shared.DeckSize)
		os.Exit(1)
	}
	if *roundsFlag < 1 {
		fmt.Fprintln(os.Stderr, "rounds must be at least 1")
		os.Exit(1)
	}
	rules, err := shared.RulesByName(*rulesFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(*logLevelFlag); err == nil {
		logger.SetLevel(level)
	}

	rng := rand.New(rand.NewPCG(*seedFlag, *seedFlag))
	var results [][]shared.Standing

	session := game.NewSession(game.Config{
		Code:       "SIM",
		NumPlayers: *playersFlag,
		NumBots:    *playersFlag,
		Rules:      rules,
		Logger:     logger,
		Shuffle:    func(d *shared.Deck) { d.ShuffleWith(rng) },
		OnRoundEnd: func(_ string, round int, standings []shared.Standing) {
			results = append(results, standings)
		},
		OnAction: func(actor *shared.Player, played []shared.Card, outcome shared.Outcome) {
			if !*quietFlag {
				printAction(actor, played, outcome)
			}
		},
	})

	pterm.DefaultHeader.WithFullWidth().Printfln("Presidents: %d bots, %d rounds, seed %d, %s rules",
		*playersFlag, *roundsFlag, *seedFlag, *rulesFlag)

	pterm.DefaultSection.Println("Round 1")
	session.SeatBots()
	for round := 2; round <= *roundsFlag; round++ {
		pterm.DefaultSection.Printfln("Round %d", round)
		if err := session.Replay(); err != nil {
			pterm.Error.Printfln("Could not start round %d: %v", round, err)
			os.Exit(1)
		}
	}

	for i, standings := range results {
		printStandings(i+1, standings)
	}
	printLeaderboard(session.Leaders())
}
