package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zarah-s/stark-city-sub000/platform/game"
)

// Terminal "versus computer" mode. The same engine the server runs is
// driven directly here, with the heuristic opponent playing its own
// turns.

const thinkDelay = 600 * time.Millisecond

func main() {
	name := "You"
	if len(os.Args) > 1 {
		name = os.Args[1]
	}

	engine := game.New(nil, thinkDelay)
	engine.OnLog(func(line string) { fmt.Println("  " + line) })

	me, err := engine.AddPlayer(name)
	if err != nil {
		fmt.Println(err)
		return
	}
	if _, err := engine.AddComputerPlayer("Computer"); err != nil {
		fmt.Println(err)
		return
	}
	if err := engine.Start(me.ID); err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("Commands: roll, buy, skip, build <pos>, sell <pos>, state, quit")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		snap := engine.Snapshot()
		switch {
		case snap.PendingPlayer == me.ID:
			prop := snap.Board[snap.PendingPos]
			fmt.Printf("[$%d] Buy %s for $%d? (buy/skip) ", snap.Players[me.ID].Money, prop.Name, prop.Price)
		case snap.Current == me.ID && !snap.TurnInProgress:
			fmt.Printf("[$%d @ %s] your move: ", snap.Players[me.ID].Money, snap.Board[snap.Players[me.ID].Position].Name)
		default:
			// computer is playing; let its timers run
			time.Sleep(200 * time.Millisecond)
			continue
		}

		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var cmdErr error
		switch fields[0] {
		case "roll":
			cmdErr = engine.RollDice(me.ID)
		case "buy":
			snap := engine.Snapshot()
			cmdErr = engine.BuyProperty(me.ID, snap.PendingPos)
		case "skip":
			cmdErr = engine.SkipProperty(me.ID)
		case "build", "sell":
			if len(fields) < 2 {
				fmt.Println("usage:", fields[0], "<position>")
				continue
			}
			pos, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("bad position:", fields[1])
				continue
			}
			if fields[0] == "build" {
				cmdErr = engine.BuyHouse(me.ID, pos)
			} else {
				cmdErr = engine.SellHouse(me.ID, pos)
			}
		case "state":
			printState(engine.Snapshot())
		case "quit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
		if cmdErr != nil {
			fmt.Println("rejected:", cmdErr)
		}
	}
}

func printState(snap game.Snapshot) {
	for _, p := range snap.Players {
		marker := " "
		if p.ID == snap.Current {
			marker = "*"
		}
		fmt.Printf("%s %s: $%d on %s, owns %d properties\n",
			marker, p.Name, p.Money, snap.Board[p.Position].Name, len(p.Owned))
	}
	for _, s := range snap.Board {
		if s.Owner >= 0 {
			fmt.Printf("  %2d %-25s owner=%s houses=%d\n",
				s.Position, s.Name, snap.Players[s.Owner].Name, s.Houses)
		}
	}
}
