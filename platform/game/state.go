package game

import (
	"fmt"

	"github.com/zarah-s/stark-city-sub000/platform/board"
)

const (
	MaxPlayers    = 4
	MinPlayers    = 2
	StartingMoney = 1500
	GoBonus       = 200
	maxLogLines   = 5
)

var (
	tokens = []string{"hat", "car", "thimble", "boot"}
	colors = []string{"red", "blue", "green", "yellow"}
)

type Player struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Token      string `json:"token"`
	Color      string `json:"color"`
	Position   int    `json:"pos"`
	Money      int    `json:"bal"`
	Owned      []int  `json:"properties"`
	IsComputer bool   `json:"is_computer"`
}

// Game is the canonical mutable state for one room. It is only ever
// touched by its Engine while the engine's lock is held.
type Game struct {
	Players        []*Player
	Board          []board.Space
	Current        int
	Dice           [2]int
	DiceRolled     bool
	Log            []string
	Started        bool
	TurnInProgress bool

	// purchase window; -1 when no decision is pending
	pendingPos    int
	pendingPlayer int
}

func newGame() *Game {
	return &Game{
		Board:         board.New(),
		pendingPos:    -1,
		pendingPlayer: -1,
	}
}

func (g *Game) addPlayer(name string, computer bool) (*Player, error) {
	if g.Started {
		return nil, ErrRoomAlreadyStarted
	}
	if len(g.Players) >= MaxPlayers {
		return nil, ErrRoomFull
	}
	p := &Player{
		ID:         len(g.Players),
		Name:       name,
		Token:      tokens[len(g.Players)],
		Color:      colors[len(g.Players)],
		Money:      StartingMoney,
		Owned:      []int{},
		IsComputer: computer,
	}
	g.Players = append(g.Players, p)
	return p, nil
}

func (g *Game) removePlayer(id int) error {
	for i, p := range g.Players {
		if p.ID == id {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			// ids track join order; before the game starts they can
			// be compacted so id always equals turn index
			for j, q := range g.Players {
				q.ID = j
				q.Token = tokens[j]
				q.Color = colors[j]
			}
			return nil
		}
	}
	return ErrPlayerNotFound
}

func (g *Game) player(id int) (*Player, error) {
	if id < 0 || id >= len(g.Players) {
		return nil, ErrPlayerNotFound
	}
	return g.Players[id], nil
}

func (g *Game) appendLog(format string, args ...interface{}) string {
	line := fmt.Sprintf(format, args...)
	g.Log = append(g.Log, line)
	if len(g.Log) > maxLogLines {
		g.Log = g.Log[len(g.Log)-maxLogLines:]
	}
	return line
}

// Snapshot is the full-state payload broadcast after every mutation. A
// newly connecting client applies it wholesale instead of reconciling
// incremental events.
type Snapshot struct {
	Players        []Player      `json:"players"`
	Board          []board.Space `json:"board"`
	Current        int           `json:"current"`
	Dice           []int         `json:"dice"`
	Log            []string      `json:"log"`
	Started        bool          `json:"started"`
	TurnInProgress bool          `json:"turn_in_progress"`
	PendingPos     int           `json:"pending_pos"`    // -1 when no purchase is pending
	PendingPlayer  int           `json:"pending_player"` // -1 when no purchase is pending
}

func (g *Game) snapshot() Snapshot {
	snap := Snapshot{
		Players:        make([]Player, len(g.Players)),
		Board:          append([]board.Space(nil), g.Board...),
		Current:        g.Current,
		Log:            append([]string(nil), g.Log...),
		Started:        g.Started,
		TurnInProgress: g.TurnInProgress,
		PendingPos:     g.pendingPos,
		PendingPlayer:  g.pendingPlayer,
	}
	for i, p := range g.Players {
		cp := *p
		cp.Owned = append([]int(nil), p.Owned...)
		snap.Players[i] = cp
	}
	if g.DiceRolled {
		snap.Dice = []int{g.Dice[0], g.Dice[1]}
	}
	return snap
}
