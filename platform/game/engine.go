package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/zarah-s/stark-city-sub000/platform/board"

	log "github.com/sirupsen/logrus"
)

// Outbound event names, shared by the socket layer and the local mode.
const (
	EventGameStarted       = "game-started"
	EventDiceRolled        = "dice-rolled"
	EventPlayerMoved       = "player-moved"
	EventPropertyLanded    = "property-landed"
	EventPropertyPurchased = "property-purchased"
	EventPropertySkipped   = "property-skipped"
	EventHouseBought       = "house-bought"
	EventHouseSold         = "house-sold"
	EventTurnChanged       = "turn-changed"
	EventGameState         = "game-state"
	EventGameOver          = "game-over"
)

const (
	incomeTaxAmount = 200
	luxuryTaxAmount = 100
	cardAmount      = 50
)

// Emitter receives every room-visible event the engine produces. The
// socket layer broadcasts them to the room; the local mode prints them.
// A nil emitter is allowed and drops everything.
type Emitter interface {
	Emit(event string, payload interface{})
}

// Engine owns one Game and serializes every action against it. An action
// is processed to completion before the next is accepted: the lock keeps
// mutations atomic and the TurnInProgress flag keeps a whole turn (roll
// through advance, including the settle window) closed to further rolls.
type Engine struct {
	mu      sync.Mutex
	game    *Game
	emitter Emitter
	settle  time.Duration
	rng     *rand.Rand
	roll    func() (int, int)
	logSink func(line string)
}

// New creates an engine with an empty, unstarted game. settle is the
// pause between an action's effect and the turn advancing; zero advances
// synchronously, which is what tests use.
func New(emitter Emitter, settle time.Duration) *Engine {
	e := &Engine{
		game:    newGame(),
		emitter: emitter,
		settle:  settle,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.roll = func() (int, int) {
		return e.rng.Intn(6) + 1, e.rng.Intn(6) + 1
	}
	return e
}

// OnLog registers a sink that receives every log line appended to the
// game, in order. Used for the room audit trail.
func (e *Engine) OnLog(fn func(line string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logSink = fn
}

func (e *Engine) emit(event string, payload interface{}) {
	if e.emitter != nil {
		e.emitter.Emit(event, payload)
	}
}

func (e *Engine) logf(format string, args ...interface{}) {
	line := e.game.appendLog(format, args...)
	if e.logSink != nil {
		e.logSink(line)
	}
}

func (e *Engine) AddPlayer(name string) (Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.game.addPlayer(name, false)
	if err != nil {
		return Player{}, err
	}
	return *p, nil
}

// AddComputerPlayer joins the heuristic opponent. The engine drives its
// rolls and purchase decisions itself from then on.
func (e *Engine) AddComputerPlayer(name string) (Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.game.addPlayer(name, true)
	if err != nil {
		return Player{}, err
	}
	return *p, nil
}

// RemovePlayer drops a player from an unstarted game and compacts the
// remaining ids. Removal from a running game is handled by the session
// directory, which ends the game outright.
func (e *Engine) RemovePlayer(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.game.Started {
		return ErrRoomAlreadyStarted
	}
	return e.game.removePlayer(id)
}

func (e *Engine) PlayerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.game.Players)
}

func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.game.Started
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.game.snapshot()
}

// Start begins the game. Only player 0 may start, and at least two
// players must have joined.
func (e *Engine) Start(playerID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := e.game
	if g.Started {
		return ErrRoomAlreadyStarted
	}
	if playerID != 0 {
		return fmt.Errorf("%w: only the host can start the game", ErrInvalidState)
	}
	if len(g.Players) < MinPlayers {
		return fmt.Errorf("%w: need at least %d players", ErrInvalidState, MinPlayers)
	}
	g.Started = true
	g.Current = 0
	e.logf("Game started, %s goes first", g.Players[0].Name)
	e.emit(EventGameStarted, nil)
	e.emit(EventGameState, g.snapshot())
	e.maybeDriveBotLocked()
	return nil
}

// RollDice is the turn-consuming action. It is legal only for the
// current player, only once per turn, and only while no other turn is
// mid-resolution.
func (e *Engine) RollDice(playerID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := e.game
	if !g.Started {
		return ErrInvalidState
	}
	if g.TurnInProgress {
		return ErrTurnBusy
	}
	if playerID != g.Current {
		return ErrNotYourTurn
	}
	p, err := g.player(playerID)
	if err != nil {
		return err
	}

	d1, d2 := e.roll()
	g.Dice = [2]int{d1, d2}
	g.DiceRolled = true
	g.TurnInProgress = true
	total := d1 + d2
	e.logf("%s rolled %d and %d", p.Name, d1, d2)
	e.emit(EventDiceRolled, map[string]int{"player": p.ID, "die1": d1, "die2": d2})

	// pass-GO check on absolute forward displacement, before wrapping
	if p.Position+total >= board.Size {
		p.Money += GoBonus
		e.logf("%s collected $%d for passing GO", p.Name, GoBonus)
	}
	p.Position = (p.Position + total) % board.Size
	e.emit(EventPlayerMoved, map[string]int{"player": p.ID, "pos": p.Position})

	suspended := e.resolveLandingLocked(p)
	e.emit(EventGameState, g.snapshot())
	if !suspended {
		e.scheduleAdvanceLocked()
	}
	return nil
}

// resolveLandingLocked applies the effect of the space the player is now
// on. It returns true when the turn is suspended waiting for a purchase
// decision.
func (e *Engine) resolveLandingLocked(p *Player) bool {
	g := e.game
	s := &g.Board[p.Position]
	switch {
	case s.Name == board.NameGoToJail:
		p.Position = board.JailPosition
		e.logf("%s was sent to jail", p.Name)
		e.emit(EventPlayerMoved, map[string]int{"player": p.ID, "pos": p.Position})

	case s.Name == board.NameIncomeTax:
		p.Money -= incomeTaxAmount
		e.logf("%s paid $%d income tax", p.Name, incomeTaxAmount)

	case s.Name == board.NameLuxuryTax:
		p.Money -= luxuryTaxAmount
		e.logf("%s paid $%d luxury tax", p.Name, luxuryTaxAmount)

	case s.Ownable():
		if s.Owner == board.Unowned {
			g.pendingPos = s.Position
			g.pendingPlayer = p.ID
			e.logf("%s landed on %s ($%d)", p.Name, s.Name, s.Price)
			e.emit(EventPropertyLanded, map[string]interface{}{
				"player": p.ID, "pos": s.Position, "name": s.Name, "price": s.Price,
			})
			if p.IsComputer {
				e.scheduleBotDecisionLocked(p.ID, s.Position)
			}
			return true
		}
		if s.Owner != p.ID {
			rent := ComputeRent(s)
			owner := g.Players[s.Owner]
			p.Money -= rent
			owner.Money += rent
			e.logf("%s paid $%d rent to %s for %s", p.Name, rent, owner.Name, s.Name)
			e.emit(EventPropertyLanded, map[string]interface{}{
				"player": p.ID, "pos": s.Position, "name": s.Name, "rent": rent, "owner": s.Owner,
			})
		}
		// landing on your own property has no effect

	case s.Name == board.NameChance || s.Name == board.NameCommunityChest:
		delta := cardAmount
		if e.rng.Intn(2) == 0 {
			delta = -cardAmount
		}
		p.Money += delta
		if delta > 0 {
			e.logf("%s drew a card and gained $%d", p.Name, delta)
		} else {
			e.logf("%s drew a card and lost $%d", p.Name, -delta)
		}
	}
	return false
}

// BuyProperty resolves a pending purchase window. Stale decisions that
// arrive after the window closed are rejected without effect.
func (e *Engine) BuyProperty(playerID, pos int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := e.game
	if !g.Started {
		return ErrInvalidState
	}
	// pendingPos/pendingPlayer are -1 when no window is open, so a raw
	// comparison alone would let a {-1,-1} request through
	if g.pendingPos < 0 || g.pendingPos != pos || g.pendingPlayer != playerID {
		return fmt.Errorf("%w: no purchase pending", ErrInvalidState)
	}
	p := g.Players[playerID]
	s := &g.Board[pos]
	if s.Owner != board.Unowned {
		return ErrAlreadyOwned
	}
	if p.Money < s.Price {
		return ErrInsufficientFunds
	}
	p.Money -= s.Price
	s.Owner = p.ID
	p.Owned = append(p.Owned, pos)
	g.pendingPos, g.pendingPlayer = -1, -1
	e.logf("%s bought %s for $%d", p.Name, s.Name, s.Price)
	e.emit(EventPropertyPurchased, map[string]int{"player": p.ID, "pos": pos, "price": s.Price})
	e.emit(EventGameState, g.snapshot())
	e.scheduleAdvanceLocked()
	return nil
}

// SkipProperty declines a pending purchase window and advances the turn.
func (e *Engine) SkipProperty(playerID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := e.game
	if !g.Started {
		return ErrInvalidState
	}
	if g.pendingPlayer != playerID || g.pendingPos < 0 {
		return fmt.Errorf("%w: no purchase pending", ErrInvalidState)
	}
	pos := g.pendingPos
	g.pendingPos, g.pendingPlayer = -1, -1
	e.logf("%s skipped %s", g.Players[playerID].Name, g.Board[pos].Name)
	e.emit(EventPropertySkipped, map[string]int{"player": playerID, "pos": pos})
	e.emit(EventGameState, g.snapshot())
	e.scheduleAdvanceLocked()
	return nil
}

// BuyHouse builds one house (or the hotel at count five) on an owned
// monopoly property. Not turn-consuming: the turn does not advance.
func (e *Engine) BuyHouse(playerID, pos int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := e.game
	if !g.Started {
		return ErrInvalidState
	}
	p, err := g.player(playerID)
	if err != nil {
		return err
	}
	s, err := board.GetByPos(pos, g.Board)
	if err != nil {
		return fmt.Errorf("%w: bad position", ErrInvalidState)
	}
	if err := validateBuildHouse(g, p, s); err != nil {
		return err
	}
	p.Money -= s.HouseCost
	s.Houses++
	e.logf("%s built on %s (%d)", p.Name, s.Name, s.Houses)
	e.emit(EventHouseBought, map[string]int{"player": p.ID, "pos": pos, "houses": s.Houses})
	e.emit(EventGameState, g.snapshot())
	return nil
}

// SellHouse removes one house for half its build cost. No monopoly
// requirement to sell, and no turn advance.
func (e *Engine) SellHouse(playerID, pos int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := e.game
	if !g.Started {
		return ErrInvalidState
	}
	p, err := g.player(playerID)
	if err != nil {
		return err
	}
	s, err := board.GetByPos(pos, g.Board)
	if err != nil {
		return fmt.Errorf("%w: bad position", ErrInvalidState)
	}
	if err := validateSellHouse(p, s); err != nil {
		return err
	}
	refund := s.HouseCost / 2
	p.Money += refund
	s.Houses--
	e.logf("%s sold a house on %s for $%d", p.Name, s.Name, refund)
	e.emit(EventHouseSold, map[string]int{"player": p.ID, "pos": pos, "houses": s.Houses})
	e.emit(EventGameState, g.snapshot())
	return nil
}

// scheduleAdvanceLocked queues the turn advance after the settle window.
// TurnInProgress stays set for the whole window, so no roll sneaks in
// before the advance lands. Zero settle advances inline.
func (e *Engine) scheduleAdvanceLocked() {
	if e.settle == 0 {
		e.advanceLocked()
		return
	}
	time.AfterFunc(e.settle, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.advanceLocked()
	})
}

func (e *Engine) advanceLocked() {
	g := e.game
	if len(g.Players) == 0 {
		return
	}
	g.Current = (g.Current + 1) % len(g.Players)
	g.pendingPos, g.pendingPlayer = -1, -1
	g.TurnInProgress = false
	e.emit(EventTurnChanged, map[string]int{"current": g.Current})
	e.emit(EventGameState, g.snapshot())
	e.maybeDriveBotLocked()
}

// maybeDriveBotLocked lets the computer opponent take its turn once it
// becomes current. The thinking pause reuses the settle duration.
func (e *Engine) maybeDriveBotLocked() {
	g := e.game
	cur := g.Players[g.Current]
	if !cur.IsComputer {
		return
	}
	id := cur.ID
	time.AfterFunc(e.settle, func() {
		if err := e.RollDice(id); err != nil {
			log.WithError(err).Warn("computer roll rejected")
		}
	})
}

func (e *Engine) scheduleBotDecisionLocked(playerID, pos int) {
	time.AfterFunc(e.settle, func() {
		e.mu.Lock()
		if e.game.pendingPos != pos || e.game.pendingPlayer != playerID {
			e.mu.Unlock()
			return
		}
		money := e.game.Players[playerID].Money
		price := e.game.Board[pos].Price
		buy := ShouldBuy(money, price, e.rng)
		e.mu.Unlock()

		var err error
		if buy {
			err = e.BuyProperty(playerID, pos)
		} else {
			err = e.SkipProperty(playerID)
		}
		if err != nil {
			log.WithError(err).Warn("computer purchase decision rejected")
		}
	})
}
