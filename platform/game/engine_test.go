package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarah-s/stark-city-sub000/platform/board"
)

// newTestEngine builds a started engine with zero settle delay so turn
// advances run inline.
func newTestEngine(t *testing.T, players int) *Engine {
	t.Helper()
	e := New(nil, 0)
	for i := 0; i < players; i++ {
		_, err := e.AddPlayer(fmt.Sprintf("P%d", i))
		require.NoError(t, err)
	}
	require.NoError(t, e.Start(0))
	return e
}

func fixDice(e *Engine, d1, d2 int) {
	e.roll = func() (int, int) { return d1, d2 }
}

// openPurchaseWindow puts the game into the awaiting-purchase state for
// the given player and position, as if they had just landed there.
func openPurchaseWindow(e *Engine, playerID, pos int) {
	e.mu.Lock()
	e.game.pendingPos = pos
	e.game.pendingPlayer = playerID
	e.game.TurnInProgress = true
	e.mu.Unlock()
}

func TestStartRequirements(t *testing.T) {
	e := New(nil, 0)
	_, err := e.AddPlayer("solo")
	require.NoError(t, err)

	err = e.Start(0)
	assert.ErrorIs(t, err, ErrInvalidState, "one player is not enough")

	_, err = e.AddPlayer("second")
	require.NoError(t, err)

	err = e.Start(1)
	assert.ErrorIs(t, err, ErrInvalidState, "only the host starts")

	require.NoError(t, e.Start(0))
	assert.ErrorIs(t, e.Start(0), ErrRoomAlreadyStarted)
}

func TestPlayerCapacity(t *testing.T) {
	e := New(nil, 0)
	for i := 0; i < MaxPlayers; i++ {
		_, err := e.AddPlayer(fmt.Sprintf("P%d", i))
		require.NoError(t, err)
	}
	_, err := e.AddPlayer("fifth")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestRollBeforeStartRejected(t *testing.T) {
	e := New(nil, 0)
	e.AddPlayer("a")
	e.AddPlayer("b")
	assert.ErrorIs(t, e.RollDice(0), ErrInvalidState)
}

func TestTurnRotation(t *testing.T) {
	e := newTestEngine(t, 3)
	fixDice(e, 1, 1) // lands on Community Chest, auto-resolves

	for turn := 0; turn < 6; turn++ {
		want := turn % 3
		assert.Equal(t, want, e.Snapshot().Current)
		require.NoError(t, e.RollDice(want))
	}
	assert.Equal(t, 0, e.Snapshot().Current, "rotation has period N")
}

func TestRollOutOfTurnRejected(t *testing.T) {
	e := newTestEngine(t, 2)
	fixDice(e, 1, 1)

	before := e.Snapshot()
	err := e.RollDice(1)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	after := e.Snapshot()
	assert.Equal(t, before.Players, after.Players, "rejection must not mutate state")
	assert.Nil(t, after.Dice)
}

func TestSecondRollWhileTurnBusyRejected(t *testing.T) {
	e := newTestEngine(t, 2)
	fixDice(e, 1, 2) // total 3: Baltic Avenue, unowned, suspends the turn
	require.NoError(t, e.RollDice(0))

	before := e.Snapshot()
	require.True(t, before.TurnInProgress)

	err := e.RollDice(0)
	assert.ErrorIs(t, err, ErrTurnBusy)
	err = e.RollDice(1)
	assert.ErrorIs(t, err, ErrTurnBusy)

	after := e.Snapshot()
	assert.Equal(t, before.Players, after.Players)
	assert.Equal(t, before.Dice, after.Dice)
}

func TestBuyProperty(t *testing.T) {
	e := newTestEngine(t, 2)
	openPurchaseWindow(e, 0, 1) // Mediterranean Avenue, $60

	require.NoError(t, e.BuyProperty(0, 1))

	snap := e.Snapshot()
	assert.Equal(t, 1440, snap.Players[0].Money)
	assert.Equal(t, 0, snap.Board[1].Owner)
	assert.Contains(t, snap.Players[0].Owned, 1)
	assert.Equal(t, 1, snap.Current, "purchase advances the turn")
	assert.False(t, snap.TurnInProgress)

	// a house was never built here, so there is nothing to sell
	assert.ErrorIs(t, e.SellHouse(0, 1), ErrNothingToSell)
}

func TestBuyPropertyInsufficientFunds(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	e.game.Players[0].Money = 50
	e.mu.Unlock()
	openPurchaseWindow(e, 0, 1)

	err := e.BuyProperty(0, 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	snap := e.Snapshot()
	assert.Equal(t, board.Unowned, snap.Board[1].Owner)
	assert.Equal(t, 50, snap.Players[0].Money)
	assert.Equal(t, 0, snap.PendingPlayer, "window stays open after a failed buy")
}

func TestSkipProperty(t *testing.T) {
	e := newTestEngine(t, 2)
	openPurchaseWindow(e, 0, 1)

	require.NoError(t, e.SkipProperty(0))

	snap := e.Snapshot()
	assert.Equal(t, board.Unowned, snap.Board[1].Owner)
	assert.Equal(t, 1, snap.Current)
}

func TestStalePurchaseDecisionRejected(t *testing.T) {
	e := newTestEngine(t, 2)
	openPurchaseWindow(e, 0, 1)
	require.NoError(t, e.SkipProperty(0))

	// the window closed with the turn advance
	err := e.BuyProperty(0, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, board.Unowned, e.Snapshot().Board[1].Owner)
}

func TestBuyPropertyWithoutOpenWindowRejected(t *testing.T) {
	e := newTestEngine(t, 2)

	// no window is open, so both markers sit at -1; a request echoing
	// them back must be rejected, not treated as a match
	err := e.BuyProperty(-1, -1)
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.ErrorIs(t, e.BuyProperty(0, 1), ErrInvalidState)

	snap := e.Snapshot()
	assert.Equal(t, 0, snap.Current)
	assert.Equal(t, StartingMoney, snap.Players[0].Money)
	assert.Equal(t, board.Unowned, snap.Board[1].Owner)
}

func TestPurchaseWindowIsPlayerAndPositionExact(t *testing.T) {
	e := newTestEngine(t, 2)
	openPurchaseWindow(e, 0, 1)

	assert.ErrorIs(t, e.BuyProperty(1, 1), ErrInvalidState)
	assert.ErrorIs(t, e.BuyProperty(0, 3), ErrInvalidState)
	assert.ErrorIs(t, e.SkipProperty(1), ErrInvalidState)
}

func TestPassGoBonus(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	e.game.Players[0].Position = 38
	e.mu.Unlock()
	fixDice(e, 2, 3)

	require.NoError(t, e.RollDice(0))

	snap := e.Snapshot()
	assert.Equal(t, 3, snap.Players[0].Position, "38+5 wraps to Baltic Avenue")
	assert.Equal(t, 1700, snap.Players[0].Money, "GO bonus credited on the wrap")
	assert.Equal(t, 3, snap.PendingPos, "Baltic is unowned, so a purchase is pending")
	assert.Equal(t, 0, snap.PendingPlayer)
}

func TestGoToJailTeleport(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	e.game.Players[0].Position = 27
	e.mu.Unlock()
	fixDice(e, 1, 2) // lands exactly on 30

	require.NoError(t, e.RollDice(0))

	snap := e.Snapshot()
	assert.Equal(t, board.JailPosition, snap.Players[0].Position)
	assert.Equal(t, StartingMoney, snap.Players[0].Money)
	assert.Equal(t, -1, snap.PendingPos, "no purchase prompt on a jail trip")
	assert.Equal(t, 1, snap.Current, "turn ends immediately")
}

func TestIncomeTax(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	e.game.Players[0].Position = 2
	e.mu.Unlock()
	fixDice(e, 1, 1) // lands on Income Tax (4)

	require.NoError(t, e.RollDice(0))
	assert.Equal(t, 1300, e.Snapshot().Players[0].Money)
}

func TestLuxuryTax(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	e.game.Players[0].Position = 36
	e.mu.Unlock()
	fixDice(e, 1, 1) // lands on Luxury Tax (38)

	require.NoError(t, e.RollDice(0))
	assert.Equal(t, 1400, e.Snapshot().Players[0].Money)
}

func TestChanceCardAdjustsMoneyByFifty(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	e.game.Players[0].Position = 4
	e.mu.Unlock()
	fixDice(e, 1, 2) // lands on Chance (7)

	require.NoError(t, e.RollDice(0))

	money := e.Snapshot().Players[0].Money
	diff := money - StartingMoney
	if diff < 0 {
		diff = -diff
	}
	assert.Equal(t, 50, diff)
}

func TestRentTransferConservesMoney(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	e.game.Board[39].Owner = 0 // Boardwalk
	e.game.Board[39].Houses = 2
	e.game.Players[0].Owned = append(e.game.Players[0].Owned, 39)
	e.game.Players[1].Position = 36
	e.mu.Unlock()

	// advance so it is player 1's turn
	fixDice(e, 1, 1)
	require.NoError(t, e.RollDice(0))
	mid := e.Snapshot()
	sumBefore := mid.Players[0].Money + mid.Players[1].Money

	fixDice(e, 1, 2) // 36+3 = 39
	require.NoError(t, e.RollDice(1))

	snap := e.Snapshot()
	rent := snap.Board[39].Rents[2]
	assert.Equal(t, 600, rent)
	assert.Equal(t, mid.Players[1].Money-rent, snap.Players[1].Money)
	assert.Equal(t, mid.Players[0].Money+rent, snap.Players[0].Money)
	assert.Equal(t, sumBefore, snap.Players[0].Money+snap.Players[1].Money,
		"rent is a pure transfer between the two players")
}

func TestLandingOnOwnPropertyIsFree(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	e.game.Board[3].Owner = 0
	e.game.Players[0].Owned = append(e.game.Players[0].Owned, 3)
	e.mu.Unlock()
	fixDice(e, 1, 2)

	require.NoError(t, e.RollDice(0))

	snap := e.Snapshot()
	assert.Equal(t, StartingMoney, snap.Players[0].Money)
	assert.Equal(t, 1, snap.Current)
}

func TestBuyHousePreconditions(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	e.game.Board[1].Owner = 0 // Mediterranean only; Baltic still unowned
	e.game.Players[0].Owned = append(e.game.Players[0].Owned, 1)
	e.mu.Unlock()

	assert.ErrorIs(t, e.BuyHouse(0, 5), ErrNotBuildable, "railroads take no houses")
	assert.ErrorIs(t, e.BuyHouse(0, 3), ErrNotOwner)
	assert.ErrorIs(t, e.BuyHouse(1, 1), ErrNotOwner)
	assert.ErrorIs(t, e.BuyHouse(0, 1), ErrNoMonopoly)
	assert.Zero(t, e.Snapshot().Board[1].Houses, "no partial effect on rejection")
}

func TestBuyHouseUpToHotel(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	for _, pos := range []int{1, 3} {
		e.game.Board[pos].Owner = 0
		e.game.Players[0].Owned = append(e.game.Players[0].Owned, pos)
	}
	e.mu.Unlock()

	for i := 1; i <= board.Hotel; i++ {
		require.NoError(t, e.BuyHouse(0, 3))
		assert.Equal(t, i, e.Snapshot().Board[3].Houses)
	}
	assert.ErrorIs(t, e.BuyHouse(0, 3), ErrAlreadyHotel)

	snap := e.Snapshot()
	assert.Equal(t, StartingMoney-5*snap.Board[3].HouseCost, snap.Players[0].Money)
	assert.Equal(t, 0, snap.Current, "building does not consume the turn")
}

func TestBuyHouseInsufficientFunds(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	for _, pos := range []int{1, 3} {
		e.game.Board[pos].Owner = 0
		e.game.Players[0].Owned = append(e.game.Players[0].Owned, pos)
	}
	e.game.Players[0].Money = 49 // house costs 50 on the brown group
	e.mu.Unlock()

	assert.ErrorIs(t, e.BuyHouse(0, 3), ErrInsufficientFunds)
	assert.Zero(t, e.Snapshot().Board[3].Houses)
}

func TestSellHouseRefundsHalf(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	for _, pos := range []int{1, 3} {
		e.game.Board[pos].Owner = 0
		e.game.Players[0].Owned = append(e.game.Players[0].Owned, pos)
	}
	e.mu.Unlock()

	require.NoError(t, e.BuyHouse(0, 3))
	before := e.Snapshot().Players[0].Money

	require.NoError(t, e.SellHouse(0, 3))

	snap := e.Snapshot()
	assert.Equal(t, before+25, snap.Players[0].Money, "half of the $50 build cost")
	assert.Zero(t, snap.Board[3].Houses)

	assert.ErrorIs(t, e.SellHouse(0, 3), ErrNothingToSell)
	assert.ErrorIs(t, e.SellHouse(1, 3), ErrNotOwner)
}

func TestNegativeMoneyIsTolerated(t *testing.T) {
	e := newTestEngine(t, 2)
	e.mu.Lock()
	e.game.Players[0].Money = 10
	e.game.Players[0].Position = 2
	e.mu.Unlock()
	fixDice(e, 1, 1) // Income Tax

	require.NoError(t, e.RollDice(0))
	assert.Equal(t, -190, e.Snapshot().Players[0].Money)

	// the game carries on; no elimination
	fixDice(e, 1, 1)
	require.NoError(t, e.RollDice(1))
	assert.Equal(t, 0, e.Snapshot().Current)
}

func TestAdvanceRotationPeriodN(t *testing.T) {
	e := newTestEngine(t, 4)
	for i := 0; i < 4; i++ {
		e.mu.Lock()
		e.advanceLocked()
		e.mu.Unlock()
	}
	assert.Equal(t, 0, e.Snapshot().Current)
}

func TestRemovePlayerBeforeStartCompactsIds(t *testing.T) {
	e := New(nil, 0)
	e.AddPlayer("a")
	e.AddPlayer("b")
	e.AddPlayer("c")

	require.NoError(t, e.RemovePlayer(1))

	snap := e.Snapshot()
	require.Len(t, snap.Players, 2)
	assert.Equal(t, 0, snap.Players[0].ID)
	assert.Equal(t, 1, snap.Players[1].ID)
	assert.Equal(t, "c", snap.Players[1].Name)

	assert.ErrorIs(t, e.RemovePlayer(7), ErrPlayerNotFound)
}

func TestComputerTurnResolvesWithoutInput(t *testing.T) {
	e := New(nil, 0)
	_, err := e.AddPlayer("human")
	require.NoError(t, err)
	_, err = e.AddComputerPlayer("cpu")
	require.NoError(t, err)
	fixDice(e, 1, 2) // everyone lands on Baltic Avenue (3)
	require.NoError(t, e.Start(0))

	require.NoError(t, e.RollDice(0))
	require.NoError(t, e.SkipProperty(0))

	// the opponent rolls, decides on Baltic, and ends its turn with no
	// external input
	require.Eventually(t, func() bool {
		snap := e.Snapshot()
		return snap.Current == 0 && !snap.TurnInProgress
	}, 2*time.Second, 10*time.Millisecond)

	snap := e.Snapshot()
	assert.Equal(t, -1, snap.PendingPos, "the decision window was consumed")
	cpu := snap.Players[1]
	assert.Equal(t, 3, cpu.Position)
	if snap.Board[3].Owner == cpu.ID {
		assert.Equal(t, StartingMoney-snap.Board[3].Price, cpu.Money)
		assert.Contains(t, cpu.Owned, 3)
	} else {
		assert.Equal(t, board.Unowned, snap.Board[3].Owner)
		assert.Equal(t, StartingMoney, cpu.Money)
		assert.Empty(t, cpu.Owned)
	}
}

func TestComputerNeverBuysBeyondItsMeans(t *testing.T) {
	e := New(nil, 0)
	_, err := e.AddPlayer("human")
	require.NoError(t, err)
	_, err = e.AddComputerPlayer("cpu")
	require.NoError(t, err)
	fixDice(e, 1, 2)
	e.mu.Lock()
	e.game.Players[1].Money = 40 // Baltic costs 60
	e.mu.Unlock()
	require.NoError(t, e.Start(0))

	require.NoError(t, e.RollDice(0))
	require.NoError(t, e.SkipProperty(0))

	require.Eventually(t, func() bool {
		snap := e.Snapshot()
		return snap.Current == 0 && !snap.TurnInProgress
	}, 2*time.Second, 10*time.Millisecond)

	snap := e.Snapshot()
	assert.Equal(t, board.Unowned, snap.Board[3].Owner, "an unaffordable property is always skipped")
	assert.Equal(t, 40, snap.Players[1].Money)
}

// recorder captures emitted events for order assertions.
type recorder struct {
	events []string
}

func (r *recorder) Emit(event string, payload interface{}) {
	r.events = append(r.events, event)
}

func TestRollEmitsEventSequence(t *testing.T) {
	rec := &recorder{}
	e := New(rec, 0)
	e.AddPlayer("a")
	e.AddPlayer("b")
	require.NoError(t, e.Start(0))
	fixDice(e, 1, 1) // Community Chest, resolves without a decision

	rec.events = nil
	require.NoError(t, e.RollDice(0))

	require.GreaterOrEqual(t, len(rec.events), 4)
	assert.Equal(t, EventDiceRolled, rec.events[0])
	assert.Equal(t, EventPlayerMoved, rec.events[1])
	assert.Contains(t, rec.events, EventTurnChanged)
	assert.Equal(t, EventGameState, rec.events[len(rec.events)-1],
		"every accepted action ends with a full-state broadcast")
}
